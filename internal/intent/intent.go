// Package intent classifies free-text agent requests. Classification is a
// strategy behind an interface so the pattern matcher can be swapped for a
// model-backed classifier without touching callers.
package intent

import (
	"regexp"
	"strings"

	"tetsy-hub/internal/model"
)

// Kind is the recognized request category.
type Kind string

const (
	// KindPostListing asks the agent to publish a marketplace listing.
	KindPostListing Kind = "post_listing"
	// KindUnknown is everything the classifier does not recognize.
	KindUnknown Kind = "unknown"
)

// ListingRequest holds the extracted parameters of a post-listing request.
// Price is in cents; zero means the price was absent.
type ListingRequest struct {
	Name        string
	Description string
	Price       int64
}

// MissingFields names the required parameters absent from the request.
func (r *ListingRequest) MissingFields() []string {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "item name")
	}
	if r.Price == 0 {
		missing = append(missing, "price")
	}
	return missing
}

// Result is a classified request.
type Result struct {
	Kind    Kind
	Listing *ListingRequest
}

// Classifier maps free text to a recognized intent.
type Classifier interface {
	Classify(query string) Result
}

// PatternClassifier recognizes requests shaped like
// `post a listing for "name", description "desc", price 20.00`.
type PatternClassifier struct{}

var (
	nameRe  = regexp.MustCompile(`for\s+['"]([^'"]+)['"]`)
	descRe  = regexp.MustCompile(`description\s+['"]([^'"]+)['"]`)
	priceRe = regexp.MustCompile(`price\s+([0-9.]+)`)
)

// Classify implements Classifier.
func (PatternClassifier) Classify(query string) Result {
	lower := strings.ToLower(query)
	if !strings.Contains(lower, "post") || !strings.Contains(lower, "listing") {
		return Result{Kind: KindUnknown}
	}

	req := &ListingRequest{}
	if m := nameRe.FindStringSubmatch(query); m != nil {
		req.Name = m[1]
	}
	if m := descRe.FindStringSubmatch(query); m != nil {
		req.Description = m[1]
	}
	if m := priceRe.FindStringSubmatch(query); m != nil {
		req.Price = model.ParseCents(m[1])
	}
	return Result{Kind: KindPostListing, Listing: req}
}
