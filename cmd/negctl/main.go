// negctl is a CLI tool for exercising the negotiation API.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	negctl listing -backend URL -name NAME -price DOLLARS [-desc TEXT] [-seller ID]
//	negctl offer   -backend URL -product ID -amount DOLLARS [-buyer ID] [-seller ID]
//	negctl get     -backend URL -id <negotiation-id> -user ID
//	negctl respond -backend URL -id <negotiation-id> -action accept|reject|counter [-amount DOLLARS] [-reason TEXT] [-seller ID]
//	negctl accept  -backend URL -id <negotiation-id> [-buyer ID]
//	negctl list    -backend URL [-buyer ID | -seller ID [-status STATUS]]
//
// Examples:
//
//	LST=$(negctl listing -backend http://localhost:8050 -name "Handmade Vase" -price 100 -q)
//	NEG=$(negctl offer -backend http://localhost:8050 -product $LST -amount 70 -q)
//	negctl respond -backend http://localhost:8050 -id $NEG -action counter -amount 90
//	negctl accept -backend http://localhost:8050 -id $NEG
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	backendURL string
	quiet      bool
	verbose    bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "listing":
		runListing(args)
	case "offer":
		runOffer(args)
	case "get":
		runGet(args)
	case "respond":
		runRespond(args)
	case "accept":
		runAccept(args)
	case "list":
		runList(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		printError("unknown command: %s", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%snegctl%s - negotiation API test client

Usage:
  negctl listing -backend URL -name NAME -price DOLLARS [-desc TEXT] [-seller ID]
  negctl offer   -backend URL -product ID -amount DOLLARS [-buyer ID] [-seller ID]
  negctl get     -backend URL -id ID -user USER
  negctl respond -backend URL -id ID -action accept|reject|counter [-amount DOLLARS] [-reason TEXT] [-seller ID]
  negctl accept  -backend URL -id ID [-buyer ID]
  negctl list    -backend URL [-buyer ID | -seller ID [-status STATUS]]

Global flags:
  -backend URL   backend base URL (default http://localhost:8050)
  -q             quiet: print only the created resource ID
  -v             verbose: print requests and responses
`, colorBold, colorReset)
}

// addCommonFlags registers the flags every command shares.
func addCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&backendURL, "backend", "http://localhost:8050", "backend base URL")
	fs.BoolVar(&quiet, "q", false, "print only the resulting ID")
	fs.BoolVar(&verbose, "v", false, "print requests and responses")
}

func runListing(args []string) {
	fs := flag.NewFlagSet("listing", flag.ExitOnError)
	addCommonFlags(fs)
	name := fs.String("name", "", "listing title (required)")
	desc := fs.String("desc", "", "listing description")
	price := fs.Float64("price", 0, "asking price in dollars (required)")
	sellerID := fs.String("seller", "seller-001", "seller user ID")
	fs.Parse(args)

	if *name == "" || *price <= 0 {
		fatal("listing requires -name and a positive -price")
	}

	resp, err := doRequest(http.MethodPost, "/api/listings", map[string]interface{}{
		"name": *name, "description": *desc, "price": *price, "seller_id": *sellerID,
	})
	if err != nil {
		fatal("%v", err)
	}

	id, _ := resp["id"].(string)
	if quiet {
		fmt.Println(id)
		return
	}
	printSuccess("listing %s created at $%.2f", id, *price)
}

func runOffer(args []string) {
	fs := flag.NewFlagSet("offer", flag.ExitOnError)
	addCommonFlags(fs)
	productID := fs.String("product", "", "listing ID (required)")
	amount := fs.Float64("amount", 0, "offer in dollars (required)")
	buyerID := fs.String("buyer", "buyer-001", "buyer user ID")
	sellerID := fs.String("seller", "seller-001", "seller user ID")
	title := fs.String("title", "", "product title shown in the thread")
	fs.Parse(args)

	if *productID == "" || *amount <= 0 {
		fatal("offer requires -product and a positive -amount")
	}

	resp, err := doRequest(http.MethodPost, "/api/negotiations", map[string]interface{}{
		"product_id": *productID, "buyer_id": *buyerID, "seller_id": *sellerID,
		"product_title": *title, "offer_amount": *amount,
	})
	if err != nil {
		fatal("%v", err)
	}

	neg, _ := resp["negotiation"].(map[string]interface{})
	id, _ := neg["id"].(string)
	if quiet {
		fmt.Println(id)
		return
	}
	printSuccess("negotiation %s opened at $%.2f", id, *amount)
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	addCommonFlags(fs)
	id := fs.String("id", "", "negotiation ID (required)")
	userID := fs.String("user", "", "acting user ID (required)")
	fs.Parse(args)

	if *id == "" || *userID == "" {
		fatal("get requires -id and -user")
	}

	resp, err := doRequest(http.MethodGet,
		fmt.Sprintf("/api/negotiations/%s?user_id=%s", *id, *userID), nil)
	if err != nil {
		fatal("%v", err)
	}

	neg, _ := resp["negotiation"].(map[string]interface{})
	printInfo("%s%s%s  status=%s  last_offer=%s",
		colorBold, neg["id"], colorReset, statusColored(neg["status"]), formatDollars(neg["last_offer_amount"]))

	msgs, _ := resp["messages"].([]interface{})
	for _, raw := range msgs {
		m, _ := raw.(map[string]interface{})
		line := fmt.Sprintf("  [%s] %s", m["sender_type"], m["content"])
		if amt, ok := m["offer_amount"]; ok {
			line += fmt.Sprintf(" %s(%s)%s", colorYellow, formatDollars(amt), colorReset)
		}
		fmt.Println(line)
	}
}

func runRespond(args []string) {
	fs := flag.NewFlagSet("respond", flag.ExitOnError)
	addCommonFlags(fs)
	id := fs.String("id", "", "negotiation ID (required)")
	sellerID := fs.String("seller", "seller-001", "seller user ID")
	action := fs.String("action", "", "accept, reject, or counter (required)")
	amount := fs.Float64("amount", 0, "counter price in dollars")
	reason := fs.String("reason", "", "rejection reason relayed to the buyer")
	fs.Parse(args)

	if *id == "" || *action == "" {
		fatal("respond requires -id and -action")
	}

	body := map[string]interface{}{"action": *action}
	if *action == "counter" {
		if *amount <= 0 {
			fatal("counter requires a positive -amount")
		}
		body["counter_amount"] = *amount
	}
	if *reason != "" {
		body["reason"] = *reason
	}

	resp, err := doRequest(http.MethodPost,
		fmt.Sprintf("/api/seller/%s/negotiations/%s/respond", *sellerID, *id), body)
	if err != nil {
		fatal("%v", err)
	}

	neg, _ := resp["negotiation"].(map[string]interface{})
	printSuccess("negotiation %s is now %s", *id, statusColored(neg["status"]))
}

func runAccept(args []string) {
	fs := flag.NewFlagSet("accept", flag.ExitOnError)
	addCommonFlags(fs)
	id := fs.String("id", "", "negotiation ID (required)")
	buyerID := fs.String("buyer", "buyer-001", "buyer user ID")
	fs.Parse(args)

	if *id == "" {
		fatal("accept requires -id")
	}

	resp, err := doRequest(http.MethodPost,
		fmt.Sprintf("/api/negotiations/%s/accept", *id),
		map[string]interface{}{"buyer_id": *buyerID})
	if err != nil {
		fatal("%v", err)
	}

	neg, _ := resp["negotiation"].(map[string]interface{})
	printSuccess("deal closed at %s", formatDollars(neg["last_offer_amount"]))
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	addCommonFlags(fs)
	buyerID := fs.String("buyer", "", "list this buyer's negotiations")
	sellerID := fs.String("seller", "", "list this seller's negotiations")
	status := fs.String("status", "", "filter seller view by status")
	fs.Parse(args)

	var path string
	switch {
	case *buyerID != "":
		path = "/api/negotiations?buyer_id=" + *buyerID
	case *sellerID != "":
		path = "/api/seller/" + *sellerID + "/negotiations"
		if *status != "" {
			path += "?status=" + *status
		}
	default:
		fatal("list requires -buyer or -seller")
	}

	resp, err := doRequest(http.MethodGet, path, nil)
	if err != nil {
		fatal("%v", err)
	}

	negs, _ := resp["negotiations"].([]interface{})
	if len(negs) == 0 {
		printInfo("no negotiations")
		return
	}
	for _, raw := range negs {
		n, _ := raw.(map[string]interface{})
		fmt.Printf("%s%s%s  %s  %s  %s\n",
			colorBold, n["id"], colorReset,
			statusColored(n["status"]), formatDollars(n["last_offer_amount"]), n["product_id"])
	}
}

// doRequest performs one API call and decodes the JSON response.
// Error responses are converted to readable errors using the backend's
// {"error": {code, message}} envelope.
func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reader io.Reader
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	url := strings.TrimRight(backendURL, "/") + path
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Agent-Client", `name="negctl"`)

	if verbose {
		printRequest(method, path, raw)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if verbose {
		printResponse(resp.StatusCode, respBody, time.Since(start))
	}

	var decoded map[string]interface{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
	}

	if resp.StatusCode >= 400 {
		if errObj, ok := decoded["error"].(map[string]interface{}); ok {
			return nil, fmt.Errorf("%v: %v", errObj["code"], errObj["message"])
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return decoded, nil
}

func printRequest(method, path string, body []byte) {
	fmt.Fprintf(os.Stderr, "%s→ %s %s%s\n", colorGray, method, path, colorReset)
	if len(body) > 0 {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	color := colorGreen
	if status >= 400 {
		color = colorRed
	}
	fmt.Fprintf(os.Stderr, "%s← %d (%s)%s\n", color, status, duration.Round(time.Millisecond), colorReset)
	if len(body) > 0 {
		printJSON(body, "  ")
	}
}

func printJSON(data []byte, prefix string) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, prefix, "  "); err != nil {
		fmt.Fprintf(os.Stderr, "%s%s\n", prefix, data)
		return
	}
	fmt.Fprintf(os.Stderr, "%s%s%s%s\n", colorGray, prefix, buf.String(), colorReset)
}

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✓%s "+format+"\n", append([]interface{}{colorGreen, colorReset}, args...)...)
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗%s "+format+"\n", append([]interface{}{colorRed, colorReset}, args...)...)
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s·%s "+format+"\n", append([]interface{}{colorCyan, colorReset}, args...)...)
}

// statusColored renders a negotiation status with a color cue.
func statusColored(v interface{}) string {
	s, _ := v.(string)
	switch s {
	case "accepted":
		return colorGreen + s + colorReset
	case "rejected":
		return colorRed + s + colorReset
	case "countered":
		return colorYellow + s + colorReset
	default:
		return s
	}
}

// formatDollars renders a decimal-dollar JSON number.
func formatDollars(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("$%.2f", f)
}

func fatal(format string, args ...interface{}) {
	printError(format, args...)
	os.Exit(1)
}
