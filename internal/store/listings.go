package store

import (
	"context"
	"database/sql"
	"fmt"

	"tetsy-hub/internal/model"
)

// CreateListing inserts a catalog record. The caller supplies the ID.
func (s *Store) CreateListing(ctx context.Context, l *model.Listing) error {
	l.CreatedAt = now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (id, name, description, price, seller_id, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Description, l.Price, l.SellerID, l.Image, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting listing: %w", err)
	}
	return nil
}

// GetListing returns a listing by id, or NotFoundError.
func (s *Store) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, seller_id, image, created_at
		FROM listings WHERE id = ?`, id)

	var l model.Listing
	var image []byte
	err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Price, &l.SellerID, &image, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.NewNotFoundError("listing")
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing: %w", err)
	}
	l.Image = image
	return &l, nil
}

// ListListings returns all listings, optionally filtered by seller.
func (s *Store) ListListings(ctx context.Context, sellerID string) ([]model.Listing, error) {
	query := `SELECT id, name, description, price, seller_id, created_at FROM listings`
	args := []any{}
	if sellerID != "" {
		query += ` WHERE seller_id = ?`
		args = append(args, sellerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Price, &l.SellerID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
