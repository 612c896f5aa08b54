package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tetsy-hub/internal/model"
)

const negotiationColumns = `id, product_id, buyer_id, seller_id, product_title,
	product_image, status, last_offer_amount, created_at, updated_at, archived`

const messageColumns = `id, negotiation_id, sender_id, sender_type, content,
	type, offer_amount, timestamp, read_by_seller, read_by_buyer`

// CreateNegotiation inserts a new negotiation together with its initial offer
// message in one transaction. The caller supplies IDs from NewID; timestamps
// are assigned here.
func (s *Store) CreateNegotiation(ctx context.Context, n *model.Negotiation, initial *model.Message) error {
	ts := now()
	n.CreatedAt = ts
	n.UpdatedAt = ts
	initial.Timestamp = ts

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO negotiations
			(id, product_id, buyer_id, seller_id, product_title, product_image,
			 status, last_offer_amount, created_at, updated_at, archived)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.ProductID, n.BuyerID, n.SellerID, n.ProductTitle, n.ProductImage,
			n.Status, n.LastOfferAmount, n.CreatedAt, n.UpdatedAt, n.Archived,
		)
		if err != nil {
			return fmt.Errorf("inserting negotiation: %w", err)
		}
		return insertMessage(ctx, tx, initial)
	})
}

// GetNegotiation returns a negotiation by id, or NotFoundError.
func (s *Store) GetNegotiation(ctx context.Context, id string) (*model.Negotiation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+negotiationColumns+` FROM negotiations WHERE id = ?`, id)
	n, err := scanNegotiation(row)
	if err == sql.ErrNoRows {
		return nil, model.NewNotFoundError("negotiation")
	}
	if err != nil {
		return nil, fmt.Errorf("querying negotiation: %w", err)
	}
	return n, nil
}

// ListBuyerNegotiations returns the buyer's non-archived threads,
// most recently updated first.
func (s *Store) ListBuyerNegotiations(ctx context.Context, buyerID string) ([]model.Negotiation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+negotiationColumns+` FROM negotiations
		WHERE buyer_id = ? AND archived = FALSE
		ORDER BY updated_at DESC, id DESC`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("querying buyer negotiations: %w", err)
	}
	return collectNegotiations(rows)
}

// ListSellerNegotiations returns the seller's threads, optionally filtered by
// status. The seller view ignores the buyer-side archived flag.
func (s *Store) ListSellerNegotiations(ctx context.Context, sellerID string, status model.NegotiationStatus) ([]model.Negotiation, error) {
	query := `SELECT ` + negotiationColumns + ` FROM negotiations WHERE seller_id = ?`
	args := []any{sellerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY updated_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying seller negotiations: %w", err)
	}
	return collectNegotiations(rows)
}

// ListMessages returns the full ordered thread for a negotiation.
func (s *Store) ListMessages(ctx context.Context, negotiationID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE negotiation_id = ?
		ORDER BY timestamp ASC, id ASC`, negotiationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var amount sql.NullInt64
		if err := rows.Scan(&m.ID, &m.NegotiationID, &m.SenderID, &m.SenderType,
			&m.Content, &m.Type, &amount, &m.Timestamp, &m.ReadBySeller, &m.ReadByBuyer); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if amount.Valid {
			v := amount.Int64
			m.OfferAmount = &v
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// StatusUpdate describes the negotiation-side effect of an appended message.
// A nil LastOfferAmount leaves last_offer_amount untouched.
type StatusUpdate struct {
	Status          model.NegotiationStatus
	LastOfferAmount *int64
}

// AppendMessage appends a message and applies the matching status update
// atomically. The status update is guarded: if the negotiation has already
// reached a terminal state the whole transaction fails with InvalidStateError
// and the message is not persisted.
//
// Pass a nil update for plain chat messages; the guarded UPDATE then only
// bumps updated_at, still refusing terminal threads.
func (s *Store) AppendMessage(ctx context.Context, msg *model.Message, update *StatusUpdate) error {
	msg.Timestamp = now()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertMessage(ctx, tx, msg); err != nil {
			return err
		}
		if update == nil {
			return guardedTouch(ctx, tx, msg.NegotiationID, msg.Timestamp)
		}
		return guardedStatusUpdate(ctx, tx, msg.NegotiationID, update, msg.Timestamp)
	})
}

// SetStatus transitions a negotiation without appending a message
// (seller accept/reject, buyer accept). Guarded against terminal states.
func (s *Store) SetStatus(ctx context.Context, negotiationID string, update StatusUpdate) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return guardedStatusUpdate(ctx, tx, negotiationID, &update, now())
	})
}

// Archive hides a negotiation from the buyer's list view. Allowed in any
// state; archiving is a visibility flag, not a transition.
func (s *Store) Archive(ctx context.Context, negotiationID, buyerID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE negotiations SET archived = TRUE
		WHERE id = ? AND buyer_id = ?`, negotiationID, buyerID)
	if err != nil {
		return fmt.Errorf("archiving negotiation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewNotFoundError("negotiation")
	}
	return nil
}

// UnreadSellerCount returns the number of messages across all of the
// seller's negotiations not yet read by the seller.
func (s *Store) UnreadSellerCount(ctx context.Context, sellerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE negotiation_id IN (SELECT id FROM negotiations WHERE seller_id = ?)
		AND read_by_seller = FALSE`, sellerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return count, nil
}

// MarkSellerRead marks every message in a negotiation as read by the seller.
func (s *Store) MarkSellerRead(ctx context.Context, negotiationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE messages SET read_by_seller = TRUE
		WHERE negotiation_id = ?`, negotiationID)
	if err != nil {
		return fmt.Errorf("marking messages read: %w", err)
	}
	return nil
}

// === internals ===

func insertMessage(ctx context.Context, tx *sql.Tx, m *model.Message) error {
	var amount any
	if m.OfferAmount != nil {
		amount = *m.OfferAmount
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO messages
		(id, negotiation_id, sender_id, sender_type, content, type,
		 offer_amount, timestamp, read_by_seller, read_by_buyer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.NegotiationID, m.SenderID, m.SenderType, m.Content, m.Type,
		amount, m.Timestamp, m.ReadBySeller, m.ReadByBuyer,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// guardedStatusUpdate applies the transition only if the negotiation is not
// already terminal. RowsAffected == 0 on an existing negotiation means the
// guard rejected it.
func guardedStatusUpdate(ctx context.Context, tx *sql.Tx, id string, update *StatusUpdate, ts time.Time) error {
	var res sql.Result
	var err error
	if update.LastOfferAmount != nil {
		res, err = tx.ExecContext(ctx, `
			UPDATE negotiations
			SET status = ?, last_offer_amount = ?, updated_at = ?
			WHERE id = ? AND status NOT IN ('accepted', 'rejected')`,
			update.Status, *update.LastOfferAmount, ts, id)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE negotiations
			SET status = ?, updated_at = ?
			WHERE id = ? AND status NOT IN ('accepted', 'rejected')`,
			update.Status, ts, id)
	}
	if err != nil {
		return fmt.Errorf("updating negotiation status: %w", err)
	}
	return checkGuard(ctx, tx, res, id)
}

// guardedTouch bumps updated_at for a plain message append.
func guardedTouch(ctx context.Context, tx *sql.Tx, id string, ts time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE negotiations SET updated_at = ?
		WHERE id = ? AND status NOT IN ('accepted', 'rejected')`, ts, id)
	if err != nil {
		return fmt.Errorf("touching negotiation: %w", err)
	}
	return checkGuard(ctx, tx, res, id)
}

func checkGuard(ctx context.Context, tx *sql.Tx, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	// Distinguish "unknown id" from "terminal state" for the caller.
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM negotiations WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking negotiation existence: %w", err)
	}
	if exists == 0 {
		return model.NewNotFoundError("negotiation")
	}
	return model.NewInvalidStateError("negotiation is already accepted or rejected")
}

func scanNegotiation(row *sql.Row) (*model.Negotiation, error) {
	var n model.Negotiation
	err := row.Scan(&n.ID, &n.ProductID, &n.BuyerID, &n.SellerID, &n.ProductTitle,
		&n.ProductImage, &n.Status, &n.LastOfferAmount, &n.CreatedAt, &n.UpdatedAt, &n.Archived)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func collectNegotiations(rows *sql.Rows) ([]model.Negotiation, error) {
	defer rows.Close()
	var out []model.Negotiation
	for rows.Next() {
		var n model.Negotiation
		if err := rows.Scan(&n.ID, &n.ProductID, &n.BuyerID, &n.SellerID, &n.ProductTitle,
			&n.ProductImage, &n.Status, &n.LastOfferAmount, &n.CreatedAt, &n.UpdatedAt, &n.Archived); err != nil {
			return nil, fmt.Errorf("scanning negotiation: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
