package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// LiteRepo is the SQLite Store. The connection is opened with
// _txlock=immediate, so every transaction takes the database write lock on
// BEGIN and cart transactions are serialized.
type LiteRepo struct{ db *sqlx.DB }

func NewLiteRepo(db *sqlx.DB) *LiteRepo { return &LiteRepo{db: db} }

const liteOrderColumns = `id, user_id, ordered, ordered_date, billing_address_id, coupon_id, payment_id`

func (r *LiteRepo) InUserTx(ctx context.Context, userID int64, fn func(Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&liteTx{tx: tx, userID: userID}); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *LiteRepo) ActiveOrder(ctx context.Context, userID int64) (*Order, error) {
	return liteLoadActive(ctx, r.db, userID)
}

func (r *LiteRepo) ListOrdered(ctx context.Context, userID int64, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var out []Order
	if err := r.db.SelectContext(ctx, &out, `
		SELECT `+liteOrderColumns+` FROM orders WHERE user_id = ? AND ordered = 1
		ORDER BY ordered_date DESC, id DESC LIMIT ? OFFSET ?
	`, userID, limit, offset); err != nil {
		return nil, err
	}
	for i := range out {
		if err := liteLoadRelations(ctx, r.db, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *LiteRepo) CreateCoupon(ctx context.Context, c *Coupon) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO coupons (code, amount) VALUES (?, ?)`, c.Code, c.Amount)
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrDuplicateCoupon
	}
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func liteLoadActive(ctx context.Context, q sqlx.QueryerContext, userID int64) (*Order, error) {
	var o Order
	err := sqlx.GetContext(ctx, q, &o, `SELECT `+liteOrderColumns+` FROM orders WHERE user_id = ? AND ordered = 0`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveOrder
	}
	if err != nil {
		return nil, err
	}
	if err := liteLoadRelations(ctx, q, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func liteLoadRelations(ctx context.Context, q sqlx.QueryerContext, o *Order) error {
	o.Lines = nil
	if err := sqlx.SelectContext(ctx, q, &o.Lines, `
		SELECT oi.id, oi.order_id, oi.item_id, oi.quantity, oi.ordered,
		       i.title AS item_title, i.slug AS item_slug, i.price AS item_price,
		       i.discount_price AS item_discount_price, i.image AS item_image
		FROM order_items oi JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = ? ORDER BY oi.id
	`, o.ID); err != nil {
		return err
	}
	if o.CouponID != nil {
		var c Coupon
		if err := sqlx.GetContext(ctx, q, &c, `SELECT id, code, amount FROM coupons WHERE id = ?`, *o.CouponID); err != nil {
			return fmt.Errorf("load coupon: %w", err)
		}
		o.Coupon = &c
	}
	if o.BillingAddressID != nil {
		var a BillingAddress
		if err := sqlx.GetContext(ctx, q, &a, `
			SELECT id, user_id, street_address, apartment_address, country, zip, address_type, created_at
			FROM billing_addresses WHERE id = ?
		`, *o.BillingAddressID); err != nil {
			return fmt.Errorf("load billing address: %w", err)
		}
		o.BillingAddress = &a
	}
	if o.PaymentID != nil {
		var p Payment
		if err := sqlx.GetContext(ctx, q, &p, `
			SELECT id, user_id, provider, reference, amount, created_at FROM payments WHERE id = ?
		`, *o.PaymentID); err != nil {
			return fmt.Errorf("load payment: %w", err)
		}
		o.Payment = &p
	}
	return nil
}

type liteTx struct {
	tx     *sqlx.Tx
	userID int64
}

func (t *liteTx) ActiveOrder(ctx context.Context) (*Order, error) {
	return liteLoadActive(ctx, t.tx, t.userID)
}

func (t *liteTx) CreateOrder(ctx context.Context, orderedDate time.Time) (*Order, error) {
	res, err := t.tx.ExecContext(ctx, `INSERT INTO orders (user_id, ordered, ordered_date) VALUES (?, 0, ?)`,
		t.userID, orderedDate)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Order{ID: id, UserID: t.userID, OrderedDate: orderedDate}, nil
}

func (t *liteTx) Line(ctx context.Context, orderID, itemID int64) (*Line, error) {
	var l Line
	err := t.tx.GetContext(ctx, &l, `
		SELECT id, order_id, item_id, quantity, ordered FROM order_items WHERE order_id = ? AND item_id = ?
	`, orderID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotInCart
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *liteTx) AddLine(ctx context.Context, orderID, itemID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, user_id, item_id, quantity, ordered) VALUES (?, ?, ?, 1, 0)
	`, orderID, t.userID, itemID)
	return err
}

func (t *liteTx) AdjustQuantity(ctx context.Context, lineID int64, delta int) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE order_items SET quantity = quantity + ? WHERE id = ?`, delta, lineID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotInCart
	}
	return nil
}

func (t *liteTx) DeleteLine(ctx context.Context, lineID int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM order_items WHERE id = ?`, lineID)
	return err
}

func (t *liteTx) CouponByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := t.tx.GetContext(ctx, &c, `SELECT id, code, amount FROM coupons WHERE code = ?`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *liteTx) SetCoupon(ctx context.Context, orderID, couponID int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET coupon_id = ? WHERE id = ?`, couponID, orderID)
	return err
}

func (t *liteTx) InsertBillingAddress(ctx context.Context, a *BillingAddress) error {
	a.UserID = t.userID
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO billing_addresses (user_id, street_address, apartment_address, country, zip, address_type)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.UserID, a.StreetAddress, a.ApartmentAddress, a.Country, a.Zip, a.AddressType)
	if err != nil {
		return err
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return t.tx.GetContext(ctx, &a.CreatedAt, `SELECT created_at FROM billing_addresses WHERE id = ?`, a.ID)
}

func (t *liteTx) AttachBillingAddress(ctx context.Context, orderID, addressID int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET billing_address_id = ? WHERE id = ?`, addressID, orderID)
	return err
}

func (t *liteTx) InsertPayment(ctx context.Context, p *Payment) error {
	p.UserID = t.userID
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO payments (user_id, provider, reference, amount) VALUES (?, ?, ?, ?)
	`, p.UserID, p.Provider, p.Reference, p.Amount)
	if err != nil {
		return err
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return t.tx.GetContext(ctx, &p.CreatedAt, `SELECT created_at FROM payments WHERE id = ?`, p.ID)
}

func (t *liteTx) MarkOrdered(ctx context.Context, orderID, paymentID int64) error {
	if _, err := t.tx.ExecContext(ctx, `UPDATE order_items SET ordered = 1 WHERE order_id = ?`, orderID); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET ordered = 1, payment_id = ? WHERE id = ?`, paymentID, orderID)
	return err
}
