package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound             = errors.New("order not found")
	ErrNoActiveOrder        = errors.New("no active order")
	ErrNotInCart            = errors.New("item not in cart")
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrDuplicateCoupon      = errors.New("coupon code already exists")
	ErrNoBillingAddress     = errors.New("no billing address")
	ErrInvalidPaymentOption = errors.New("invalid payment option")
)

// Tx is a unit of work on one user's cart. Every call runs inside the same
// database transaction, which holds the user's cart lock.
type Tx interface {
	// ActiveOrder loads the unordered order with lines, coupon and billing address.
	ActiveOrder(ctx context.Context) (*Order, error)
	CreateOrder(ctx context.Context, orderedDate time.Time) (*Order, error)
	Line(ctx context.Context, orderID, itemID int64) (*Line, error)
	AddLine(ctx context.Context, orderID, itemID int64) error
	AdjustQuantity(ctx context.Context, lineID int64, delta int) error
	DeleteLine(ctx context.Context, lineID int64) error
	CouponByCode(ctx context.Context, code string) (*Coupon, error)
	SetCoupon(ctx context.Context, orderID, couponID int64) error
	InsertBillingAddress(ctx context.Context, a *BillingAddress) error
	AttachBillingAddress(ctx context.Context, orderID, addressID int64) error
	InsertPayment(ctx context.Context, p *Payment) error
	MarkOrdered(ctx context.Context, orderID, paymentID int64) error
}

type Store interface {
	// InUserTx runs fn in a transaction serialized against every other
	// InUserTx call for the same user. fn's error rolls the transaction back.
	InUserTx(ctx context.Context, userID int64, fn func(Tx) error) error
	ActiveOrder(ctx context.Context, userID int64) (*Order, error)
	ListOrdered(ctx context.Context, userID int64, limit, offset int) ([]Order, error)
	CreateCoupon(ctx context.Context, c *Coupon) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PGRepo) InUserTx(ctx context.Context, userID int64, fn func(Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return fmt.Errorf("lock cart: %w", err)
	}
	if err := fn(&pgTx{tx: tx, userID: userID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) ActiveOrder(ctx context.Context, userID int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pgLoadActive(ctx, r.db, userID)
}

func (r *PGRepo) ListOrdered(ctx context.Context, userID int64, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, ordered, ordered_date, billing_address_id, coupon_id, payment_id
		FROM orders WHERE user_id=$1 AND ordered
		ORDER BY ordered_date DESC, id DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := pgLoadRelations(ctx, r.db, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PGRepo) CreateCoupon(ctx context.Context, c *Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO coupons (code, amount) VALUES ($1, $2::text::numeric) RETURNING id
	`, c.Code, c.Amount).Scan(&c.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCoupon
	}
	return err
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Ordered, &o.OrderedDate, &o.BillingAddressID, &o.CouponID, &o.PaymentID)
	return &o, err
}

func pgLoadActive(ctx context.Context, q pgQuerier, userID int64) (*Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, `
		SELECT id, user_id, ordered, ordered_date, billing_address_id, coupon_id, payment_id
		FROM orders WHERE user_id=$1 AND NOT ordered
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveOrder
	}
	if err != nil {
		return nil, err
	}
	if err := pgLoadRelations(ctx, q, o); err != nil {
		return nil, err
	}
	return o, nil
}

func pgLoadRelations(ctx context.Context, q pgQuerier, o *Order) error {
	rows, err := q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.item_id, oi.quantity, oi.ordered,
		       i.title, i.slug, i.price::text, i.discount_price::text, i.image
		FROM order_items oi JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id=$1 ORDER BY oi.id
	`, o.ID)
	if err != nil {
		return err
	}
	o.Lines = nil
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Quantity, &l.Ordered,
			&l.ItemTitle, &l.ItemSlug, &l.ItemPrice, &l.ItemDiscountPrice, &l.ItemImage); err != nil {
			rows.Close()
			return err
		}
		o.Lines = append(o.Lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if o.CouponID != nil {
		var c Coupon
		if err := q.QueryRow(ctx, `SELECT id, code, amount::text FROM coupons WHERE id=$1`, *o.CouponID).
			Scan(&c.ID, &c.Code, &c.Amount); err != nil {
			return fmt.Errorf("load coupon: %w", err)
		}
		o.Coupon = &c
	}
	if o.BillingAddressID != nil {
		var a BillingAddress
		if err := q.QueryRow(ctx, `
			SELECT id, user_id, street_address, apartment_address, country, zip, address_type, created_at
			FROM billing_addresses WHERE id=$1
		`, *o.BillingAddressID).Scan(&a.ID, &a.UserID, &a.StreetAddress, &a.ApartmentAddress,
			&a.Country, &a.Zip, &a.AddressType, &a.CreatedAt); err != nil {
			return fmt.Errorf("load billing address: %w", err)
		}
		o.BillingAddress = &a
	}
	if o.PaymentID != nil {
		var p Payment
		if err := q.QueryRow(ctx, `
			SELECT id, user_id, provider, reference, amount::text, created_at FROM payments WHERE id=$1
		`, *o.PaymentID).Scan(&p.ID, &p.UserID, &p.Provider, &p.Reference, &p.Amount, &p.CreatedAt); err != nil {
			return fmt.Errorf("load payment: %w", err)
		}
		o.Payment = &p
	}
	return nil
}

type pgTx struct {
	tx     pgx.Tx
	userID int64
}

func (t *pgTx) ActiveOrder(ctx context.Context) (*Order, error) {
	return pgLoadActive(ctx, t.tx, t.userID)
}

func (t *pgTx) CreateOrder(ctx context.Context, orderedDate time.Time) (*Order, error) {
	o := &Order{UserID: t.userID, OrderedDate: orderedDate}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, ordered, ordered_date) VALUES ($1, FALSE, $2) RETURNING id
	`, t.userID, orderedDate).Scan(&o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (t *pgTx) Line(ctx context.Context, orderID, itemID int64) (*Line, error) {
	var l Line
	err := t.tx.QueryRow(ctx, `
		SELECT id, order_id, item_id, quantity, ordered FROM order_items WHERE order_id=$1 AND item_id=$2
	`, orderID, itemID).Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Quantity, &l.Ordered)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotInCart
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *pgTx) AddLine(ctx context.Context, orderID, itemID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items (order_id, user_id, item_id, quantity, ordered) VALUES ($1,$2,$3,1,FALSE)
	`, orderID, t.userID, itemID)
	return err
}

func (t *pgTx) AdjustQuantity(ctx context.Context, lineID int64, delta int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE order_items SET quantity = quantity + $2 WHERE id=$1`, lineID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotInCart
	}
	return nil
}

func (t *pgTx) DeleteLine(ctx context.Context, lineID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE id=$1`, lineID)
	return err
}

func (t *pgTx) CouponByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := t.tx.QueryRow(ctx, `SELECT id, code, amount::text FROM coupons WHERE code=$1`, code).
		Scan(&c.ID, &c.Code, &c.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) SetCoupon(ctx context.Context, orderID, couponID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET coupon_id=$2 WHERE id=$1`, orderID, couponID)
	return err
}

func (t *pgTx) InsertBillingAddress(ctx context.Context, a *BillingAddress) error {
	a.UserID = t.userID
	return t.tx.QueryRow(ctx, `
		INSERT INTO billing_addresses (user_id, street_address, apartment_address, country, zip, address_type)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at
	`, a.UserID, a.StreetAddress, a.ApartmentAddress, a.Country, a.Zip, a.AddressType).Scan(&a.ID, &a.CreatedAt)
}

func (t *pgTx) AttachBillingAddress(ctx context.Context, orderID, addressID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET billing_address_id=$2 WHERE id=$1`, orderID, addressID)
	return err
}

func (t *pgTx) InsertPayment(ctx context.Context, p *Payment) error {
	p.UserID = t.userID
	return t.tx.QueryRow(ctx, `
		INSERT INTO payments (user_id, provider, reference, amount) VALUES ($1,$2,$3,$4::text::numeric)
		RETURNING id, created_at
	`, p.UserID, p.Provider, p.Reference, p.Amount).Scan(&p.ID, &p.CreatedAt)
}

func (t *pgTx) MarkOrdered(ctx context.Context, orderID, paymentID int64) error {
	if _, err := t.tx.Exec(ctx, `UPDATE order_items SET ordered=TRUE WHERE order_id=$1`, orderID); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE orders SET ordered=TRUE, payment_id=$2 WHERE id=$1`, orderID, paymentID)
	return err
}
