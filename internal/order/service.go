package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/catalog"
)

var ErrItemNotFound = errors.New("item not found")

// PaymentOption is the provider code posted by the checkout form.
type PaymentOption string

const (
	Stripe PaymentOption = "S"
	PayPal PaymentOption = "P"
)

func ParsePaymentOption(code string) (PaymentOption, error) {
	switch PaymentOption(code) {
	case Stripe, PayPal:
		return PaymentOption(code), nil
	}
	return "", ErrInvalidPaymentOption
}

// PaymentOptionFromSlug maps the payment path segment back to the option.
func PaymentOptionFromSlug(slug string) (PaymentOption, error) {
	switch strings.ToLower(slug) {
	case "stripe":
		return Stripe, nil
	case "paypal":
		return PayPal, nil
	}
	return "", ErrInvalidPaymentOption
}

// Slug is the path segment of the payment view for the option.
func (p PaymentOption) Slug() string {
	switch p {
	case Stripe:
		return "stripe"
	case PayPal:
		return "paypal"
	}
	return ""
}

// CartChange tells what AddToCart did.
type CartChange int

const (
	Added CartChange = iota + 1
	QuantityUpdated
)

// Charger takes the money for an order.
type Charger interface {
	Charge(ctx context.Context, option PaymentOption, amount decimal.Decimal) (reference string, err error)
}

// DevCharger accepts every charge and issues a random reference.
type DevCharger struct{}

func (DevCharger) Charge(ctx context.Context, option PaymentOption, amount decimal.Decimal) (string, error) {
	ref := option.Slug() + "_" + uuid.NewString()
	slog.InfoContext(ctx, "development charge accepted", "provider", option.Slug(), "amount", amount.StringFixed(2), "reference", ref)
	return ref, nil
}

// ItemFinder resolves item slugs. catalog.Repository implements it.
type ItemFinder interface {
	BySlug(ctx context.Context, slug string) (*catalog.Item, error)
}

type Service struct {
	store   Store
	items   ItemFinder
	charger Charger
	now     func() time.Time
}

func NewService(store Store, items ItemFinder, charger Charger) *Service {
	if charger == nil {
		charger = DevCharger{}
	}
	return &Service{store: store, items: items, charger: charger, now: time.Now}
}

func (s *Service) item(ctx context.Context, slug string) (*catalog.Item, error) {
	it, err := s.items.BySlug(ctx, slug)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	return it, err
}

// AddToCart puts one unit of the item into the user's cart, creating the cart
// when the user has none.
func (s *Service) AddToCart(ctx context.Context, userID int64, slug string) (CartChange, error) {
	it, err := s.item(ctx, slug)
	if err != nil {
		return 0, err
	}
	var change CartChange
	err = s.store.InUserTx(ctx, userID, func(tx Tx) error {
		o, err := tx.ActiveOrder(ctx)
		if errors.Is(err, ErrNoActiveOrder) {
			o, err = tx.CreateOrder(ctx, s.now().UTC())
		}
		if err != nil {
			return err
		}
		line, err := tx.Line(ctx, o.ID, it.ID)
		if errors.Is(err, ErrNotInCart) {
			change = Added
			return tx.AddLine(ctx, o.ID, it.ID)
		}
		if err != nil {
			return err
		}
		change = QuantityUpdated
		return tx.AdjustQuantity(ctx, line.ID, 1)
	})
	if err != nil {
		return 0, fmt.Errorf("add to cart: %w", err)
	}
	return change, nil
}

// RemoveFromCart drops the item's line whatever its quantity.
func (s *Service) RemoveFromCart(ctx context.Context, userID int64, slug string) error {
	it, err := s.item(ctx, slug)
	if err != nil {
		return err
	}
	return s.store.InUserTx(ctx, userID, func(tx Tx) error {
		o, err := tx.ActiveOrder(ctx)
		if err != nil {
			return err
		}
		line, err := tx.Line(ctx, o.ID, it.ID)
		if err != nil {
			return err
		}
		return tx.DeleteLine(ctx, line.ID)
	})
}

// RemoveSingleItem takes one unit off the item's line. The last unit removes
// the line.
func (s *Service) RemoveSingleItem(ctx context.Context, userID int64, slug string) error {
	it, err := s.item(ctx, slug)
	if err != nil {
		return err
	}
	return s.store.InUserTx(ctx, userID, func(tx Tx) error {
		o, err := tx.ActiveOrder(ctx)
		if err != nil {
			return err
		}
		line, err := tx.Line(ctx, o.ID, it.ID)
		if err != nil {
			return err
		}
		if line.Quantity > 1 {
			return tx.AdjustQuantity(ctx, line.ID, -1)
		}
		return tx.DeleteLine(ctx, line.ID)
	})
}

// AddCoupon attaches the coupon with code to the cart, replacing any previous one.
func (s *Service) AddCoupon(ctx context.Context, userID int64, code string) error {
	return s.store.InUserTx(ctx, userID, func(tx Tx) error {
		o, err := tx.ActiveOrder(ctx)
		if err != nil {
			return err
		}
		c, err := tx.CouponByCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		return tx.SetCoupon(ctx, o.ID, c.ID)
	})
}

// Summary returns the user's cart or ErrNoActiveOrder.
func (s *Service) Summary(ctx context.Context, userID int64) (*Order, error) {
	return s.store.ActiveOrder(ctx, userID)
}

// Checkout stores a new billing address on the cart and returns the chosen
// payment option. An invalid option is rejected before anything is written.
func (s *Service) Checkout(ctx context.Context, userID int64, form CheckoutForm) (PaymentOption, error) {
	option, err := ParsePaymentOption(form.PaymentOption)
	if err != nil {
		return "", err
	}
	err = s.store.InUserTx(ctx, userID, func(tx Tx) error {
		o, err := tx.ActiveOrder(ctx)
		if err != nil {
			return err
		}
		addr := &BillingAddress{
			StreetAddress:    form.StreetAddress,
			ApartmentAddress: form.ApartmentAddress,
			Country:          strings.ToUpper(form.Country),
			Zip:              form.Zip,
			AddressType:      AddressTypeBilling,
		}
		if err := tx.InsertBillingAddress(ctx, addr); err != nil {
			return err
		}
		return tx.AttachBillingAddress(ctx, o.ID, addr.ID)
	})
	if err != nil {
		return "", err
	}
	return option, nil
}

// PaymentContext returns the cart for the payment view. The cart must have a
// billing address.
func (s *Service) PaymentContext(ctx context.Context, userID int64) (*Order, error) {
	o, err := s.store.ActiveOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	if o.BillingAddress == nil {
		return nil, ErrNoBillingAddress
	}
	return o, nil
}

// CompletePayment charges the cart total and closes the cart. The user has no
// active order afterwards.
func (s *Service) CompletePayment(ctx context.Context, userID int64, option PaymentOption) (*Order, error) {
	var done *Order
	err := s.store.InUserTx(ctx, userID, func(tx Tx) error {
		o, err := tx.ActiveOrder(ctx)
		if err != nil {
			return err
		}
		if o.BillingAddress == nil {
			return ErrNoBillingAddress
		}
		amount := o.Total()
		ref, err := s.charger.Charge(ctx, option, amount)
		if err != nil {
			return fmt.Errorf("charge: %w", err)
		}
		p := &Payment{Provider: option.Slug(), Reference: ref, Amount: amount}
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}
		if err := tx.MarkOrdered(ctx, o.ID, p.ID); err != nil {
			return err
		}
		o.Ordered = true
		o.PaymentID = &p.ID
		o.Payment = p
		for i := range o.Lines {
			o.Lines[i].Ordered = true
		}
		done = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order paid", "order_id", done.ID, "user_id", userID, "amount", done.Payment.Amount.StringFixed(2))
	return done, nil
}

// History lists the user's completed orders, newest first.
func (s *Service) History(ctx context.Context, userID int64, limit, offset int) ([]Order, error) {
	return s.store.ListOrdered(ctx, userID, limit, offset)
}
