package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is one item of an order together with the item fields the cart views need.
type Line struct {
	ID       int64 `db:"id" json:"id"`
	OrderID  int64 `db:"order_id" json:"order_id"`
	ItemID   int64 `db:"item_id" json:"item_id"`
	Quantity int   `db:"quantity" json:"quantity"`
	Ordered  bool  `db:"ordered" json:"ordered"`

	ItemTitle         string              `db:"item_title" json:"item_title"`
	ItemSlug          string              `db:"item_slug" json:"item_slug"`
	ItemPrice         decimal.Decimal     `db:"item_price" json:"item_price"`
	ItemDiscountPrice decimal.NullDecimal `db:"item_discount_price" json:"item_discount_price"`
	ItemImage         string              `db:"item_image" json:"item_image,omitempty"`
}

func (l Line) TotalPrice() decimal.Decimal {
	return l.ItemPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DiscountTotalPrice is zero when the item has no discount price.
func (l Line) DiscountTotalPrice() decimal.Decimal {
	if !l.ItemDiscountPrice.Valid {
		return decimal.Zero
	}
	return l.ItemDiscountPrice.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) AmountSaved() decimal.Decimal {
	if !l.ItemDiscountPrice.Valid {
		return decimal.Zero
	}
	return l.TotalPrice().Sub(l.DiscountTotalPrice())
}

func (l Line) FinalPrice() decimal.Decimal {
	if l.ItemDiscountPrice.Valid {
		return l.DiscountTotalPrice()
	}
	return l.TotalPrice()
}

type Coupon struct {
	ID     int64           `db:"id" json:"id"`
	Code   string          `db:"code" json:"code"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

const AddressTypeBilling = "B"

type BillingAddress struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"-"`
	StreetAddress    string    `db:"street_address" json:"street_address"`
	ApartmentAddress string    `db:"apartment_address" json:"apartment_address"`
	Country          string    `db:"country" json:"country"`
	Zip              string    `db:"zip" json:"zip"`
	AddressType      string    `db:"address_type" json:"address_type"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type Payment struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"-"`
	Provider  string          `db:"provider" json:"provider"`
	Reference string          `db:"reference" json:"reference"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type Order struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"-"`
	Ordered          bool      `db:"ordered" json:"ordered"`
	OrderedDate      time.Time `db:"ordered_date" json:"ordered_date"`
	BillingAddressID *int64    `db:"billing_address_id" json:"-"`
	CouponID         *int64    `db:"coupon_id" json:"-"`
	PaymentID        *int64    `db:"payment_id" json:"-"`

	Lines          []Line          `db:"-" json:"items"`
	Coupon         *Coupon         `db:"-" json:"coupon,omitempty"`
	BillingAddress *BillingAddress `db:"-" json:"billing_address,omitempty"`
	Payment        *Payment        `db:"-" json:"payment,omitempty"`
}

// Total is the sum of the line final prices minus the coupon amount, never
// below zero.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.FinalPrice())
	}
	if o.Coupon != nil {
		total = total.Sub(o.Coupon.Amount)
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
