package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutForm is the billing address form of the checkout view.
// swagger:model CheckoutForm
type CheckoutForm struct {
	StreetAddress    string `form:"street_address" json:"street_address" binding:"required,max=100" example:"1 Main St"`
	ApartmentAddress string `form:"apartment_address" json:"apartment_address" binding:"max=100" example:"Apt 2"`
	Country          string `form:"country" json:"country" binding:"required,country" example:"US"`
	Zip              string `form:"zip" json:"zip" binding:"required,max=20" example:"10001"`
	PaymentOption    string `form:"payment_option" json:"payment_option" binding:"required" example:"S"`
}

// CouponForm is the promo code form.
// swagger:model CouponForm
type CouponForm struct {
	Code string `form:"code" json:"code" binding:"required,max=15" example:"SAVE5"`
}

// LineView is a Line with its computed prices.
type LineView struct {
	Line
	TotalPrice         decimal.Decimal `json:"total_price"`
	DiscountTotalPrice decimal.Decimal `json:"discount_total_price"`
	AmountSaved        decimal.Decimal `json:"amount_saved"`
	FinalPrice         decimal.Decimal `json:"final_price"`
}

// OrderView is the JSON shape of an order in the summary, checkout, payment
// and history views.
// swagger:model OrderView
type OrderView struct {
	ID             int64           `json:"id"`
	OrderedDate    string          `json:"ordered_date"`
	Ordered        bool            `json:"ordered"`
	Items          []LineView      `json:"items"`
	Coupon         *Coupon         `json:"coupon,omitempty"`
	BillingAddress *BillingAddress `json:"billing_address,omitempty"`
	Payment        *Payment        `json:"payment,omitempty"`
	Total          decimal.Decimal `json:"total"`
}

func NewOrderView(o *Order) OrderView {
	v := OrderView{
		ID:             o.ID,
		OrderedDate:    o.OrderedDate.UTC().Format(time.RFC3339),
		Ordered:        o.Ordered,
		Items:          make([]LineView, 0, len(o.Lines)),
		Coupon:         o.Coupon,
		BillingAddress: o.BillingAddress,
		Payment:        o.Payment,
		Total:          o.Total(),
	}
	for _, l := range o.Lines {
		v.Items = append(v.Items, LineView{
			Line:               l,
			TotalPrice:         l.TotalPrice(),
			DiscountTotalPrice: l.DiscountTotalPrice(),
			AmountSaved:        l.AmountSaved(),
			FinalPrice:         l.FinalPrice(),
		})
	}
	return v
}
