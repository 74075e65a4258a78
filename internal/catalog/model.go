package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `db:"id" json:"id"`
	Slug        string `db:"slug" json:"slug"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description,omitempty"`
	Image       string `db:"image" json:"image,omitempty"`
}

type Item struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
	Size  string `db:"size" json:"size,omitempty"`
	Color string `db:"color" json:"color,omitempty"`
	// NUMERIC in Postgres, TEXT in SQLite
	Price         decimal.Decimal     `db:"price" json:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price" json:"discount_price"`
	CategoryID    *int64              `db:"category_id" json:"category_id,omitempty"`
	CategoryTitle string              `db:"category_title" json:"category_title,omitempty"`
	Label         string              `db:"label" json:"label,omitempty"`
	Slug          string              `db:"slug" json:"slug"`
	StockNo       string              `db:"stock_no" json:"stock_no,omitempty"`

	DescriptionShort string `db:"description_short" json:"description_short,omitempty"`
	DescriptionLong  string `db:"description_long" json:"description_long,omitempty"`
	Author           string `db:"author" json:"author,omitempty"`
	BookCategory     string `db:"book_category" json:"book_category,omitempty"`

	Image     string    `db:"image" json:"image,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FinalPrice is the discount price when one is set, the list price otherwise.
func (i Item) FinalPrice() decimal.Decimal {
	if i.DiscountPrice.Valid {
		return i.DiscountPrice.Decimal
	}
	return i.Price
}

// Page is one page of the shop listing.
type Page struct {
	Items    []Item `json:"items"`
	Number   int    `json:"page"`
	NumPages int    `json:"num_pages"`
	Total    int    `json:"total"`
	HasPrev  bool   `json:"has_previous"`
	HasNext  bool   `json:"has_next"`
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}
