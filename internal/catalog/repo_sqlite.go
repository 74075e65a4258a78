package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/MikeMC777/storefront/internal/db"
)

// LiteRepo is the SQLite Repository. Prices are stored as TEXT, so price
// ordering casts them.
type LiteRepo struct{ db *sqlx.DB }

func NewLiteRepo(db *sqlx.DB) *LiteRepo { return &LiteRepo{db: db} }

const liteItemSelect = `
	SELECT i.id, i.title, i.size, i.color, i.price, i.discount_price, i.category_id,
	       COALESCE(c.title, '') AS category_title, i.label, i.slug, i.stock_no,
	       i.description_short, i.description_long, i.author, i.book_category,
	       i.image, i.is_active, i.created_at
	FROM items i LEFT JOIN categories c ON c.id = i.category_id `

func (r *LiteRepo) ListActive(ctx context.Context) ([]Item, error) {
	var out []Item
	err := r.db.SelectContext(ctx, &out, liteItemSelect+`WHERE i.is_active = 1 ORDER BY i.id`)
	return out, err
}

func (r *LiteRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM items WHERE is_active = 1`)
	return n, err
}

func (r *LiteRepo) List(ctx context.Context, limit, offset int) ([]Item, error) {
	var out []Item
	err := r.db.SelectContext(ctx, &out, liteItemSelect+`WHERE i.is_active = 1 ORDER BY i.id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *LiteRepo) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := r.db.GetContext(ctx, &c, `SELECT id, slug, title, description, image FROM categories WHERE slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *LiteRepo) ByCategory(ctx context.Context, categoryID int64) ([]Item, error) {
	var out []Item
	err := r.db.SelectContext(ctx, &out, liteItemSelect+`WHERE i.is_active = 1 AND i.category_id = ? ORDER BY i.id`, categoryID)
	return out, err
}

func (r *LiteRepo) BySlug(ctx context.Context, slug string) (*Item, error) {
	var it Item
	err := r.db.GetContext(ctx, &it, liteItemSelect+`WHERE i.slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *LiteRepo) ByIDs(ctx context.Context, ids []int64) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(liteItemSelect+`WHERE i.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return orderByIDs(items, ids), nil
}

func (r *LiteRepo) Search(ctx context.Context, q SearchQuery) ([]Item, error) {
	term := strings.TrimSpace(q.Q)
	if term == "" {
		return nil, nil
	}
	order := "i.id"
	switch q.Sort {
	case SortPriceAsc:
		order = "CAST(i.price AS REAL), i.id"
	case SortPriceDesc:
		order = "CAST(i.price AS REAL) DESC, i.id"
	}
	// casefold is registered by db.OpenSQLite; LIKE alone only folds ASCII.
	pattern := db.CaseFold(escapeLike(term))
	var out []Item
	err := r.db.SelectContext(ctx, &out, liteItemSelect+`
		WHERE (
			casefold(i.title) LIKE :q ESCAPE '\' OR casefold(i.description_short) LIKE :q ESCAPE '\'
			OR casefold(i.description_long) LIKE :q ESCAPE '\' OR casefold(i.author) LIKE :q ESCAPE '\'
			OR casefold(i.book_category) LIKE :q ESCAPE '\'
			OR (i.color <> '' AND casefold(i.color) LIKE :q ESCAPE '\')
			OR casefold(i.size) LIKE :q ESCAPE '\' OR casefold(COALESCE(c.title, '')) LIKE :q ESCAPE '\'
		)
		ORDER BY `+order, sql.Named("q", pattern))
	return out, err
}

func (r *LiteRepo) Create(ctx context.Context, it *Item) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO items (title, size, color, price, discount_price, category_id, label, slug, stock_no,
		                   description_short, description_long, author, book_category, image, is_active)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, it.Title, it.Size, it.Color, it.Price, it.DiscountPrice, it.CategoryID, it.Label, it.Slug, it.StockNo,
		it.DescriptionShort, it.DescriptionLong, it.Author, it.BookCategory, it.Image, it.IsActive)
	if err != nil {
		return translateLite(err)
	}
	if it.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return r.db.GetContext(ctx, &it.CreatedAt, `SELECT created_at FROM items WHERE id = ?`, it.ID)
}

func (r *LiteRepo) CreateCategory(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (slug, title, description, image) VALUES (?,?,?,?)
	`, c.Slug, c.Title, c.Description, c.Image)
	if err != nil {
		return translateLite(err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func translateLite(err error) error {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			return ErrDuplicateSlug
		case sqlite3.ErrConstraintForeignKey:
			return ErrNoCategory
		}
	}
	return fmt.Errorf("catalog: %w", err)
}
