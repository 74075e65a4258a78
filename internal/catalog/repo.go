// Package catalog provides the repository interface and the PostgreSQL and
// SQLite implementations for items and categories.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("item not found")
	ErrDuplicateSlug  = errors.New("slug already in use")
	ErrNoCategory     = errors.New("category does not exist")
	ErrPageOutOfRange = errors.New("page out of range")
)

// Sort orders accepted by Search.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

type SearchQuery struct {
	Q    string
	Sort string
}

type Repository interface {
	ListActive(ctx context.Context) ([]Item, error)
	CountActive(ctx context.Context) (int, error)
	List(ctx context.Context, limit, offset int) ([]Item, error)
	CategoryBySlug(ctx context.Context, slug string) (*Category, error)
	ByCategory(ctx context.Context, categoryID int64) ([]Item, error)
	BySlug(ctx context.Context, slug string) (*Item, error)
	ByIDs(ctx context.Context, ids []int64) ([]Item, error)
	Search(ctx context.Context, q SearchQuery) ([]Item, error)
	Create(ctx context.Context, it *Item) error
	CreateCategory(ctx context.Context, c *Category) error
}

// escapeLike makes s match literally inside a LIKE pattern using '\' as escape.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const pgItemColumns = `
	i.id, i.title, i.size, i.color, i.price::text, i.discount_price::text,
	i.category_id, COALESCE(c.title, ''), i.label, i.slug, i.stock_no,
	i.description_short, i.description_long, i.author, i.book_category,
	i.image, i.is_active, i.created_at`

const pgItemFrom = ` FROM items i LEFT JOIN categories c ON c.id = i.category_id `

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Title, &it.Size, &it.Color, &it.Price, &it.DiscountPrice,
		&it.CategoryID, &it.CategoryTitle, &it.Label, &it.Slug, &it.StockNo,
		&it.DescriptionShort, &it.DescriptionLong, &it.Author, &it.BookCategory,
		&it.Image, &it.IsActive, &it.CreatedAt)
	return it, err
}

func (r *PGRepo) query(ctx context.Context, sql string, args ...any) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListActive(ctx context.Context) ([]Item, error) {
	return r.query(ctx, `SELECT `+pgItemColumns+pgItemFrom+`WHERE i.is_active ORDER BY i.id`)
}

func (r *PGRepo) CountActive(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE is_active`).Scan(&n)
	return n, err
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Item, error) {
	return r.query(ctx, `SELECT `+pgItemColumns+pgItemFrom+`WHERE i.is_active ORDER BY i.id LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *PGRepo) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Category
	err := r.db.QueryRow(ctx, `
		SELECT id, slug, title, description, image FROM categories WHERE slug=$1
	`, slug).Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.Image)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) ByCategory(ctx context.Context, categoryID int64) ([]Item, error) {
	return r.query(ctx, `SELECT `+pgItemColumns+pgItemFrom+`WHERE i.is_active AND i.category_id=$1 ORDER BY i.id`, categoryID)
}

func (r *PGRepo) BySlug(ctx context.Context, slug string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	it, err := scanItem(r.db.QueryRow(ctx, `SELECT `+pgItemColumns+pgItemFrom+`WHERE i.slug=$1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PGRepo) ByIDs(ctx context.Context, ids []int64) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := r.query(ctx, `SELECT `+pgItemColumns+pgItemFrom+`WHERE i.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return orderByIDs(items, ids), nil
}

func (r *PGRepo) Search(ctx context.Context, q SearchQuery) ([]Item, error) {
	term := strings.TrimSpace(q.Q)
	if term == "" {
		return nil, nil
	}
	order := "i.id"
	switch q.Sort {
	case SortPriceAsc:
		order = "i.price, i.id"
	case SortPriceDesc:
		order = "i.price DESC, i.id"
	}
	// One row per item: the category join is many-to-one. ILIKE escapes with '\' by default.
	return r.query(ctx, `SELECT `+pgItemColumns+pgItemFrom+`
		WHERE (
			i.title ILIKE $1 OR i.description_short ILIKE $1 OR i.description_long ILIKE $1
			OR i.author ILIKE $1 OR i.book_category ILIKE $1
			OR (i.color <> '' AND i.color ILIKE $1)
			OR i.size ILIKE $1 OR c.title ILIKE $1
		)
		ORDER BY `+order, escapeLike(term))
}

func (r *PGRepo) Create(ctx context.Context, it *Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO items (title, size, color, price, discount_price, category_id, label, slug, stock_no,
		                   description_short, description_long, author, book_category, image, is_active)
		VALUES ($1,$2,$3,$4::text::numeric,$5::text::numeric,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at
	`, it.Title, it.Size, it.Color, it.Price, it.DiscountPrice, it.CategoryID, it.Label, it.Slug, it.StockNo,
		it.DescriptionShort, it.DescriptionLong, it.Author, it.BookCategory, it.Image, it.IsActive,
	).Scan(&it.ID, &it.CreatedAt)
	return translatePG(err)
}

func (r *PGRepo) CreateCategory(ctx context.Context, c *Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (slug, title, description, image) VALUES ($1,$2,$3,$4) RETURNING id
	`, c.Slug, c.Title, c.Description, c.Image).Scan(&c.ID)
	return translatePG(err)
}

func translatePG(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateSlug
		case "23503":
			return ErrNoCategory
		}
	}
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// orderByIDs returns the items in the order of ids, skipping ids with no item.
func orderByIDs(items []Item, ids []int64) []Item {
	byID := make(map[int64]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out
}
