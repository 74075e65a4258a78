package catalog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/db/dbtest"
)

func newItem(slug, title, price string) *Item {
	return &Item{Title: title, Slug: slug, Price: decimal.RequireFromString(price), IsActive: true}
}

func seed(t *testing.T) (*LiteRepo, *Category) {
	t.Helper()
	ctx := context.Background()
	repo := NewLiteRepo(dbtest.NewSQLite(t))

	books := &Category{Slug: "books", Title: "Books"}
	require.NoError(t, repo.CreateCategory(ctx, books))

	dune := newItem("dune", "Dune", "12.50")
	dune.Author = "Frank Herbert"
	dune.BookCategory = "Science fiction"
	dune.CategoryID = &books.ID
	dune.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString("9.99"))

	shirt := newItem("red-shirt", "Summer shirt", "20")
	shirt.Color = "Red"
	shirt.Size = "M"

	mug := newItem("mug", "Mug 100%", "5")

	hidden := newItem("hidden", "Hidden poster", "1")
	hidden.IsActive = false

	for _, it := range []*Item{dune, shirt, mug, hidden} {
		require.NoError(t, repo.Create(ctx, it))
	}
	return repo, books
}

func slugs(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Slug
	}
	return out
}

func TestLiteRepo_CreateAndBySlug(t *testing.T) {
	repo, books := seed(t)
	ctx := context.Background()

	it, err := repo.BySlug(ctx, "dune")
	require.NoError(t, err)
	assert.Equal(t, "Books", it.CategoryTitle)
	require.NotNil(t, it.CategoryID)
	assert.Equal(t, books.ID, *it.CategoryID)
	assert.True(t, it.Price.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, it.FinalPrice().Equal(decimal.RequireFromString("9.99")))
	assert.False(t, it.CreatedAt.IsZero())

	_, err = repo.BySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Create(ctx, newItem("dune", "Another", "1"))
	assert.ErrorIs(t, err, ErrDuplicateSlug)
	err = repo.CreateCategory(ctx, &Category{Slug: "books", Title: "Again"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestLiteRepo_ListingsSkipInactive(t *testing.T) {
	repo, books := seed(t)
	ctx := context.Background()

	items, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dune", "red-shirt", "mug"}, slugs(items))

	byCat, err := repo.ByCategory(ctx, books.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"dune"}, slugs(byCat))

	_, err = repo.CategoryBySlug(ctx, "toys")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLiteRepo_Search(t *testing.T) {
	repo, _ := seed(t)
	ctx := context.Background()

	cases := []struct {
		name string
		q    SearchQuery
		want []string
	}{
		{"empty query", SearchQuery{Q: "   "}, nil},
		{"title case-insensitive", SearchQuery{Q: "DUNE"}, []string{"dune"}},
		{"author", SearchQuery{Q: "herbert"}, []string{"dune"}},
		{"book category", SearchQuery{Q: "fiction"}, []string{"dune"}},
		{"category title", SearchQuery{Q: "books"}, []string{"dune"}},
		{"color", SearchQuery{Q: "red"}, []string{"red-shirt"}},
		{"inactive items are searchable", SearchQuery{Q: "poster"}, []string{"hidden"}},
		{"wildcard is literal", SearchQuery{Q: "%"}, []string{"mug"}},
		{"underscore is literal", SearchQuery{Q: "_"}, nil},
		{"price ascending", SearchQuery{Q: "u", Sort: SortPriceAsc}, []string{"mug", "dune", "red-shirt"}},
		{"price descending", SearchQuery{Q: "u", Sort: SortPriceDesc}, []string{"red-shirt", "dune", "mug"}},
		{"unknown sort keeps id order", SearchQuery{Q: "u", Sort: "bogus"}, []string{"dune", "red-shirt", "mug"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tc.q)
			require.NoError(t, err)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, slugs(got))
		})
	}
}

func TestLiteRepo_SearchFoldsNonASCII(t *testing.T) {
	repo := NewLiteRepo(dbtest.NewSQLite(t))
	ctx := context.Background()

	scarf := newItem("scarf", "Linen scarf", "15")
	scarf.Color = "ÉCRU"
	book := newItem("strasse", "Die STRASSE", "8")
	book.Author = "Ödön von Horváth"
	require.NoError(t, repo.Create(ctx, scarf))
	require.NoError(t, repo.Create(ctx, book))

	for q, want := range map[string][]string{
		"écru":    {"scarf"},
		"Écru":    {"scarf"},
		"ödön":    {"strasse"},
		"HORVÁTH": {"strasse"},
		"straße":  {"strasse"},
	} {
		got, err := repo.Search(ctx, SearchQuery{Q: q})
		require.NoError(t, err)
		assert.Equal(t, want, slugs(got), "query %q", q)
	}
}

func TestLiteRepo_ByIDsKeepsOrder(t *testing.T) {
	repo, _ := seed(t)
	ctx := context.Background()

	all, err := repo.ListActive(ctx)
	require.NoError(t, err)
	ids := []int64{all[2].ID, 999, all[0].ID}

	got, err := repo.ByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"mug", "dune"}, slugs(got))

	none, err := repo.ByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListPage(t *testing.T) {
	repo, _ := seed(t)
	ctx := context.Background()

	p, err := ListPage(ctx, repo, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.NumPages)
	assert.Equal(t, 3, p.Total)
	assert.True(t, p.HasNext)
	assert.False(t, p.HasPrev)
	assert.Equal(t, []string{"dune", "red-shirt"}, slugs(p.Items))

	p, err = ListPage(ctx, repo, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"mug"}, slugs(p.Items))
	assert.True(t, p.HasPrev)

	_, err = ListPage(ctx, repo, 3, 2)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = ListPage(ctx, repo, 0, 2)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestListPage_EmptyCatalogHasOnePage(t *testing.T) {
	repo := NewLiteRepo(dbtest.NewSQLite(t))
	p, err := ListPage(context.Background(), repo, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, p.NumPages)
	assert.Empty(t, p.Items)
}

func TestImageStore_Save(t *testing.T) {
	dir := t.TempDir()
	store := NewImageStore(dir, "/media/")

	wide := image.NewRGBA(image.Rect(0, 0, 1600, 400))
	for x := 0; x < 1600; x++ {
		wide.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, wide))

	url, err := store.Save("photo.PNG", &buf)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/media/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))

	f, err := os.Open(filepath.Join(dir, strings.TrimPrefix(url, "/media/")))
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	_, err = store.Save("notes.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestImageStore_Remove(t *testing.T) {
	dir := t.TempDir()
	store := NewImageStore(dir, "/media")

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	url, err := store.Save("dot.png", &buf)
	require.NoError(t, err)

	require.NoError(t, store.Remove(url))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// already gone, foreign or traversing paths are no-ops
	assert.NoError(t, store.Remove(url))
	assert.NoError(t, store.Remove("/static/logo.jpg"))
	assert.NoError(t, store.Remove("/media/../storefront.db"))
}

func TestLiteRepo_CreateUnknownCategory(t *testing.T) {
	repo := NewLiteRepo(dbtest.NewSQLite(t))
	missing := int64(42)
	it := newItem("orphan", "Orphan", "1")
	it.CategoryID = &missing
	assert.ErrorIs(t, repo.Create(context.Background(), it), ErrNoCategory)
}
