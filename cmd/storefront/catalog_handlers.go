package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/account"
	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/forms"
	"github.com/MikeMC777/storefront/internal/history"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/visits"
)

const historyCookieMaxAge = 30 * 24 * 3600

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// homeHandler godoc
// @Summary  Active items
// @Tags     catalog
// @Produce  json
// @Success  200  {array}  catalog.Item
// @Router   / [get]
func homeHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repo.ListActive(c.Request.Context())
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		httpx.View(c, http.StatusOK, gin.H{"items": orEmpty(items)})
	}
}

// shopHandler godoc
// @Summary  Paginated active items
// @Tags     catalog
// @Produce  json
// @Param    page  query  int  false  "page number"  default(1)
// @Success  200  {object}  catalog.Page
// @Failure  404  {object}  catalog.HTTPError
// @Router   /shop [get]
func shopHandler(repo catalog.Repository, size int) gin.HandlerFunc {
	return func(c *gin.Context) {
		number, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil {
			httpx.Error(c, http.StatusNotFound, "invalid page")
			return
		}
		page, err := catalog.ListPage(c.Request.Context(), repo, number, size)
		if errors.Is(err, catalog.ErrPageOutOfRange) {
			httpx.Error(c, http.StatusNotFound, "invalid page")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		page.Items = orEmpty(page.Items)
		httpx.View(c, http.StatusOK, gin.H{"page_obj": page})
	}
}

// categoryHandler godoc
// @Summary  Items of a category
// @Tags     catalog
// @Produce  json
// @Param    slug  path  string  true  "category slug"
// @Failure  404  {object}  catalog.HTTPError
// @Router   /category/{slug} [get]
func categoryHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cat, err := repo.CategoryBySlug(ctx, c.Param("slug"))
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "category not found")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		items, err := repo.ByCategory(ctx, cat.ID)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		httpx.View(c, http.StatusOK, gin.H{"category": cat, "items": orEmpty(items)})
	}
}

// productHandler godoc
// @Summary  Item detail
// @Description  Records the item at the front of the viewed_products cookie.
// @Tags     catalog
// @Produce  json
// @Param    slug  path  string  true  "item slug"
// @Success  200  {object}  catalog.Item
// @Failure  404  {object}  catalog.HTTPError
// @Router   /product/{slug} [get]
func productHandler(repo catalog.Repository, limit int, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, err := repo.BySlug(c.Request.Context(), c.Param("slug"))
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "item not found")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		raw, _ := c.Cookie(history.CookieName)
		ids := history.Push(history.Parse(raw, limit), it.ID, limit)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(history.CookieName, history.Encode(ids), historyCookieMaxAge, "/", "", secure, true)

		httpx.View(c, http.StatusOK, gin.H{"object": it, "final_price": it.FinalPrice()})
	}
}

// searchHandler godoc
// @Summary  Search items
// @Tags     catalog
// @Produce  json
// @Param    q        query  string  false  "search text"
// @Param    sorting  query  string  false  "price_asc or price_desc"
// @Router   /search [get]
func searchHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := catalog.SearchQuery{Q: strings.TrimSpace(c.Query("q")), Sort: c.Query("sorting")}
		items, err := repo.Search(c.Request.Context(), q)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		httpx.View(c, http.StatusOK, gin.H{"query": q.Q, "sorting": q.Sort, "items": orEmpty(items)})
	}
}

func aboutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpx.View(c, http.StatusOK, gin.H{"page": "about"})
	}
}

// historyHandler godoc
// @Summary  Recently viewed items, visit counts and active users
// @Tags     catalog
// @Produce  json
// @Router   /history [get]
func historyHandler(repo catalog.Repository, counter visits.Counter, accounts *account.Service, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		raw, _ := c.Cookie(history.CookieName)
		items, err := repo.ByIDs(ctx, history.Parse(raw, limit))
		if err != nil {
			httpx.Internal(c, err)
			return
		}

		visitHistory := map[string]int64{}
		if sid := httpx.VisitSessionID(c); sid != "" {
			h, err := counter.History(ctx, sid)
			if err != nil {
				httpx.Internal(c, err)
				return
			}
			for day, n := range h {
				visitHistory[day] = n
			}
		}

		active, err := accounts.CountActive(ctx)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		data := gin.H{
			"items":         orEmpty(items),
			"visit_history": visitHistory,
			"active_users":  active,
		}
		if uid, ok := httpx.CurrentUserID(c); ok {
			if u, err := accounts.GetByID(ctx, uid); err == nil {
				data["current_user"] = u.Username
			} else if !errors.Is(err, account.ErrNotFound) {
				httpx.Internal(c, err)
				return
			}
		}
		httpx.View(c, http.StatusOK, data)
	}
}

// ItemForm is the staff form that lists a new item.
// swagger:model ItemForm
type ItemForm struct {
	Title            string `form:"title" binding:"required,max=100"`
	Price            string `form:"price" binding:"required"`
	DiscountPrice    string `form:"discount_price"`
	CategoryID       int64  `form:"category_id"`
	Label            string `form:"label" binding:"max=1"`
	Slug             string `form:"slug" binding:"required,max=100"`
	StockNo          string `form:"stock_no" binding:"max=10"`
	Size             string `form:"size" binding:"max=20"`
	Color            string `form:"color" binding:"max=20"`
	DescriptionShort string `form:"description_short" binding:"max=50"`
	DescriptionLong  string `form:"description_long"`
	Author           string `form:"author" binding:"max=100"`
	BookCategory     string `form:"book_category" binding:"max=100"`
	Inactive         bool   `form:"inactive"`
}

// item converts the form, reporting prices that are not non-negative decimals.
func (f ItemForm) item() (*catalog.Item, forms.Errors) {
	errs := forms.Errors{}
	it := &catalog.Item{
		Title:            strings.TrimSpace(f.Title),
		Label:            f.Label,
		Slug:             strings.TrimSpace(f.Slug),
		StockNo:          f.StockNo,
		Size:             f.Size,
		Color:            f.Color,
		DescriptionShort: f.DescriptionShort,
		DescriptionLong:  f.DescriptionLong,
		Author:           f.Author,
		BookCategory:     f.BookCategory,
		IsActive:         !f.Inactive,
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil || price.IsNegative() {
		errs["price"] = "Enter a number."
	}
	it.Price = price
	if s := strings.TrimSpace(f.DiscountPrice); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			errs["discount_price"] = "Enter a number."
		}
		it.DiscountPrice = decimal.NewNullDecimal(d)
	}
	if f.CategoryID > 0 {
		id := f.CategoryID
		it.CategoryID = &id
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return it, nil
}

// createItemHandler godoc
// @Summary  Create an item
// @Tags     admin
// @Accept   mpfd
// @Produce  json
// @Param    image  formData  file  false  "png or jpeg"
// @Failure  400  {object}  catalog.HTTPError
// @Router   /items [post]
func createItemHandler(repo catalog.Repository, images *catalog.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f ItemForm
		if err := c.ShouldBind(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": httpx.BindErrors(err)})
			return
		}
		it, errs := f.item()
		if errs != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
			return
		}

		if fh, err := c.FormFile("image"); err == nil {
			file, err := fh.Open()
			if err != nil {
				httpx.Internal(c, err)
				return
			}
			defer file.Close()
			it.Image, err = images.Save(fh.Filename, file)
			if errors.Is(err, catalog.ErrUnsupportedImage) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": forms.Errors{"image": err.Error()}})
				return
			}
			if err != nil {
				httpx.Internal(c, err)
				return
			}
		} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": forms.Errors{"image": err.Error()}})
			return
		}

		err := repo.Create(c.Request.Context(), it)
		if err != nil && it.Image != "" {
			if rmErr := images.Remove(it.Image); rmErr != nil {
				slog.WarnContext(c.Request.Context(), "remove orphaned image", "image", it.Image, "err", rmErr)
			}
		}
		switch {
		case errors.Is(err, catalog.ErrDuplicateSlug):
			c.JSON(http.StatusBadRequest, gin.H{"errors": forms.Errors{"slug": "Item with this Slug already exists."}})
			return
		case errors.Is(err, catalog.ErrNoCategory):
			c.JSON(http.StatusBadRequest, gin.H{"errors": forms.Errors{"category_id": "Select a valid choice. That choice is not one of the available choices."}})
			return
		case err != nil:
			httpx.Internal(c, err)
			return
		}
		slog.InfoContext(c.Request.Context(), "item created", "item_id", it.ID, "slug", it.Slug)
		httpx.AddFlash(c, httpx.Success, "Item was listed.")
		httpx.Redirect(c, "/product/"+it.Slug)
	}
}
