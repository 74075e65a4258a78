package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/country"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/order"
)

// userID is only called behind RequireLogin.
func userID(c *gin.Context) int64 {
	id, _ := httpx.CurrentUserID(c)
	return id
}

func productURL(slug string) string { return "/product/" + slug }

// cartMiss answers the outcomes shared by the cart POSTs and reports whether
// it did. Unknown items are 404; the other misses go back to the product page.
func cartMiss(c *gin.Context, slug string, err error) bool {
	switch {
	case errors.Is(err, order.ErrItemNotFound):
		httpx.Error(c, http.StatusNotFound, "item not found")
	case errors.Is(err, order.ErrNoActiveOrder):
		httpx.AddFlash(c, httpx.Info, "You do not have an active order.")
		httpx.Redirect(c, productURL(slug))
	case errors.Is(err, order.ErrNotInCart):
		httpx.AddFlash(c, httpx.Info, "Item was not in your cart.")
		httpx.Redirect(c, productURL(slug))
	default:
		return false
	}
	return true
}

// orderSummaryHandler godoc
// @Summary  Active order of the current user
// @Tags     cart
// @Produce  json
// @Success  200  {object}  order.OrderView
// @Router   /order-summary [get]
func orderSummaryHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Summary(c.Request.Context(), userID(c))
		if errors.Is(err, order.ErrNoActiveOrder) {
			httpx.AddFlash(c, httpx.Danger, "You do not have an active order")
			httpx.Redirect(c, "/")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		httpx.View(c, http.StatusOK, gin.H{"object": order.NewOrderView(o)})
	}
}

// addToCartHandler godoc
// @Summary  Add one unit of an item to the cart
// @Tags     cart
// @Param    slug  path  string  true  "item slug"
// @Success  303
// @Failure  404  {object}  catalog.HTTPError
// @Router   /add-to-cart/{slug} [post]
func addToCartHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		change, err := svc.AddToCart(c.Request.Context(), userID(c), slug)
		if cartMiss(c, slug, err) {
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if change == order.QuantityUpdated {
			httpx.AddFlash(c, httpx.Info, "Item qty was updated.")
		} else {
			httpx.AddFlash(c, httpx.Info, "Item was added to your cart.")
		}
		httpx.Redirect(c, "/order-summary")
	}
}

// removeFromCartHandler godoc
// @Summary  Remove an item from the cart
// @Tags     cart
// @Param    slug  path  string  true  "item slug"
// @Success  303
// @Router   /remove-from-cart/{slug} [post]
func removeFromCartHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		err := svc.RemoveFromCart(c.Request.Context(), userID(c), slug)
		if cartMiss(c, slug, err) {
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		httpx.AddFlash(c, httpx.Info, "Item was removed from your cart.")
		httpx.Redirect(c, "/order-summary")
	}
}

// removeSingleItemHandler godoc
// @Summary  Remove one unit of an item from the cart
// @Tags     cart
// @Param    slug  path  string  true  "item slug"
// @Success  303
// @Router   /remove-item-from-cart/{slug} [post]
func removeSingleItemHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		err := svc.RemoveSingleItem(c.Request.Context(), userID(c), slug)
		if cartMiss(c, slug, err) {
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		httpx.AddFlash(c, httpx.Info, "This item qty was updated.")
		httpx.Redirect(c, "/order-summary")
	}
}

// addCouponHandler godoc
// @Summary  Attach a coupon to the cart
// @Tags     cart
// @Accept   x-www-form-urlencoded
// @Param    code  formData  string  true  "coupon code"
// @Success  303
// @Router   /add-coupon [post]
func addCouponHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f order.CouponForm
		if err := c.ShouldBind(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": httpx.BindErrors(err)})
			return
		}
		err := svc.AddCoupon(c.Request.Context(), userID(c), f.Code)
		switch {
		case errors.Is(err, order.ErrCouponNotFound):
			httpx.AddFlash(c, httpx.Info, "This coupon does not exist")
		case errors.Is(err, order.ErrNoActiveOrder):
			httpx.AddFlash(c, httpx.Info, "You do not have an active order")
		case err != nil:
			httpx.Internal(c, err)
			return
		default:
			httpx.AddFlash(c, httpx.Success, "Successfully added coupon")
		}
		httpx.Redirect(c, "/checkout")
	}
}

// checkoutFormHandler godoc
// @Summary  Checkout form context
// @Tags     checkout
// @Produce  json
// @Router   /checkout [get]
func checkoutFormHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Summary(c.Request.Context(), userID(c))
		if errors.Is(err, order.ErrNoActiveOrder) {
			httpx.AddFlash(c, httpx.Info, "You do not have an active order")
			httpx.Redirect(c, "/")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		data := gin.H{
			"order":               order.NewOrderView(o),
			"display_coupon_form": true,
			"payment_options":     gin.H{string(order.Stripe): "Stripe", string(order.PayPal): "PayPal"},
		}
		if o.BillingAddress != nil {
			data["country_name"] = country.Name(o.BillingAddress.Country)
		}
		httpx.View(c, http.StatusOK, data)
	}
}

// checkoutHandler godoc
// @Summary  Store the billing address and choose a payment option
// @Tags     checkout
// @Accept   x-www-form-urlencoded
// @Param    form  body  order.CheckoutForm  true  "billing address"
// @Success  303
// @Failure  400
// @Router   /checkout [post]
func checkoutHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f order.CheckoutForm
		if err := c.ShouldBind(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": httpx.BindErrors(err)})
			return
		}
		option, err := svc.Checkout(c.Request.Context(), userID(c), f)
		switch {
		case errors.Is(err, order.ErrInvalidPaymentOption):
			httpx.AddFlash(c, httpx.Warning, "Invalid payment option select")
			httpx.Redirect(c, "/checkout")
		case errors.Is(err, order.ErrNoActiveOrder):
			httpx.AddFlash(c, httpx.Danger, "You do not have an active order")
			httpx.Redirect(c, "/order-summary")
		case err != nil:
			httpx.Internal(c, err)
		default:
			httpx.Redirect(c, "/payment/"+option.Slug())
		}
	}
}

// paymentFormHandler godoc
// @Summary  Payment view
// @Tags     checkout
// @Produce  json
// @Param    option  path  string  true  "stripe or paypal"
// @Router   /payment/{option} [get]
func paymentFormHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		option, err := order.PaymentOptionFromSlug(c.Param("option"))
		if err != nil {
			httpx.Error(c, http.StatusNotFound, "unknown payment option")
			return
		}
		o, err := svc.PaymentContext(c.Request.Context(), userID(c))
		switch {
		case errors.Is(err, order.ErrNoActiveOrder):
			httpx.AddFlash(c, httpx.Info, "You do not have an active order")
			httpx.Redirect(c, "/")
		case errors.Is(err, order.ErrNoBillingAddress):
			httpx.AddFlash(c, httpx.Warning, "You have not added a billing address")
			httpx.Redirect(c, "/checkout")
		case err != nil:
			httpx.Internal(c, err)
		default:
			httpx.View(c, http.StatusOK, gin.H{
				"order":               order.NewOrderView(o),
				"payment_option":      option.Slug(),
				"display_coupon_form": false,
			})
		}
	}
}

// paymentHandler godoc
// @Summary  Pay the active order
// @Tags     checkout
// @Param    option  path  string  true  "stripe or paypal"
// @Success  303
// @Router   /payment/{option} [post]
func paymentHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		option, err := order.PaymentOptionFromSlug(c.Param("option"))
		if err != nil {
			httpx.Error(c, http.StatusNotFound, "unknown payment option")
			return
		}
		_, err = svc.CompletePayment(c.Request.Context(), userID(c), option)
		switch {
		case errors.Is(err, order.ErrNoActiveOrder):
			httpx.AddFlash(c, httpx.Info, "You do not have an active order")
			httpx.Redirect(c, "/")
		case errors.Is(err, order.ErrNoBillingAddress):
			httpx.AddFlash(c, httpx.Warning, "You have not added a billing address")
			httpx.Redirect(c, "/checkout")
		case err != nil:
			_ = c.Error(err)
			httpx.AddFlash(c, httpx.Danger, "Your payment could not be processed.")
			httpx.Redirect(c, "/payment/"+option.Slug())
		default:
			httpx.AddFlash(c, httpx.Success, "Your order was successful!")
			httpx.Redirect(c, "/orders")
		}
	}
}

// orderHistoryHandler godoc
// @Summary  Completed orders of the current user
// @Tags     checkout
// @Produce  json
// @Param    limit   query  int  false  "page size"  default(20)
// @Param    offset  query  int  false  "offset"     default(0)
// @Router   /orders [get]
func orderHistoryHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		orders, err := svc.History(c.Request.Context(), userID(c), limit, offset)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		views := make([]order.OrderView, 0, len(orders))
		for i := range orders {
			views = append(views, order.NewOrderView(&orders[i]))
		}
		httpx.View(c, http.StatusOK, gin.H{"orders": views, "limit": limit, "offset": offset})
	}
}
