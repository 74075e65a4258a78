package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/account"
	"github.com/MikeMC777/storefront/internal/contact"
	"github.com/MikeMC777/storefront/internal/forms"
	"github.com/MikeMC777/storefront/internal/httpx"
)

// formViewHandler answers the context of a page that only shows a form.
func formViewHandler(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{"form": name}
		if next := c.Query("next"); next != "" {
			data["next"] = httpx.SafeNext(next)
		}
		httpx.View(c, http.StatusOK, data)
	}
}

func formErrors(c *gin.Context, err error) {
	var errs forms.Errors
	if errors.As(err, &errs) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}
	httpx.Internal(c, err)
}

// signupHandler godoc
// @Summary  Register a user
// @Tags     account
// @Accept   x-www-form-urlencoded
// @Param    form  body  account.SignupForm  true  "signup form"
// @Success  303
// @Failure  400
// @Router   /signup [post]
func signupHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f account.SignupForm
		if err := c.ShouldBind(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": httpx.BindErrors(err)})
			return
		}
		if _, err := svc.Signup(c.Request.Context(), f); err != nil {
			formErrors(c, err)
			return
		}
		httpx.AddFlash(c, httpx.Success, "Your account was created. You can log in now.")
		httpx.Redirect(c, "/login")
	}
}

// loginHandler godoc
// @Summary  Log in
// @Tags     account
// @Accept   x-www-form-urlencoded
// @Param    form  body  account.LoginForm  true  "credentials"
// @Success  303
// @Failure  400
// @Router   /login [post]
func loginHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f account.LoginForm
		if err := c.ShouldBind(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": httpx.BindErrors(err)})
			return
		}
		u, err := svc.Authenticate(c.Request.Context(), f.Username, f.Password)
		if errors.Is(err, account.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": forms.Errors{
				"__all__": "Please enter a correct username and password. Note that both fields may be case-sensitive.",
			}})
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		httpx.Login(c, u.ID)
		slog.InfoContext(c.Request.Context(), "user logged in", "user_id", u.ID)
		httpx.Redirect(c, httpx.SafeNext(c.DefaultPostForm("next", c.Query("next"))))
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpx.Logout(c)
		httpx.AddFlash(c, httpx.Info, "You have been logged out.")
		httpx.Redirect(c, "/login")
	}
}

// resetRequestHandler godoc
// @Summary  Mail a password reset link
// @Tags     account
// @Accept   x-www-form-urlencoded
// @Param    username  formData  string  true  "username"
// @Success  303
// @Router   /password-reset [post]
func resetRequestHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.PostForm("username")
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"errors": forms.Errors{"username": forms.Required}})
			return
		}
		if err := svc.RequestReset(c.Request.Context(), username); err != nil {
			httpx.Internal(c, err)
			return
		}
		httpx.AddFlash(c, httpx.Info, "If the account exists and has an e-mail address, a reset link is on its way.")
		httpx.Redirect(c, "/login")
	}
}

func resetConfirmFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpx.View(c, http.StatusOK, gin.H{"form": "password_reset_confirm", "token": c.Query("token")})
	}
}

// resetConfirmHandler godoc
// @Summary  Set a new password with a reset token
// @Tags     account
// @Accept   x-www-form-urlencoded
// @Param    form  body  account.ResetConfirmForm  true  "token and new password"
// @Success  303
// @Failure  400
// @Router   /password-reset/confirm [post]
func resetConfirmHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f account.ResetConfirmForm
		if err := c.ShouldBind(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": httpx.BindErrors(err)})
			return
		}
		err := svc.ResetPassword(c.Request.Context(), f.Token, f.Password1, f.Password2)
		if errors.Is(err, account.ErrInvalidResetToken) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": forms.Errors{
				"token": "The password reset link was invalid, possibly because it has already been used.",
			}})
			return
		}
		if err != nil {
			formErrors(c, err)
			return
		}
		httpx.AddFlash(c, httpx.Success, "Your password has been set. You may go ahead and log in now.")
		httpx.Redirect(c, "/login")
	}
}

func contactFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpx.View(c, http.StatusOK, gin.H{"form": "contact"})
	}
}

// contactHandler godoc
// @Summary  Send a message to the shop
// @Tags     account
// @Accept   x-www-form-urlencoded
// @Param    form  body  contact.Form  true  "message"
// @Success  303
// @Failure  400
// @Failure  429  {object}  catalog.HTTPError
// @Router   /contact [post]
func contactHandler(svc *contact.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f contact.Form
		if err := c.ShouldBind(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": httpx.BindErrors(err)})
			return
		}
		err := svc.Submit(c.Request.Context(), f)
		if errors.Is(err, contact.ErrDelivery) {
			httpx.AddFlash(c, httpx.Danger, "Your message could not be sent. Please try again later.")
			httpx.Redirect(c, "/contact")
			return
		}
		if err != nil {
			formErrors(c, err)
			return
		}
		httpx.Redirect(c, "/contact/success")
	}
}

func contactSuccessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpx.View(c, http.StatusOK, gin.H{"message": "Thank you for your message."})
	}
}
