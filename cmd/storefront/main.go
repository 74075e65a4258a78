package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"google.golang.org/grpc"

	"github.com/MikeMC777/storefront/docs"
	"github.com/MikeMC777/storefront/internal/account"
	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/contact"
	"github.com/MikeMC777/storefront/internal/health"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/mail"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/storage"
	"github.com/MikeMC777/storefront/internal/visits"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// deps is everything the handlers need.
type deps struct {
	items    catalog.Repository
	images   *catalog.ImageStore
	orders   *order.Service
	accounts *account.Service
	contact  *contact.Service
	visits   visits.Counter
	ping     health.PingFunc
	sessions sessions.Store
	limiter  *httpx.RateLimiter
	now      func() time.Time

	uploadDir    string
	shopPageSize int
	historyLimit int
	secure       bool
}

func newRouter(d deps) *gin.Engine {
	httpx.SetupValidation()
	if d.now == nil {
		d.now = time.Now
	}

	r := gin.New()
	r.Use(httpx.RequestID(), httpx.Logger(), gin.Recovery(), httpx.SecurityHeaders())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", healthzHandler(d.ping))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if d.uploadDir != "" {
		r.Static("/media", d.uploadDir)
	}

	site := r.Group("/", httpx.LoadSession(d.sessions), httpx.VisitCounter(d.visits, d.now))

	site.GET("/", homeHandler(d.items))
	site.GET("/shop", shopHandler(d.items, d.shopPageSize))
	site.GET("/category/:slug", categoryHandler(d.items))
	site.GET("/product/:slug", productHandler(d.items, d.historyLimit, d.secure))
	site.GET("/search", searchHandler(d.items))
	site.GET("/about", aboutHandler())
	site.GET("/history", historyHandler(d.items, d.visits, d.accounts, d.historyLimit))

	site.GET("/contact", contactFormHandler())
	site.POST("/contact", d.limiter.Middleware(), contactHandler(d.contact))
	site.GET("/contact/success", contactSuccessHandler())

	site.GET("/signup", formViewHandler("signup"))
	site.POST("/signup", signupHandler(d.accounts))
	site.GET("/login", formViewHandler("login"))
	site.POST("/login", loginHandler(d.accounts))
	site.GET("/logout", logoutHandler())
	site.GET("/password-reset", formViewHandler("password_reset"))
	site.POST("/password-reset", d.limiter.Middleware(), resetRequestHandler(d.accounts))
	site.GET("/password-reset/confirm", resetConfirmFormHandler())
	site.POST("/password-reset/confirm", resetConfirmHandler(d.accounts))

	auth := site.Group("/", httpx.RequireLogin())
	auth.GET("/order-summary", orderSummaryHandler(d.orders))
	auth.POST("/add-to-cart/:slug", addToCartHandler(d.orders))
	auth.POST("/remove-from-cart/:slug", removeFromCartHandler(d.orders))
	auth.POST("/remove-item-from-cart/:slug", removeSingleItemHandler(d.orders))
	auth.GET("/checkout", checkoutFormHandler(d.orders))
	auth.POST("/checkout", checkoutHandler(d.orders))
	auth.POST("/add-coupon", addCouponHandler(d.orders))
	auth.GET("/payment/:option", paymentFormHandler(d.orders))
	auth.POST("/payment/:option", paymentHandler(d.orders))
	auth.GET("/orders", orderHistoryHandler(d.orders))

	site.POST("/items", httpx.RequireStaff(isStaff(d.accounts)), createItemHandler(d.items, d.images))

	r.NoRoute(func(c *gin.Context) { httpx.Error(c, http.StatusNotFound, "not found") })
	return r
}

func isStaff(accounts *account.Service) func(ctx context.Context, id int64) (bool, error) {
	return func(ctx context.Context, id int64) (bool, error) {
		u, err := accounts.GetByID(ctx, id)
		if errors.Is(err, account.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return u.IsStaff && u.IsActive, nil
	}
}

// healthzHandler godoc
// @Summary  Database reachability
// @Tags     ops
// @Success  200  {string}  string  "ok"
// @Failure  503  {object}  catalog.HTTPError
// @Router   /healthz [get]
func healthzHandler(ping health.PingFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			slog.Warn("healthz: database unreachable", "err", err)
			httpx.Error(c, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		c.String(http.StatusOK, "ok")
	}
}

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := storage.Open(ctx, cfg)
	if err != nil {
		slog.Error("database setup failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	var mailer mail.Sender = mail.LogSender{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		slog.Warn("SMTP_HOST not set, mail is only logged")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		slog.Error("create upload dir", "dir", cfg.UploadDir, "err", err)
		os.Exit(1)
	}

	docs.SwaggerInfo.Version = version
	d := deps{
		items:        st.Items,
		images:       catalog.NewImageStore(cfg.UploadDir, "/media"),
		orders:       order.NewService(st.Orders, st.Items, nil),
		accounts:     account.NewService(st.Accounts, mailer, cfg.BaseURL, cfg.ResetTokenTTL),
		contact:      contact.NewService(mailer, cfg.ContactEmail),
		visits:       st.Visits,
		ping:         st.Ping,
		sessions:     httpx.NewCookieStore(cfg.SessionKey, cfg.CookieSecure, cfg.CookieDomain),
		limiter:      httpx.NewRateLimiter(ctx, cfg.RateLimitWindow),
		uploadDir:    cfg.UploadDir,
		shopPageSize: cfg.ShopPageSize,
		historyLimit: cfg.HistoryLimit,
		secure:       cfg.CookieSecure,
	}

	protect := csrf.Protect(cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.TrustedOrigins(cfg.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"csrf token missing or invalid"}`))
		})),
	)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           protect(newRouter(d)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	monitor := health.NewMonitor(st.Ping, 15*time.Second)
	go monitor.Run(ctx)
	gsrv := grpc.NewServer()
	monitor.Register(gsrv)
	lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		slog.Error("grpc health listen", "addr", cfg.GRPCHealthAddr, "err", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("grpc health listening", "addr", cfg.GRPCHealthAddr)
		if err := gsrv.Serve(lis); err != nil {
			slog.Error("grpc health server stopped", "err", err)
		}
	}()

	go func() {
		slog.Info("storefront listening", "addr", cfg.HTTPAddr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "err", err)
	}
	gsrv.GracefulStop()
}
