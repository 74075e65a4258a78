// Command storefrontctl runs operator tasks against the storefront database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/storefront/internal/account"
	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/health"
	"github.com/MikeMC777/storefront/internal/mail"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/storage"
)

const usage = "usage: storefrontctl <migrate|add-user|add-category|add-coupon|health> [flags]"

var errUsage = errors.New(usage)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	cfg := config.Load()

	if cmd == "health" {
		fs := flag.NewFlagSet("health", flag.ContinueOnError)
		def := cfg.GRPCHealthAddr
		if strings.HasPrefix(def, ":") {
			def = "localhost" + def
		}
		addr := fs.String("addr", def, "gRPC health address")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return checkHealth(ctx, *addr, out)
	}

	// every other command needs the database
	st, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	switch cmd {
	case "migrate":
		// storage.Open already applied pending migrations
		fmt.Fprintf(out, "%s schema is up to date\n", cfg.DBDriver)
		return nil
	case "add-user":
		fs := flag.NewFlagSet("add-user", flag.ContinueOnError)
		username := fs.String("username", "", "username of the new user")
		password := fs.String("password", "", "password of the new user")
		email := fs.String("email", "", "e-mail address")
		staff := fs.Bool("staff", false, "allow the user to list items")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *username == "" || *password == "" {
			return errors.New("add-user: -username and -password are required")
		}
		svc := account.NewService(st.Accounts, mail.LogSender{}, cfg.BaseURL, cfg.ResetTokenTTL)
		u, err := svc.CreateUser(ctx, *username, *email, *password, *staff)
		if err != nil {
			return fmt.Errorf("add-user: %w", err)
		}
		fmt.Fprintf(out, "user %q created with id %d\n", u.Username, u.ID)
		return nil
	case "add-category":
		fs := flag.NewFlagSet("add-category", flag.ContinueOnError)
		c := &catalog.Category{}
		fs.StringVar(&c.Slug, "slug", "", "category slug")
		fs.StringVar(&c.Title, "title", "", "category title")
		fs.StringVar(&c.Description, "description", "", "category description")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if c.Slug == "" || c.Title == "" {
			return errors.New("add-category: -slug and -title are required")
		}
		if err := st.Items.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("add-category: %w", err)
		}
		fmt.Fprintf(out, "category %q created with id %d\n", c.Slug, c.ID)
		return nil
	case "add-coupon":
		fs := flag.NewFlagSet("add-coupon", flag.ContinueOnError)
		code := fs.String("code", "", "coupon code (at most 15 characters)")
		amount := fs.String("amount", "", "fixed discount, e.g. 5.00")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *code == "" || len(*code) > 15 {
			return errors.New("add-coupon: -code is required and at most 15 characters")
		}
		a, err := decimal.NewFromString(*amount)
		if err != nil || !a.IsPositive() {
			return fmt.Errorf("add-coupon: invalid amount %q", *amount)
		}
		cp := &order.Coupon{Code: *code, Amount: a}
		if err := st.Orders.CreateCoupon(ctx, cp); err != nil {
			return fmt.Errorf("add-coupon: %w", err)
		}
		fmt.Fprintf(out, "coupon %q worth %s created\n", cp.Code, cp.Amount.StringFixed(2))
		return nil
	}
	return errUsage
}

// checkHealth asks the running service for its serving status.
func checkHealth(ctx context.Context, addr string, out io.Writer) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: health.ServiceName})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	fmt.Fprintln(out, res.GetStatus())
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return errors.New("storefront is not serving")
	}
	return nil
}
