package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"

	"github.com/MikeMC777/storefront/internal/account"
	"github.com/MikeMC777/storefront/internal/health"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "ctl.db"))
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestRun_Usage(t *testing.T) {
	setupEnv(t)
	if _, err := runCmd(t); !errors.Is(err, errUsage) {
		t.Fatalf("no args err=%v", err)
	}
	if _, err := runCmd(t, "frobnicate"); !errors.Is(err, errUsage) {
		t.Fatalf("unknown command err=%v", err)
	}
}

func TestRun_Migrate(t *testing.T) {
	setupEnv(t)
	out, err := runCmd(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "sqlite schema is up to date") {
		t.Fatalf("out=%q", out)
	}
	// a second run finds nothing pending
	if _, err := runCmd(t, "migrate"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestRun_AddUser(t *testing.T) {
	setupEnv(t)
	out, err := runCmd(t, "add-user", "-username", "admin", "-password", "s3cret-pass", "-staff")
	if err != nil {
		t.Fatalf("add-user: %v", err)
	}
	if !strings.Contains(out, `user "admin" created`) {
		t.Fatalf("out=%q", out)
	}

	_, err = runCmd(t, "add-user", "-username", "admin", "-password", "other-pass")
	if !errors.Is(err, account.ErrUsernameTaken) {
		t.Fatalf("duplicate user err=%v", err)
	}

	if _, err := runCmd(t, "add-user", "-username", "nopass"); err == nil {
		t.Fatal("missing password accepted")
	}
}

func TestRun_AddCategoryAndCoupon(t *testing.T) {
	setupEnv(t)
	out, err := runCmd(t, "add-category", "-slug", "books", "-title", "Books")
	if err != nil {
		t.Fatalf("add-category: %v", err)
	}
	if !strings.Contains(out, `category "books" created`) {
		t.Fatalf("out=%q", out)
	}
	if _, err := runCmd(t, "add-category", "-title", "No slug"); err == nil {
		t.Fatal("category without slug accepted")
	}

	out, err = runCmd(t, "add-coupon", "-code", "SAVE5", "-amount", "5")
	if err != nil {
		t.Fatalf("add-coupon: %v", err)
	}
	if !strings.Contains(out, `coupon "SAVE5" worth 5.00 created`) {
		t.Fatalf("out=%q", out)
	}
	if _, err := runCmd(t, "add-coupon", "-code", "SAVE5", "-amount", "5"); err == nil {
		t.Fatal("duplicate coupon code accepted")
	}
	for _, args := range [][]string{
		{"-code", "THIS-CODE-IS-TOO-LONG", "-amount", "1"},
		{"-code", "ZERO", "-amount", "0"},
		{"-code", "NAN", "-amount", "five"},
	} {
		if _, err := runCmd(t, append([]string{"add-coupon"}, args...)...); err == nil {
			t.Fatalf("add-coupon %v accepted", args)
		}
	}
}

func TestRun_Health(t *testing.T) {
	setupEnv(t)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	up := true
	m := health.NewMonitor(func(context.Context) error {
		if up {
			return nil
		}
		return errors.New("down")
	}, time.Hour)
	g := grpc.NewServer()
	m.Register(g)
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	if err := m.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	out, err := runCmd(t, "health", "-addr", lis.Addr().String())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if strings.TrimSpace(out) != "SERVING" {
		t.Fatalf("out=%q", out)
	}

	up = false
	_ = m.Check(context.Background())
	out, err = runCmd(t, "health", "-addr", lis.Addr().String())
	if err == nil || strings.TrimSpace(out) != "NOT_SERVING" {
		t.Fatalf("out=%q err=%v", out, err)
	}
}
