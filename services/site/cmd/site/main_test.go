package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ocakbasi/internal/admintoken"
	"ocakbasi/pkg/export"
	"ocakbasi/services/site/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAdminTokenCommandSignsVerifiableToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SITE_ADMIN_JWT_SECRET", "cli-secret")

	out, err := runCLI(t, "admin-token", "--subject", "admin-7", "--email", "ops@example.com")
	if err != nil {
		t.Fatalf("admin-token: %v", err)
	}
	claims, err := admintoken.New(admintoken.Options{Secret: "cli-secret"}).Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "admin-7" || claims.Email != "ops@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAdminTokenCommandWithoutSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SITE_ADMIN_JWT_SECRET", "")
	if _, err := runCLI(t, "admin-token", "--subject", "admin-7"); err == nil {
		t.Fatalf("expected error without a secret")
	}
}

func TestExportCommandWritesCSV(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "site.db"))
	t.Setenv("SITE_AUTO_MIGRATE", "true")
	outPath := filepath.Join(dir, "out.csv")

	if _, err := runCLI(t, "export", "applications", "--out", outPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte(export.BOM+`"Ad Soyad"`)) {
		t.Fatalf("unexpected csv: %q", data)
	}
}

func TestExportCommandRejectsUnknownKind(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := runCLI(t, "export", "invoices"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestBuildDepsToleratesUnreachableDatabase(t *testing.T) {
	prevCfg, prevLogger := cfg, logger
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })
	cfg = config.FileConfig{DatabaseURL: "host=127.0.0.1 port=1 user=site dbname=site sslmode=disable connect_timeout=1"}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	d, err := buildDeps(ctx, false)
	if err != nil {
		t.Fatalf("buildDeps must not fail on an unreachable database: %v", err)
	}
	defer d.Close()
	appCore, err := d.newApp()
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}

	res := appCore.Content().HeroSlides(ctx)
	if !res.Fallback || len(res.Data) == 0 {
		t.Fatalf("expected fallback hero slides, got %+v", res)
	}
	if status := appCore.StoreStatus(ctx); status != "down" {
		t.Fatalf("expected store status down, got %q", status)
	}
}
