package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ocakbasi/internal/admintoken"
	"ocakbasi/internal/util"
	"ocakbasi/pkg/export"
	"ocakbasi/pkg/queue"
	"ocakbasi/services/site/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := buildDeps(ctx, true)
			if err != nil {
				return err
			}
			defer d.Close()
			appCore, err := d.newApp()
			if err != nil {
				return err
			}
			window, err := cfg.RateLimitWindowDuration()
			if err != nil {
				return err
			}
			trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
			if err != nil {
				return fmt.Errorf("parse trusted proxies: %w", err)
			}
			httpServer, err := server.New(server.Config{
				App:             appCore,
				Tokens:          admintoken.New(admintoken.Options{Secret: cfg.AdminJWTSecret}),
				Metrics:         d.metrics,
				RedisAddr:       cfg.RedisAddr,
				RedisPassword:   cfg.RedisPassword,
				RateLimit:       cfg.RateLimit,
				RateLimitWindow: window,
				TrustedProxies:  trusted,
				AllowedOrigins:  cfg.AllowedOrigins,
			})
			if err != nil {
				return fmt.Errorf("init server: %w", err)
			}
			defer httpServer.Close()

			addr := ":" + cfg.Port
			srv := &http.Server{
				Addr:              addr,
				Handler:           httpServer.Router(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				slog.Info("server listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "export reservations|applications",
		Short:     "Write submissions as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(export.KindReservations), string(export.KindApplications)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := export.ParseKind(args[0])
			if err != nil {
				return err
			}
			d, err := buildDeps(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer d.Close()
			appCore, err := d.newApp()
			if err != nil {
				return err
			}
			doc, err := appCore.Export(cmd.Context(), kind)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if _, err := w.Write(doc.Body); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			logger.Info("export written", "kind", kind, "rows", doc.Rows, "out", out, "suggested_name", doc.Filename)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func notifyWorkerCmd() *cobra.Command {
	var (
		concurrency int
		once        bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "notify-worker",
		Short: "Deliver submission notifications from the Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := buildDeps(ctx, true)
			if err != nil {
				return err
			}
			defer d.Close()
			if d.notifier == nil {
				return errors.New("notify-worker requires redisAddr")
			}

			deliver := queue.WebhookHandler(cfg.NotifyWebhookURL, nil, logger)
			handler := func(ctx context.Context, n queue.Notification) error {
				err := deliver(ctx, n)
				if err != nil {
					d.metrics.RecordNotification("error")
				} else {
					d.metrics.RecordNotification("delivered")
				}
				return err
			}

			if once {
				total := 0
				for {
					n, err := d.notifier.ProcessOnce(ctx, handler)
					if err != nil {
						return fmt.Errorf("drain notifications: %w", err)
					}
					if n == 0 {
						break
					}
					total += n
				}
				logger.Info("notifications drained", "count", total)
				return nil
			}

			if metricsAddr != "" {
				metricsSrv := &http.Server{Addr: metricsAddr, Handler: d.metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server error", "err", err)
					}
				}()
				defer metricsSrv.Close()
			}

			d.notifier.Start(ctx, concurrency, handler)
			logger.Info("notify worker started", "concurrency", concurrency, "webhook", cfg.NotifyWebhookURL != "")
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of consumers")
	cmd.Flags().BoolVar(&once, "once", false, "drain pending notifications and exit")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func adminTokenCmd() *cobra.Command {
	var (
		subject string
		email   string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Sign a bearer token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := admintoken.New(admintoken.Options{Secret: cfg.AdminJWTSecret, TTL: ttl})
			token, err := manager.Sign(subject, email, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "admin user id (required)")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&role, "role", admintoken.RoleAdmin, "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", admintoken.DefaultTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
