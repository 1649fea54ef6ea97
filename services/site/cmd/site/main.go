package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"ocakbasi/internal/metrics"
	"ocakbasi/internal/util"
	"ocakbasi/pkg/authprovider"
	"ocakbasi/pkg/queue"
	"ocakbasi/pkg/storage"
	"ocakbasi/pkg/store"
	"ocakbasi/services/site/internal/app"
	"ocakbasi/services/site/internal/config"
)

var (
	cfg    config.FileConfig
	logger *slog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("site: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "site",
		Short:         "Ocakbaşı restaurant site backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
			logger = util.InitLogger(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default ./"+config.ConfigPath+")")
	root.AddCommand(serveCmd(), exportCmd(), notifyWorkerCmd(), adminTokenCmd())
	return root
}

// deps holds the optional collaborators built from config. Absent ones stay nil.
type deps struct {
	store    store.Store
	notifier *queue.NotificationQueue
	objects  storage.ObjectStore
	metrics  *metrics.Metrics
	closers  []func() error
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			slog.Warn("close dependency", "err", err)
		}
	}
}

func buildDeps(ctx context.Context, withQueue bool) (*deps, error) {
	d := &deps{}
	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	d.metrics = m

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		gs, err := store.NewGormStore(dsn, store.WithAutoMigrate(cfg.AutoMigrate))
		switch {
		case err != nil && cfg.AutoMigrate:
			return nil, fmt.Errorf("init store: %w", err)
		case err != nil:
			logger.Warn("database unavailable, serving fallback content", "err", err)
		default:
			if pingErr := gs.Ping(ctx); pingErr != nil {
				logger.Warn("database ping failed, reads will fall back until it recovers", "err", pingErr)
			}
			d.store = gs
			d.closers = append(d.closers, gs.Close)
		}
	} else {
		logger.Warn("database not configured, serving fallback content")
	}

	if withQueue && strings.TrimSpace(cfg.RedisAddr) != "" {
		q, err := queue.NewNotificationQueue(queue.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.NotifyStream,
			Logger:   logger,
		})
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init notification queue: %w", err)
		}
		d.notifier = q
		d.closers = append(d.closers, q.Close)
	}

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		objects, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		d.objects = objects
	}
	return d, nil
}

func (d *deps) newApp() (*app.App, error) {
	expiry, err := cfg.ExportLinkExpiryDuration()
	if err != nil {
		return nil, err
	}
	appCfg := app.Config{
		Store: d.store,
		Auth: authprovider.NewClient(authprovider.Config{
			BaseURL:    cfg.AuthURL,
			ServiceKey: cfg.AuthServiceKey,
			RedirectTo: cfg.AuthRedirectURL,
		}),
		Objects:      d.objects,
		ExportExpiry: expiry,
		Metrics:      d.metrics,
		Logger:       logger,
	}
	if d.notifier != nil {
		appCfg.Notifier = d.notifier
	}
	return app.New(appCfg), nil
}
