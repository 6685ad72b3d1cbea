package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/htmx-playground/backend/internal/config"
	"github.com/zhouzirui/htmx-playground/backend/internal/handler"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/auth"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/cms"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/counter"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/leaderboard"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/realtime"
	"github.com/zhouzirui/htmx-playground/backend/pkg/logging"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Load .env file
			if err := godotenv.Load(); err != nil {
				log.Warn().Err(err).Msg("failed to load .env file, continuing with system environment variables only")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				if cfg.Server.Addr, err = config.ParseAddr(addr); err != nil {
					return err
				}
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)

			registry := realtime.NewRegistry()
			deps, cleanup := buildDependencies(ctx, cfg, registry)
			defer cleanup()

			router, err := handler.NewRouter(deps)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
				IdleTimeout:       120 * time.Second,
			}
			return runServer(ctx, srv, registry, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT")
	return cmd
}

// buildDependencies 按配置初始化可选的外部依赖，未配置或初始化失败的依赖保持为 nil
func buildDependencies(ctx context.Context, cfg *config.Config, registry *realtime.Registry) (handler.Dependencies, func()) {
	var closers []func()
	deps := handler.Dependencies{
		Session:  cfg.Session,
		Registry: registry,
		Counter:  counter.NewMemoryStore(),
	}

	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, using in-memory counter")
			_ = client.Close()
		} else {
			deps.Counter = counter.NewRedisStore(client, counter.DefaultKey)
			closers = append(closers, func() { _ = client.Close() })
			log.Info().Str("addr", cfg.Redis.Addr).Msg("shared counter backed by redis")
		}
	}

	if cfg.Auth.Enabled() {
		client, err := auth.NewClient(cfg.Auth.BaseURL, cfg.Auth.PublicKey)
		if err != nil {
			log.Warn().Err(err).Msg("auth client disabled")
		} else {
			deps.Auth = client
		}
	} else {
		log.Info().Msg("SUPABASE_URL / SUPABASE_PUBLIC_KEY not set, login disabled")
	}

	if cfg.CMS.Enabled() {
		client, err := cms.NewClient(cms.Config{
			ProjectID:  cfg.CMS.ProjectID,
			Dataset:    cfg.CMS.Dataset,
			Token:      cfg.CMS.Token,
			UseCDN:     cfg.CMS.UseCDN,
			APIVersion: cfg.CMS.APIVersion,
		})
		if err != nil {
			log.Warn().Err(err).Msg("cms client disabled")
		} else {
			deps.Items = client
		}
	} else {
		log.Info().Msg("SANITY_PROJECT_ID not set, /api/sanity disabled")
	}

	if cfg.Database.Enabled() {
		store, err := leaderboard.Open(ctx, cfg.Database.URL)
		if err != nil {
			log.Warn().Err(err).Msg("leaderboard disabled")
		} else {
			deps.Leaderboard = store
			closers = append(closers, func() { _ = store.Close() })
		}
	} else {
		log.Info().Msg("DATABASE_URL not set, /api/leaderboard disabled")
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return deps, cleanup
}

// runServer 启动服务并在 ctx 取消后优雅退出；Shutdown 不会关闭已劫持的 websocket 连接，
// 因此再由 registry 逐个发送 going-away 关闭帧
func runServer(ctx context.Context, srv *http.Server, registry *realtime.Registry, timeout time.Duration) error {
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("htmx playground backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		registry.CloseAll()
		if err != nil {
			log.Error().Err(err).Msg("server shutdown error")
			return err
		}
		log.Info().Msg("server shutdown complete")
		return nil
	})

	return eg.Wait()
}
