package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"young_network/config"
	"young_network/handler"
	"young_network/logger"
	"young_network/middleware"
	"young_network/seed"
	"young_network/service"
	"young_network/storage"
	"young_network/telemetry"
	"young_network/utils"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "young_network"

func init() {
	time.Local = time.UTC
}

// app is everything a command needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	rdb      *redis.Client
	sessions *middleware.Sessions
	notifSvc *service.NotificationService
	svcs     *handler.Services
	tp       *sdktrace.TracerProvider
}

func bootstrap(ctx context.Context, stdoutOnly bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if stdoutOnly {
		logger.InitializeStdout(cfg.LogLevel)
	} else if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg}

	if a.tp, err = telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.OTelEnabled,
		SamplingRate: cfg.OTelSamplingRate,
	}); err != nil {
		logger.WarnWithFields("tracing disabled", err)
	}

	if cfg.DatabaseURL == "" {
		logger.Log.Warn("DATABASE_URL is not set; requests will fail with a configuration error")
	} else if a.db, err = utils.InitDB(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if a.rdb, err = utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
		logger.WarnWithFields("Redis unavailable; logout revocation and cross-instance push are disabled", err)
		a.rdb = nil
	}

	var store storage.ObjectStore
	if cfg.AvatarStorageEnabled() {
		s3Store, err := storage.NewS3Store(ctx, cfg.AvatarRegion, cfg.AvatarBucket, cfg.AvatarBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure avatar storage: %w", err)
		}
		store = s3Store
	}

	a.sessions = middleware.NewSessions(cfg.JWTSecret, cfg.SessionTTL, a.rdb)
	a.notifSvc = service.NewNotificationService(a.db)
	a.svcs = &handler.Services{
		Users: service.NewUserService(a.db, a.notifSvc, store, service.UserOptions{
			AdminPhone:     cfg.AdminPhone,
			MaxUsers:       cfg.MaxUsers,
			RequireConsent: cfg.RequireConsent,
			BcryptCost:     cfg.BcryptCost,
		}),
		Relationships: service.NewRelationshipService(a.db, a.notifSvc),
		Messages:      service.NewMessageService(a.db),
		Posts:         service.NewPostService(a.db),
		Playlists:     service.NewPlaylistService(a.db),
		Communities:   service.NewCommunityService(a.db),
		Notifications: a.notifSvc,
		Admin:         service.NewAdminService(a.db, a.notifSvc, cfg.AdminPhone),
		Music:         service.NewMusicService(a.db),
	}
	return a, nil
}

func (a *app) close() {
	if a.tp != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.tp.Shutdown(ctx)
		cancel()
	}
	_ = utils.CloseRedis(a.rdb)
	_ = utils.CloseDB(a.db)
	_ = logger.Close()
}

func (a *app) requireDB() error {
	if a.db == nil {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func (a *app) router() *handler.Router {
	return handler.NewRouter(a.db, a.sessions, a.cfg.RequestTimeout, a.svcs)
}

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Social network backend",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the notification websocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		hub := handler.NewHub(a.rdb, a.sessions, a.notifSvc)
		a.notifSvc.SetHubNotifier(hub)
		if err := hub.StartPubSub(ctx); err != nil {
			logger.WarnWithFields("notification pub/sub unavailable; delivering locally", err)
		}
		defer hub.StopPubSub()

		if a.cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		r := gin.New()
		r.Use(gin.Recovery())
		r.Use(middleware.TracingMiddleware(serviceName)...)
		r.Use(middleware.ErrorHandlerMiddleware())
		r.Use(middleware.MetricsMiddleware())
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

		r.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
		r.GET("/ws", handler.HandleWebSocket(hub))
		a.router().Mount(r)

		srv := &http.Server{Addr: ":" + a.cfg.Port, Handler: r}
		errCh := make(chan error, 1)
		go func() {
			logger.Log.Info("young_network starting", zap.String("port", a.cfg.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serve API Gateway proxy events",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()

		// No local sockets here; a serve instance subscribed to Redis pushes.
		if a.rdb != nil {
			a.notifSvc.SetHubNotifier(service.NewRedisPublisher(a.rdb))
		}
		lambda.Start(a.router().LambdaHandler())
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.requireDB(); err != nil {
			return err
		}
		if err := utils.Migrate(a.db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Log.Info("migration complete")
		return nil
	},
}

var seedUsers int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with fake users, friendships and posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.requireDB(); err != nil {
			return err
		}
		if err := utils.Migrate(a.db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		s := seed.NewSeeder(a.svcs.Users, a.svcs.Relationships, a.svcs.Messages, a.svcs.Posts, a.svcs.Communities, a.svcs.Music)
		sum, err := s.Seed(cmd.Context(), seedUsers)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users (password %q), %d posts, %d communities\n",
			sum.Users, seed.Password, sum.Posts, sum.Communities)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 20, "number of users to create")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lambdaCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
