package protocal

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"n8n-chat-relay/configs"
	httpAdapter "n8n-chat-relay/internal/adapters/input/http"
	"n8n-chat-relay/internal/adapters/output/memory"
	"n8n-chat-relay/internal/adapters/output/n8n"
	"n8n-chat-relay/internal/adapters/output/postgres"
	"n8n-chat-relay/internal/application"
	"n8n-chat-relay/internal/ports/output"
	"n8n-chat-relay/pkg/database_driver/gorm"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	gormio "gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type config struct {
	ENV string `mapstructure:"env"`
}

// ServeHTTP func
func ServeHTTP() error {
	var cfg config
	flag.StringVar(&cfg.ENV, "env", "", "the environment to use")
	flag.Parse()
	configs.InitViper("./configs", cfg.ENV)
	conf := configs.GetViper()
	setupLogger(conf.App)
	logrus.Info(conf.App.Env)

	app := fiber.New(fiber.Config{
		AppName:      "n8n-chat-relay",
		ErrorHandler: httpAdapter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpAdapter.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: conf.Cors.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Request-ID",
	}))

	// Optional audit log
	var (
		db        *gormio.DB
		auditRepo output.RelayAuditRepository
	)
	if conf.Postgres.Enabled() {
		dbConGorm, err := gorm.ConnectToPostgreSQL(
			conf.Postgres.Host,
			conf.Postgres.Port,
			conf.Postgres.Username,
			conf.Postgres.Password,
			conf.Postgres.DbName,
			conf.Postgres.SSLMode,
		)
		if err != nil {
			return err
		}
		db = dbConGorm.Postgres
		defer gorm.DisconnectPostgres(db)

		repo, err := postgres.NewRelayAuditRepository(db)
		if err != nil {
			return err
		}
		auditRepo = repo
	} else {
		logrus.Info("Postgres is not configured, relay audit log disabled")
	}

	// Wire up the hexagonal architecture layers
	// Output adapters
	gateway, err := n8n.NewWebhookClientAdapter(conf.N8n)
	if err != nil {
		return err
	}
	store := memory.NewMemorySessionStore(conf.Session.Shards)
	clock := clockwork.NewRealClock()
	window := conf.Session.WindowSize()

	// Application services (use cases)
	chatSrv := application.NewChatService(store, gateway, auditRepo, clock, application.ChatServiceConfig{
		Timeout:       conf.Session.TimeoutDuration(),
		ContextWindow: &window,
		SweepInterval: conf.Session.SweepIntervalDuration(),
	})
	webhookSrv := application.NewWebhookService(gateway, auditRepo, clock)
	sweeper := application.NewSessionSweeper(chatSrv, clock, conf.Session.SweepIntervalDuration())

	// Input adapters (HTTP handlers)
	httpAdapter.SetupRoutes(app, httpAdapter.Handlers{
		Service: httpAdapter.New(webhookSrv, db),
		Chat:    httpAdapter.NewChatHandler(chatSrv),
		Webhook: httpAdapter.NewWebhookHandler(webhookSrv),
	}, conf.N8n.APIKey)
	if conf.N8n.APIKey == "" {
		logrus.Warn("n8n.api_key is empty, API key check disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sweeper.Start(gctx)
		<-gctx.Done()
		sweeper.Stop()
		return nil
	})
	g.Go(func() error {
		logrus.Println("Listening on port: ", conf.App.Port)
		return app.Listen(":" + conf.App.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Println("Gracefull shut down ...")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	return g.Wait()
}

func setupLogger(app configs.App) {
	level, err := logrus.ParseLevel(app.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if app.Debug {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(app.Env, "production") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
