package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/medimatch/internal/api"
	"github.com/terraincognita07/medimatch/internal/cli"
	"github.com/terraincognita07/medimatch/internal/config"
	"github.com/terraincognita07/medimatch/internal/db"
	"github.com/terraincognita07/medimatch/internal/i18n"
	"github.com/terraincognita07/medimatch/internal/knowledge"
	"github.com/terraincognita07/medimatch/internal/logging"
	"github.com/terraincognita07/medimatch/internal/services"
	"gorm.io/gorm"
)

const usage = `usage: medimatch [command]

commands:
  serve                          run the HTTP server (default)
  check-knowledge <path>         validate a knowledge file
  predict [--city X] symptom...  print a report for the given symptoms
  hash-admin-token               print a bcrypt hash for admin.token_hash
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "medimatch:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "check-knowledge":
		if len(args) != 1 {
			return errors.New("usage: medimatch check-knowledge <path>")
		}
		return cli.RunCheckKnowledge(args[0], os.Stdout)
	case "hash-admin-token":
		return cli.RunHashAdminToken(os.Stdin, os.Stdout)
	case "predict":
		return runPredict(args)
	case "serve":
		return serve()
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

func runPredict(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	location, _ := cfg.Location()
	store, err := loadKnowledgeStore(cfg)
	if err != nil {
		return err
	}
	i18nManager, err := i18n.NewManager(cfg.I18n.DefaultLanguage, cfg.I18n.LocalesDir)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	env := cli.PredictEnvironment{
		Knowledge: store,
		Reports:   services.NewReportService(i18nManager, location),
		Language:  i18nManager.DefaultLanguage(),
	}
	if _, statErr := os.Stat(cfg.Database.Path); statErr == nil {
		database, err := db.OpenSQLite(cfg.Database.Path, logrus.StandardLogger())
		if err != nil {
			return fmt.Errorf("database init failed: %w", err)
		}
		env.Facilities = services.NewFacilityService(db.NewFacilityRepository(database))
	}
	return cli.RunPredict(context.Background(), args, env, os.Stdout)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	location, err := cfg.Location()
	if err != nil {
		logger.WithError(err).Warn("falling back to UTC")
	}
	time.Local = location

	database, err := db.OpenSQLite(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	i18nManager, err := i18n.NewManager(cfg.I18n.DefaultLanguage, cfg.I18n.LocalesDir)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}
	store, err := loadKnowledgeStore(cfg)
	if err != nil {
		return err
	}

	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()

	if cfg.Knowledge.Watch {
		watcher, err := knowledge.NewWatcher(cfg.Knowledge.Path, store, logger)
		if err != nil {
			return fmt.Errorf("knowledge watcher init failed: %w", err)
		}
		if err := watcher.Start(lifecycleCtx); err != nil {
			return fmt.Errorf("knowledge watcher start failed: %w", err)
		}
		defer watcher.Stop()
	}

	handler, err := buildHandler(cfg, database, store, i18nManager, location, logger)
	if err != nil {
		return err
	}
	app := newApp(handler)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithError(err).Error("server shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":      cfg.Server.Port,
		"db":        cfg.Database.Path,
		"knowledge": store.Current().Version(),
		"mail":      cfg.Mail.Enabled(),
	}).Info("medimatch listening")
	return app.Listen(":" + strconv.Itoa(cfg.Server.Port))
}

func loadKnowledgeStore(cfg config.Config) (*knowledge.Store, error) {
	base, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		return nil, fmt.Errorf("knowledge base init failed: %w", err)
	}
	return knowledge.NewStore(base)
}

func buildHandler(cfg config.Config, database *gorm.DB, store *knowledge.Store, i18nManager *i18n.Manager, location *time.Location, logger *logrus.Logger) (*api.Handler, error) {
	repositories := db.NewRepositories(database)
	facilities := services.NewFacilityService(repositories.Facilities)

	predictions, err := services.NewPredictionService(store, repositories.Reports, facilities, cfg.Cache.Size, logger)
	if err != nil {
		return nil, err
	}

	var sender services.MailSender
	if cfg.Mail.Enabled() {
		sender = services.NewSMTPSender(services.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  cfg.Mail.Timeout,
		})
	}
	notifications := services.NewNotificationService(sender, repositories.Reports, i18nManager, services.NotificationOptions{
		RatePerMinute:   cfg.Mail.RatePerMinute,
		BreakerFailures: cfg.Mail.BreakerFailures,
	}, logger)

	knowledgePath := cfg.Knowledge.Path
	handler, err := api.NewHandler(api.Dependencies{
		Predictions:   predictions,
		Symptoms:      services.NewSymptomService(store),
		Facilities:    facilities,
		Reports:       services.NewReportService(i18nManager, location),
		Notifications: notifications,
		I18n:          i18nManager,
		Logger:        logger,
		ReloadKnowledge: func() (*knowledge.KnowledgeBase, error) {
			return store.Reload(knowledgePath)
		},
		SecretKey:      cfg.SecretKey,
		CookieSecure:   cfg.Server.CookieSecure,
		ReportTokenTTL: cfg.Report.TokenTTL,
		AdminTokenHash: cfg.Admin.TokenHash,
	})
	if err != nil {
		return nil, fmt.Errorf("handler init failed: %w", err)
	}
	return handler, nil
}

func newApp(handler *api.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "MediMatch",
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler,
		BodyLimit:             64 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())
	app.Use(handler.LanguageMiddleware)

	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}
