package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/meinhoongagan/healthcoach-api/cache"
	"github.com/meinhoongagan/healthcoach-api/config"
	"github.com/meinhoongagan/healthcoach-api/controllers"
	"github.com/meinhoongagan/healthcoach-api/cron"
	"github.com/meinhoongagan/healthcoach-api/db"
	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/middleware"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"github.com/meinhoongagan/healthcoach-api/routes"
	"github.com/meinhoongagan/healthcoach-api/services"
	"github.com/meinhoongagan/healthcoach-api/utils"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Log.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Log.Info("👋 Shutdown complete")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	if cfg.DBAutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	var (
		rdb    *goredis.Client
		events services.RoomEventStream = cache.NopRoomEvents{}
		locker cron.Locker              = cache.NewLocalLocker()
	)
	if cfg.RedisEnabled() {
		rdb, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		events = cache.NewRoomEvents(rdb)
		locker = cache.NewRedisLocker(rdb)
	} else {
		logger.Log.Warn("REDIS_ADDR is not set; realtime events are disabled and cron leases are process-local")
	}

	var mailer utils.Mailer = utils.NopMailer{}
	if cfg.MailEnabled() {
		mailer = utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass)
	}

	var store utils.DocumentStore = utils.DisabledStore{}
	if cfg.StorageEnabled() {
		cs, err := utils.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return err
		}
		store = cs
	}

	var issuer *utils.VideoTokenIssuer
	if cfg.VideoAppID != "" && cfg.VideoAppSecret != "" {
		issuer = utils.NewVideoTokenIssuer(cfg.VideoAppID, cfg.VideoAppSecret, cfg.VideoTokenTTL)
	}

	tx := repositories.NewTransactor(gdb)
	users := repositories.NewUserRepository(gdb)
	apps := repositories.NewApplicationRepository(gdb)
	appts := repositories.NewAppointmentRepository(gdb)
	rooms := repositories.NewRoomRepository(gdb)
	messages := repositories.NewMessageRepository(gdb)
	notes := repositories.NewNoteRepository(gdb)
	perms := repositories.NewPermissionRepository(gdb)
	health := repositories.NewHealthRepository(gdb)
	audits := repositories.NewAuditRepository(gdb)
	consultants := repositories.NewConsultantRepository(gdb)

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	notifier := services.NewNotifier(mailer, users, cfg.MailTimezone)

	authSvc := services.NewAuthService(users, tokens)
	appointmentSvc := services.NewAppointmentService(tx, users, apps, appts, rooms, notifier, services.AppointmentOptions{
		EnforceOverlap: cfg.EnforceScheduleOverlap,
		NoShowGrace:    cfg.NoShowGrace,
	})
	sessionSvc := services.NewSessionService(appts, rooms, messages, notes, events)
	permissionSvc := services.NewPermissionService(tx, users, perms, appts)
	healthSvc := services.NewHealthService(health, audits)
	clientDataSvc := services.NewClientDataService(tx, health, audits, appts, permissionSvc)
	consultantSvc := services.NewConsultantService(consultants, store, cfg.DocumentFolder)
	videoSvc := services.NewVideoService(appts, rooms, issuer)

	checks := map[string]controllers.Pinger{
		"database": func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		"redis":    nil,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	app := fiber.New(fiber.Config{
		AppName:      "healthcoach-api",
		ErrorHandler: controllers.ErrorHandler,
		BodyLimit:    services.MaxDocumentBytes + 1<<20,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger())

	routes.Setup(app, routes.Handlers{
		Auth:         controllers.NewAuthController(authSvc),
		Appointments: controllers.NewAppointmentController(appointmentSvc),
		Sessions:     controllers.NewSessionController(sessionSvc, permissionSvc, clientDataSvc),
		Permissions:  controllers.NewPermissionController(permissionSvc),
		Health:       controllers.NewHealthController(healthSvc),
		ClientData:   controllers.NewClientDataController(clientDataSvc),
		Consultants:  controllers.NewConsultantController(consultantSvc),
		Video:        controllers.NewVideoController(videoSvc),
		System:       controllers.NewSystemController(checks),
	}, middleware.Protected(tokens.Secret()))

	scheduler := cron.NewScheduler(appointmentSvc, notifier, locker, cfg.ReminderLead)
	if err := scheduler.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info("🚀 Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		scheduler.Stop(shutdownCtx)
		return app.ShutdownWithContext(shutdownCtx)
	})
	return g.Wait()
}
