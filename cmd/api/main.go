package main

import (
	"context"
	"fmt"
	"log"

	common_api "byov-backend/internal/common/api"
	"byov-backend/internal/config"
	"byov-backend/internal/database"
	"byov-backend/internal/features/auth"
	cron_feature "byov-backend/internal/features/cron"
	"byov-backend/internal/features/dashsync"
	"byov-backend/internal/features/document"
	"byov-backend/internal/features/enrollment"
	"byov-backend/internal/features/notification"
	"byov-backend/internal/features/report"
	"byov-backend/internal/logger"
	"byov-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             12 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			enrollment.NewEnrollmentRepository,
			document.NewDocumentRepository,
			dashsync.NewSyncLogRepository,
			dashsync.NewSyncStateStore,

			// Initialize Storage
			document.NewLocalStorage,

			// Initialize Service
			auth.NewAuthService,
			enrollment.NewEnrollmentService,
			document.NewDocumentService,
			notification.NewNotifier,
			dashsync.NewSyncService,
			report.NewReportService,
			cron_feature.NewRetryScheduler,

			// Interface Adapters to satisfy Fx
			func(n notification.Notifier) dashsync.OutcomeNotifier { return n },

			// Initialize Controller
			auth.NewAuthController,
			enrollment.NewEnrollmentController,
			document.NewDocumentController,
			dashsync.NewSyncController,
			report.NewReportController,

			// Register Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(enrollment.NewEnrollmentApi),
			AsRoute(document.NewDocumentApi),
			AsRoute(dashsync.NewSyncApi),
			AsRoute(report.NewReportApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			cron_feature.RegisterLifecycle,
			StartServer,
		),
	)

	app.Run()
}
