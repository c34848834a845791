// @title           Accessible Environment API
// @version         1.0
// @description     Crowdsourced accessibility assessment of public locations
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /api/v1

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"accessible-env-backend/internal/app/realtime"
	"accessible-env-backend/internal/app/routes"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/infrastructure/database"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/internal/infrastructure/storage"
	"accessible-env-backend/internal/jobs"
	"accessible-env-backend/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional, the environment may already be set
	envErr := godotenv.Load()

	cfg := config.GetConfig()

	if err := logger.SetupLogger(logger.Options{Dir: cfg.LogDir, Level: cfg.LogLevel}); err != nil {
		fmt.Printf("failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if envErr != nil {
		logger.Warning("could not load .env file: %v", envErr)
	}

	if err := run(cfg); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()
	db := pool.GetDB()

	if err := database.Migrate(db, cfg.DBMigrationMode); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	objectStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	hub := realtime.NewHub(cfg.CORSAllowedOrigins)
	publisher := messaging.NewPublisher(cfg)

	c := container.NewServiceContainer(db, cfg, container.Options{
		Redis:     services.NewRedisService(cfg),
		Storage:   objectStorage,
		Publisher: publisher,
		Pusher:    hub,
	})
	defer c.Close()

	if err := seed(ctx, c); err != nil {
		return err
	}

	scheduler, err := jobs.NewScheduler(cfg,
		c.GetService("location").(services.InterfaceLocationService),
		c.GetService("notification").(services.InterfaceNotificationService))
	if err != nil {
		return err
	}

	router := routes.SetupRouter(ctx, c, cfg)
	srv := routes.NewServer("0.0.0.0:"+cfg.ServerPort, router)

	printSystemInfo(pool)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return routes.Serve(ctx, srv, ln, shutdownTimeout, hub.Close,
		c.Dispatcher().Run,
		scheduler.Run,
	)
}

// seed creates the bootstrap superadmin and the default categories
func seed(ctx context.Context, c *container.ServiceContainer) error {
	users := c.GetService("user").(services.InterfaceUserService)
	if err := users.EnsureSuperadmin(ctx); err != nil {
		return fmt.Errorf("ensure superadmin: %w", err)
	}
	catalog := c.GetService("catalog").(services.InterfaceCatalogService)
	if err := catalog.EnsureDefaultCategories(ctx); err != nil {
		return fmt.Errorf("ensure default categories: %w", err)
	}
	return nil
}

func printSystemInfo(pool *database.ConnectionPool) {
	if stats, err := pool.Stats(); err == nil {
		logger.Info("database pool: %+v", stats)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Info("cpus=%d goroutines=%d alloc=%dMiB sys=%dMiB",
		runtime.NumCPU(), runtime.NumGoroutine(), m.Alloc/1024/1024, m.Sys/1024/1024)
}
