package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/ai"
	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/counter"
	"github.com/studyforge/studyforge/internal/db"
	"github.com/studyforge/studyforge/internal/engine"
	"github.com/studyforge/studyforge/internal/filestore"
	"github.com/studyforge/studyforge/internal/gate"
	"github.com/studyforge/studyforge/internal/handler"
	"github.com/studyforge/studyforge/internal/job"
	"github.com/studyforge/studyforge/internal/middleware"
	"github.com/studyforge/studyforge/internal/repo"
	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/internal/service"
	"github.com/studyforge/studyforge/internal/usage"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "studyforge",
		Short: "studyforge backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run studyforge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildCounterStore(cfg config.EngineConfig, conn *sql.DB) (counter.Store, error) {
	switch cfg.CounterStore {
	case "postgres":
		return counter.NewPostgresStore(conn), nil
	case "memory":
		return counter.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported counter store: %s", cfg.CounterStore)
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_host", cfg.Database.Host),
		zap.String("file_store", cfg.FileStore.Type),
		zap.Int64("max_concurrent", cfg.Engine.MaxConcurrent),
	)

	docRepo := repo.NewDocumentRepo(conn)
	artifactRepo := repo.NewArtifactRepo(conn)
	usageRepo := repo.NewUsageRepo(conn)

	counterStore, err := buildCounterStore(cfg.Engine, conn)
	if err != nil {
		return err
	}
	aiGate := gate.New(
		counterStore,
		cfg.Engine.CounterName,
		cfg.Engine.MaxConcurrent,
		time.Duration(cfg.Engine.RetryDelayMS)*time.Millisecond,
	)
	ledger := usage.NewLedger(usageRepo)

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)

	eng := engine.New(generator, aiGate, ledger, artifactRepo, engine.NewPublisher(), engine.Config{
		TargetChunkSize: cfg.Engine.TargetChunkSize,
		CheckpointEvery: cfg.Engine.CheckpointEvery,
		DelayMin:        time.Duration(cfg.Engine.DelayMinMS) * time.Millisecond,
		DelayMax:        time.Duration(cfg.Engine.DelayMaxMS) * time.Millisecond,
		MinInputChars:   cfg.Engine.MinInputChars,
	})

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	documentService := service.NewDocumentService(docRepo, store)
	generationService := service.NewGenerationService(docRepo, artifactRepo, eng)

	deps := handler.RouterDeps{
		Documents:       handler.NewDocumentHandler(documentService),
		Generate:        handler.NewGenerateHandler(generationService),
		Usage:           handler.NewUsageHandler(ledger),
		Files:           handler.NewFileHandler(documentService),
		JWTSecret:       []byte(cfg.JWTSecret),
		GenerateLimiter: time.Duration(cfg.RateLimitWindowMS) * time.Millisecond,
	}

	web, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewCounterSweeperJob(aiGate), cfg.Credit.SweepCron); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewCreditGrantJob(ledger, cfg.Credit.MonthlyQuota), cfg.Credit.GrantCron); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := web.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
