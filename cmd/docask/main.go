package main

import (
	"context"
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

	"github.com/xxxsen/docask/internal/ai"
	"github.com/xxxsen/docask/internal/config"
	"github.com/xxxsen/docask/internal/docstore"
	"github.com/xxxsen/docask/internal/filestore"
	"github.com/xxxsen/docask/internal/handler"
	"github.com/xxxsen/docask/internal/job"
	"github.com/xxxsen/docask/internal/middleware"
	"github.com/xxxsen/docask/internal/relevance"
	"github.com/xxxsen/docask/internal/schedule"
	"github.com/xxxsen/docask/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docask",
		Short: "document question answering service",
	}
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAddCmd(), newAskCmd(), newListCmd(), newRmCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the docask server",
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
			return runServer(cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	return cmd
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("doc_store", cfg.DocStore.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)

	store, err := docstore.New(cfg.DocStore.Type, cfg.DocStore.Data)
	if err != nil {
		return fmt.Errorf("init doc store: %w", err)
	}
	defer store.Close()

	var files filestore.Store
	if cfg.FileStore.Type != "" {
		files, err = filestore.New(cfg.FileStore.Type, cfg.FileStore.Data)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
	}

	completer, err := buildCompleter(cfg.AI)
	if err != nil {
		return fmt.Errorf("init ai providers: %w", err)
	}
	if completer == nil {
		logutil.GetLogger(context.Background()).Warn("no ai providers configured, answers use keyword search only")
	}

	documentService := service.NewDocumentService(store, files)
	answerService := service.NewAnswerService(store, completer, relevance.New(relevance.ServerConfig()), service.AnswerConfig{
		Timeout:        time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		MaxPromptChars: cfg.AI.MaxPromptChars,
	})

	deps := handler.RouterDeps{
		Documents: handler.NewDocumentHandler(documentService, cfg.MaxUploadBytes),
		Ask:       handler.NewAskHandler(answerService),
	}

	engine, err := webapi.NewEngine(
		"/api",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			middleware.RateLimit(time.Duration(cfg.RateLimitSeconds)*time.Second),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Jobs.UploadCleanupCron != "" {
		if dirStore, ok := files.(interface{ Dir() string }); ok {
			scheduler := schedule.NewCronScheduler()
			if err := scheduler.AddJob(job.NewUploadCleanupJob(store, dirStore.Dir()), cfg.Jobs.UploadCleanupCron); err != nil {
				return err
			}
			scheduler.Start(ctx)
			defer scheduler.Stop()
		} else {
			logutil.GetLogger(context.Background()).Warn("upload cleanup only supports the local file store, job disabled")
		}
	}

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func buildCompleter(cfg config.AIConfig) (ai.ICompleter, error) {
	if len(cfg.Providers) == 0 {
		return nil, nil
	}
	entries := make([]ai.CompleterEntry, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		provider, err := ai.NewProvider(p.Provider, p.Data)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.Name, err)
		}
		entries = append(entries, ai.CompleterEntry{
			Name:      p.Name,
			Completer: ai.NewCompleter(provider, p.Model),
		})
	}
	return ai.NewGroupCompleter(entries), nil
}
