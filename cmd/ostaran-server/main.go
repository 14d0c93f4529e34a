package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ostaran/agentcore/internal/server"
	"github.com/ostaran/agentcore/pkg/config"
	"github.com/ostaran/agentcore/pkg/llm/factory"
	"github.com/ostaran/agentcore/pkg/logger"
	"github.com/ostaran/agentcore/pkg/mcp"
	"github.com/ostaran/agentcore/pkg/orchestrator"
	"github.com/ostaran/agentcore/pkg/store"
	"github.com/ostaran/agentcore/pkg/websearch"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	zlog, err := logger.New(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	providers := factory.New(factory.Config{
		AnthropicAPIKey:  cfg.Providers.AnthropicAPIKey,
		AnthropicBaseURL: cfg.Providers.AnthropicBaseURL,
		AnthropicModel:   cfg.Providers.AnthropicModel,
		OpenAIAPIKey:     cfg.Providers.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.Providers.OpenAIBaseURL,
		OpenAIModel:      cfg.Providers.OpenAIModel,
		GoogleAPIKey:     cfg.Providers.GeminiAPIKey,
		GeminiBaseURL:    cfg.Providers.GeminiBaseURL,
		GeminiModel:      cfg.Providers.GeminiModel,
	})

	manager := mcp.NewManager(zlog)
	if cfg.MCP.ServersFile != "" {
		configs, err := mcp.LoadServerConfigs(cfg.MCP.ServersFile)
		if err != nil {
			zlog.Fatal("load mcp servers", zap.Error(err))
		}
		for _, sc := range configs {
			if err := manager.AddServerConfig(sc); err != nil {
				zlog.Fatal("register mcp server", zap.String("server", sc.Name), zap.Error(err))
			}
		}
	}
	registry := mcp.NewRegistry(manager, zlog)
	invoker := mcp.NewInvoker(manager, zlog)

	startupCtx := context.Background()
	manager.ConnectAll(startupCtx)
	registry.RefreshAll(startupCtx)
	defer func() {
		if err := manager.DisconnectAll(); err != nil {
			zlog.Warn("mcp disconnect", zap.Error(err))
		}
	}()

	srv := server.New(server.Deps{
		Config:   cfg.Server,
		Log:      zlog,
		Factory:  providers,
		Orch:     orchestrator.New(registry, invoker, zlog),
		Manager:  manager,
		Registry: registry,
		Search:   websearch.NewClient(websearch.Config{APIKey: cfg.Search.TavilyAPIKey}, zlog),
		Store:    store.New(),
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Router(),
	}

	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown failed", zap.Error(err))
	}
}
