package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/katakuxiko/mini-ia-inventario/internal/api"
	"github.com/katakuxiko/mini-ia-inventario/internal/config"
	"github.com/katakuxiko/mini-ia-inventario/internal/logger"
	"github.com/katakuxiko/mini-ia-inventario/internal/service"
	"github.com/katakuxiko/mini-ia-inventario/internal/store"
)

const (
	inventoryLoadTimeout = 10 * time.Second
	shutdownTimeout      = 5 * time.Second
)

func main() {
	// config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	appLog := logger.NewStructured(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = appLog.Sync() }()

	// inventario: без него сервер не стартует
	inv, err := loadInventory(cfg)
	if err != nil {
		fatal(appLog, "failed to load inventory", err)
	}
	appLog.Info("inventory loaded", map[string]interface{}{"entries": inv.Entries()})

	// services
	provider := service.NewProviderClient(cfg)
	if cfg.ProviderAPIKey == "" {
		appLog.Warn("OPENROUTER_API_KEY is not set, chat requests will fail", nil)
	}
	relay := service.NewRelayService(inv, provider)

	// api
	app := fiber.New(api.NewConfig(appLog))
	api.RegisterRoutes(app, api.NewHandler(relay, inv, provider.Model(), appLog), cfg.StaticDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			appLog.Error("shutdown error", map[string]interface{}{"error": err.Error()})
		}
	}()

	appLog.Info("server listening", map[string]interface{}{"url": "http://localhost:" + cfg.Port, "model": provider.Model()})
	if err := app.Listen(cfg.ListenAddr()); err != nil {
		fatal(appLog, "server stopped", err)
	}
}

func loadInventory(cfg *config.Config) (*store.Inventory, error) {
	if !cfg.UsesPostgresInventory() {
		return store.LoadInventoryFile(cfg.InventoryPath)
	}
	ctx, cancel := context.WithTimeout(context.Background(), inventoryLoadTimeout)
	defer cancel()
	return store.OpenInventoryPostgres(ctx, cfg.InventoryPGConn, cfg.InventoryQuery)
}

func fatal(l logger.Logger, msg string, err error) {
	l.WithError(err).Error(msg, nil)
	_ = l.Sync()
	os.Exit(1)
}
