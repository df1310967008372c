package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nexmosms/internal/config"
	"nexmosms/internal/constants"
	"nexmosms/internal/models"
	"nexmosms/internal/webhook"
	"nexmosms/pkg/nexmo/types"

	"github.com/sirupsen/logrus"
)

func runServe(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("serve")
	port := fs.Int("port", a.cfg.Server.Port, "Port to listen on")
	autoReply := fs.String("auto-reply", a.cfg.Server.AutoReply, "Text sent back to every inbound message")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	serverCfg := a.cfg.Server
	serverCfg.Port = *port
	serverCfg.AutoReply = *autoReply

	server := webhook.NewServer(serverCfg, a.messages, a.logger)
	server.OnReceipt(func(r types.Receipt) {
		if r.Status == types.ReceiptFailed || r.Status == types.ReceiptExpired {
			a.logger.WithField("status", r.Status).Warn("Message was not delivered")
		}
	})

	if a.configPath != "" {
		watcher := config.NewConfigWatcher(a.configPath, config.DefaultWatchInterval, a.logger)
		// Callbacks can finish out of order; always apply the latest load.
		watcher.OnConfigChange(func(*models.Config) {
			a.applyReload(server, watcher.GetConfig())
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				a.logger.WithError(err).Warn("Configuration watcher stopped")
			}
		}()
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		a.logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultGracefulShutdownSec*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	a.logger.WithFields(logrus.Fields{"port": serverCfg.Port}).Info("Server shutdown completed")
	return nil
}

// applyReload carries the settings that can change without a restart.
func (a *app) applyReload(server *webhook.Server, c *models.Config) {
	if c == nil {
		return
	}
	server.SetAutoReply(c.Server.AutoReply)
	applyLogLevel(a.logger, c.LogLevel, a.verbose)
}
