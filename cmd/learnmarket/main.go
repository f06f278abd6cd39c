package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"learn-market/internal/config"
	"learn-market/internal/handlers"
	"learn-market/internal/httpserver"
	"learn-market/internal/logging"
	"learn-market/internal/metrics"
	"learn-market/internal/notify"
)

func main() {
	var cfg config.Config
	err := cfg.ParseFlags()
	if err != nil {
		logging.Logg = logging.NewLogger("info")
		logging.Logg.Error("Server configuration error", "error", err)
		os.Exit(1)
	}

	logging.Logg = logging.NewLogger(cfg.LogLevel)
	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := notify.NewDispatcher(ctx, notify.LogSender{}, notify.MaxWorkers)
	dispatcher.Start()
	defer dispatcher.Stop()

	server, err := handlers.NewServer(cfg, dispatcher)
	if err != nil {
		logging.Logg.Error("Server creation error", "error", err)
		os.Exit(1)
	}

	httpServer, err := httpserver.New(cfg, server)
	if err != nil {
		logging.Logg.Error("Router creation error", "error", err)
		os.Exit(1)
	}
	httpServer.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := httpServer.Shutdown(ctx); err != nil {
		os.Exit(1)
	}
	dispatcher.Stop()
	dispatcher.Wait()
}
