package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/meltforce/posereps/internal/config"
	"github.com/meltforce/posereps/internal/feedback"
	"github.com/meltforce/posereps/internal/mcp"
	"github.com/meltforce/posereps/internal/pose"
	"github.com/meltforce/posereps/internal/replog"
	"github.com/meltforce/posereps/internal/server"
	"github.com/meltforce/posereps/internal/storage"
	"github.com/meltforce/posereps/internal/trainer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	log.Info("PoseReps starting", "version", Version)

	profiles, err := cfg.Profiles()
	if err != nil {
		log.Error("invalid thresholds", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, cfg.Server.MigrationsPath); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect database
	db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Spoken feedback
	var speaker feedback.Speaker = feedback.LogSpeaker{Log: log}
	if cfg.Feedback.Command != "" {
		speaker = feedback.ParseCommand(cfg.Feedback.Command)
	}
	narrator := feedback.NewNarrator(speaker, cfg.Feedback.Cooldown, cfg.Feedback.QueueSize, log)
	go narrator.Run(ctx)
	defer narrator.Close()

	var sinks []trainer.RepSink
	if cfg.Feedback.RepLog != "" {
		rl, err := replog.Open(cfg.Feedback.RepLog, log)
		if err != nil {
			log.Error("failed to open rep log", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, rl)
		log.Info("rep log enabled", "path", rl.Path())
	}

	// Create server
	srv := server.New(server.Options{
		Store:     db,
		Profiles:  profiles,
		Extractor: pose.NewExtractor(cfg.Pose.ConfidenceCutoff),
		Narrator:  narrator,
		Sinks:     sinks,
		APIKey:    cfg.Auth.APIKey,
		Log:       log,
	})
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcp.New(db, profiles, Version, log)))

	// Start server: tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
			AuthKey:  cfg.Tailscale.AuthKey,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
