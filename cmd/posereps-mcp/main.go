package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/posereps/internal/config"
	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "PoseReps server URL")
	apiKey := flag.String("api-key", "", "API key for the PoseReps server (default: $POSEREPS_AUTH_API_KEY)")
	configPath := flag.String("config", "", "config file to read thresholds from (optional)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("posereps-mcp", Version)
		return
	}

	// stdout carries the protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *apiKey == "" {
		*apiKey = os.Getenv("POSEREPS_AUTH_API_KEY")
	}

	profiles := exercise.DefaultProfiles()
	if *configPath != "" {
		cfg, err := config.Parse(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		if profiles, err = cfg.Profiles(); err != nil {
			log.Error("invalid thresholds", "error", err)
			os.Exit(1)
		}
	}

	client := mcp.NewHTTPClient(*serverURL, *apiKey)
	s := mcp.New(client, profiles, Version, log)

	log.Info("serving MCP over stdio", "server", *serverURL)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("stdio server failed", "error", err)
		os.Exit(1)
	}
}
