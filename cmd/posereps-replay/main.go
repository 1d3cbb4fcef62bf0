package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/meltforce/posereps/internal/config"
	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/feedback"
	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/pose"
	"github.com/meltforce/posereps/internal/replay"
	"github.com/meltforce/posereps/internal/replog"
	"github.com/meltforce/posereps/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type stats struct {
	results []*replay.Result
	skipped int
	errored int
}

func main() {
	configPath := flag.String("config", "", "path to config file (optional; enables database storage when it has a database section)")
	start := flag.String("exercise", "", "exercise to start each recording with (default: first in catalog)")
	repLog := flag.String("rep-log", "", "JSON rep log to append to (overrides feedback.rep_log)")
	stateDir := flag.String("state-dir", "", "directory for the replay state database (default: ~/.posereps-replay)")
	force := flag.Bool("force", false, "replay files even if they were replayed before")
	narrate := flag.Bool("narrate", false, "log narration messages while replaying")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("posereps-replay", Version)
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: posereps-replay [-config config.yaml] [-exercise squat] [-force] <file.jsonl[.gz]|dir>...\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	kind := models.ExerciseKind("")
	if *start != "" {
		k, err := models.ParseExerciseKind(*start)
		if err != nil {
			log.Error("invalid -exercise", "error", err)
			os.Exit(1)
		}
		kind = k
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := replay.Options{
		Exercise:  kind,
		Profiles:  exercise.DefaultProfiles(),
		Extractor: pose.NewExtractor(0),
		Log:       log,
	}

	// Optional config
	if *configPath != "" {
		cfg, err := config.Parse(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
		opts.Log = log

		if opts.Profiles, err = cfg.Profiles(); err != nil {
			log.Error("invalid thresholds", "error", err)
			os.Exit(1)
		}
		opts.Extractor = pose.NewExtractor(cfg.Pose.ConfidenceCutoff)
		if *repLog == "" {
			*repLog = cfg.Feedback.RepLog
		}

		if cfg.Database.Host != "" {
			db, err := storage.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
			if err != nil {
				log.Error("failed to connect database", "error", err)
				os.Exit(1)
			}
			defer db.Close()
			opts.Sinks = append(opts.Sinks, db)
			opts.Sessions = db
			log.Info("database connected")
		}
	}

	if *repLog != "" {
		rl, err := replog.Open(*repLog, log)
		if err != nil {
			log.Error("failed to open rep log", "error", err)
			os.Exit(1)
		}
		opts.Sinks = append(opts.Sinks, rl)
	}

	if *narrate {
		narrator := feedback.NewNarrator(feedback.LogSpeaker{Log: log}, 0, 0, log)
		go narrator.Run(ctx)
		defer narrator.Close()
		opts.Narrator = narrator
	}

	// Open state database
	if *stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(homeDir, ".posereps-replay")
	}
	state, err := replay.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	files, err := collectFiles(flag.Args())
	if err != nil {
		log.Error("collecting recordings", "error", err)
		os.Exit(1)
	}

	rp := replay.New(opts)
	var st stats
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		replayOne(ctx, rp, state, path, *force, log, &st)
	}

	printStats(st)
	if st.errored > 0 {
		os.Exit(1)
	}
}

func replayOne(ctx context.Context, rp *replay.Replayer, state *replay.StateDB, path string, force bool, log *slog.Logger, st *stats) {
	fp, err := replay.FingerprintFile(path)
	if err != nil {
		log.Error("reading recording failed", "path", path, "error", err)
		st.errored++
		return
	}

	if !force {
		prev, err := state.Lookup(path, fp)
		if err != nil {
			log.Warn("state lookup failed", "path", path, "error", err)
		}
		if prev != nil {
			if prev.Partial {
				log.Warn("skipping, stopped early on a previous run (use -force to replay again)",
					"path", path, "session", prev.SessionID, "frames", prev.Frames, "reps", prev.Reps)
			} else {
				log.Info("skipping, already replayed",
					"path", path, "session", prev.SessionID, "reps", prev.Reps,
					"replayed_at", prev.ReplayedAt.Format(time.RFC3339))
			}
			st.skipped++
			return
		}
	}

	res, err := rp.File(ctx, path)
	if err != nil {
		log.Error("replay failed", "path", path, "error", err)
		st.errored++
		// Reps of a partial replay are already stored; remember the file so
		// a rerun does not record them twice.
		if res == nil || !res.Partial {
			return
		}
	} else {
		st.results = append(st.results, res)
	}

	if err := state.MarkReplayed(path, fp, res); err != nil {
		log.Warn("recording replay state failed", "path", path, "error", err)
	}
}

// collectFiles expands directories to the recordings beneath them.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && replay.IsRecording(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return files, nil
}

func printStats(st stats) {
	header := color.New(color.FgGreen, color.Bold).SprintFunc()
	name := color.New(color.FgCyan, color.Bold).SprintFunc()
	count := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	totals := make(map[models.ExerciseKind]int)
	frames := 0
	for _, r := range st.results {
		frames += r.Frames
		for k, n := range r.Reps {
			totals[k] += n
		}
	}

	fmt.Println()
	fmt.Println(header("=== Replay Summary ==="))
	fmt.Printf("  Files replayed:   %d\n", len(st.results))
	fmt.Printf("  Files skipped:    %d (already replayed)\n", st.skipped)
	if st.errored > 0 {
		fmt.Printf("  Files errored:    %s\n", red(st.errored))
	} else {
		fmt.Printf("  Files errored:    %d\n", st.errored)
	}
	fmt.Printf("  Frames:           %d\n", frames)
	fmt.Println()
	for _, k := range models.Catalog {
		fmt.Printf("  %s  %s reps\n", name(fmt.Sprintf("%-16s", k.Title())), count(totals[k]))
	}
	for _, r := range st.results {
		fmt.Printf("\n  %s  %d reps in %s\n", r.Source, r.TotalReps(), r.Duration().Round(100*time.Millisecond))
	}
	fmt.Println()
}
