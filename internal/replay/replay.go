// Package replay runs recorded pose streams through the tracking pipeline,
// timing every frame by its own timestamp instead of the wall clock.
package replay

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/pose"
	"github.com/meltforce/posereps/internal/trainer"
)

// SessionRecorder persists the session a replay creates. Optional.
type SessionRecorder interface {
	CreateSession(ctx context.Context, row models.SessionRow) error
	EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error
}

// Options configures a Replayer.
type Options struct {
	Profiles  exercise.Profiles
	Extractor pose.Extractor
	// Exercise is the starting exercise; empty means the first in the catalog.
	Exercise models.ExerciseKind
	Sinks    []trainer.RepSink
	Sessions SessionRecorder
	Narrator trainer.Announcer
	Log      *slog.Logger
}

// Result summarizes one replayed stream.
type Result struct {
	Source    string                      `json:"source"`
	SessionID uuid.UUID                   `json:"session_id"`
	Frames    int                         `json:"frames"`
	Switches  int                         `json:"switches"`
	Reps      map[models.ExerciseKind]int `json:"reps"`
	Start     time.Time                   `json:"start"`
	End       time.Time                   `json:"end"`
	// Partial marks a stream that stopped early after its reps reached the sinks.
	Partial bool `json:"partial"`
}

// TotalReps sums reps over all exercises.
func (r Result) TotalReps() int {
	n := 0
	for _, c := range r.Reps {
		n += c
	}
	return n
}

// Duration is the span between the first and last frame.
func (r Result) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Replayer feeds pose streams through a fresh session per stream.
type Replayer struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options) *Replayer {
	if opts.Profiles == nil {
		opts.Profiles = exercise.DefaultProfiles()
	}
	if opts.Extractor.Cutoff == 0 {
		opts.Extractor = pose.NewExtractor(0)
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Replayer{opts: opts, log: opts.Log}
}

// File replays the JSON-lines stream at path. Paths ending in .gz are
// decompressed on the fly.
func (rp *Replayer) File(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return rp.Run(ctx, r, path)
}

// IsRecording reports whether name looks like a pose recording.
func IsRecording(name string) bool {
	return strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".jsonl.gz")
}

// Run replays one stream read from r. source names it in logs and in the
// stored session. Frames must be in time order.
func (rp *Replayer) Run(ctx context.Context, r io.Reader, source string) (*Result, error) {
	clock := &trainer.FrameClock{}
	sess, err := trainer.NewSession(trainer.SessionConfig{
		Source:   source,
		Exercise: rp.opts.Exercise,
		Profiles: rp.opts.Profiles,
		Clock:    clock,
		Sinks:    rp.opts.Sinks,
		Narrator: rp.opts.Narrator,
		Log:      rp.log,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Source:    source,
		SessionID: sess.ID(),
		Reps:      make(map[models.ExerciseKind]int),
	}
	dec := pose.NewDecoder(r)
	started := false

	for {
		if err := ctx.Err(); err != nil {
			return rp.abort(ctx, res, started, err)
		}

		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rp.abort(ctx, res, started, fmt.Errorf("%s: %w", source, err))
		}

		clock.Set(frame.Time)
		if !started {
			started = true
			res.Start = frame.Time
			if err := rp.recordStart(ctx, sess.ID(), source, frame.Time); err != nil {
				return res, err
			}
		}
		res.End = frame.Time
		res.Frames++

		if frame.Switch {
			res.Switches++
			sess.Next()
			continue
		}

		out := sess.Process(ctx, rp.opts.Extractor.FrameAngles(frame))
		if out.RepCompleted {
			res.Reps[out.Exercise]++
		}
	}

	if started {
		rp.endSession(ctx, res)
	}

	rp.log.Info("replay finished",
		"source", source,
		"frames", res.Frames,
		"reps", res.TotalReps(),
		"duration", res.Duration().String(),
	)
	return res, nil
}

// abort stops a stream that failed. Once frames were processed their reps
// are already in the sinks, so the session is closed and the result marked
// partial instead of being thrown away.
func (rp *Replayer) abort(ctx context.Context, res *Result, started bool, cause error) (*Result, error) {
	if !started {
		return res, cause
	}
	res.Partial = true
	rp.endSession(context.WithoutCancel(ctx), res)
	rp.log.Warn("replay stopped early",
		"source", res.Source,
		"frames", res.Frames,
		"reps", res.TotalReps(),
		"error", cause,
	)
	return res, cause
}

func (rp *Replayer) endSession(ctx context.Context, res *Result) {
	if rp.opts.Sessions == nil {
		return
	}
	if err := rp.opts.Sessions.EndSession(ctx, res.SessionID, res.End); err != nil {
		rp.log.Warn("ending replay session", "session", res.SessionID, "error", err)
	}
}

func (rp *Replayer) recordStart(ctx context.Context, id uuid.UUID, source string, at time.Time) error {
	if rp.opts.Sessions == nil {
		return nil
	}
	row := models.SessionRow{ID: id, Source: source, StartedAt: at}
	if err := rp.opts.Sessions.CreateSession(ctx, row); err != nil {
		return fmt.Errorf("recording session: %w", err)
	}
	return nil
}
