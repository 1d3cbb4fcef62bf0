package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/pose"
	"github.com/meltforce/posereps/internal/storage"
	"github.com/meltforce/posereps/internal/trainer"
)

// Store is the persistence the API needs.
type Store interface {
	CreateSession(ctx context.Context, row models.SessionRow) error
	EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error
	QuerySessions(ctx context.Context, limit int) ([]models.SessionRow, error)
	RecordRep(ctx context.Context, ev models.RepEvent) error
	QueryRepEvents(ctx context.Context, f storage.RepFilter) ([]models.RepEvent, error)
	GetExerciseTotals(ctx context.Context, start, end time.Time) ([]models.ExerciseTotal, error)
	GetRepSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.RepSummaryPeriod, error)
	GetRepStats(ctx context.Context) (*storage.RepStats, error)
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)

// Options carries the server's dependencies.
type Options struct {
	Store     Store
	Profiles  exercise.Profiles
	Extractor pose.Extractor
	// Clock times live sessions. Nil means the wall clock.
	Clock exercise.Clock
	// Narrator receives spoken messages for every live session. Optional.
	Narrator trainer.Announcer
	// Sinks receive rep events in addition to Store, e.g. the JSON rep log.
	Sinks  []trainer.RepSink
	APIKey string
	Log    *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     Store
	sessions  *trainer.Registry
	profiles  exercise.Profiles
	extractor pose.Extractor
	clock     exercise.Clock
	narrator  trainer.Announcer
	sinks     []trainer.RepSink
	log       *slog.Logger
	apiKey    string
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(opts Options) *Server {
	if opts.Profiles == nil {
		opts.Profiles = exercise.DefaultProfiles()
	}
	if opts.Extractor.Cutoff == 0 {
		opts.Extractor = pose.NewExtractor(0)
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	s := &Server{
		store:     opts.Store,
		sessions:  trainer.NewRegistry(),
		profiles:  opts.Profiles,
		extractor: opts.Extractor,
		clock:     opts.Clock,
		narrator:  opts.Narrator,
		sinks:     append([]trainer.RepSink{opts.Store}, opts.Sinks...),
		log:       opts.Log,
		apiKey:    opts.APIKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/v1/exercises", s.handleListExercises)

	// Live sessions (API key required)
	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleEndSession)
			r.Post("/frames", s.handleFrame)
			r.Post("/next", s.handleNextExercise)
			r.Post("/exercise", s.handleSelectExercise)
			r.Post("/reset", s.handleResetSession)
		})
	})

	// History endpoints (no auth, tsnet handles access)
	s.router.Get("/api/v1/reps", s.handleQueryReps)
	s.router.Get("/api/v1/reps/totals", s.handleExerciseTotals)
	s.router.Get("/api/v1/reps/summary", s.handleRepSummary)
	s.router.Get("/api/v1/stats", s.handleStats)
}

// MountMCP serves the MCP streamable HTTP endpoint at /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}
