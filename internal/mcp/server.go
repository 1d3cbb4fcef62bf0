package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/posereps/internal/exercise"
)

// New creates an MCP server with all tools and resources registered.
// profiles backs the exercise catalog; nil means the stock thresholds.
func New(ds DataSource, profiles exercise.Profiles, version string, log *slog.Logger) *server.MCPServer {
	if profiles == nil {
		profiles = exercise.DefaultProfiles()
	}

	s := server.NewMCPServer("PoseReps", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("PoseReps exercise tracking server. Query completed repetitions, per-exercise totals, training sessions, and the thresholds used to count tree pose, squat, pushup and jumping jack reps."),
	)

	h := &handlers{ds: ds, profiles: profiles, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetRepHistory, Handler: h.getRepHistory},
		server.ServerTool{Tool: toolGetExerciseTotals, Handler: h.getExerciseTotals},
		server.ServerTool{Tool: toolGetRepSummary, Handler: h.getRepSummary},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDailySummary, Handler: h.dailySummary},
		server.ServerResource{Resource: resRecentReps, Handler: h.recentReps},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds       DataSource
	profiles exercise.Profiles
	log      *slog.Logger
}

// --- Resource definitions ---

var resDailySummary = mcp.NewResource(
	"posereps://daily_summary",
	"Daily Summary",
	mcp.WithResourceDescription("Today's rep totals per exercise and the latest completed reps"),
	mcp.WithMIMEType("application/json"),
)

var resRecentReps = mcp.NewResource(
	"posereps://recent_reps",
	"Recent Reps",
	mcp.WithResourceDescription("Completed repetitions from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"posereps://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("Tracked exercises in cycling order with their joints and counting thresholds"),
	mcp.WithMIMEType("application/json"),
)
