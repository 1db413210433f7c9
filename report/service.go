package report

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/reportflow/workflow"
)

// DefaultMaxIterations is the refinement budget when none is configured.
const DefaultMaxIterations = 2

// DefaultSessionTTL is the idle time after which a per-user session entry
// is evicted.
const DefaultSessionTTL = 30 * time.Minute

// Service runs the report workflow per user request.
//
// Requests for the same user are serialized through a per-user lock, so two
// concurrent questions from one conversation cannot interleave state.
// Distinct users run concurrently. Session entries are evicted after
// DefaultSessionTTL of inactivity to keep the map bounded.
type Service struct {
	engine        *workflow.Engine[State]
	maxIterations int
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
}

type session struct {
	mu       sync.Mutex
	lastSeen time.Time
}

// NewService creates a Service over a built workflow engine.
// maxIterations < 0 selects DefaultMaxIterations (0 is a valid budget:
// no reflection passes). A nil logger selects slog.Default().
func NewService(engine *workflow.Engine[State], maxIterations int, logger *slog.Logger) *Service {
	if maxIterations < 0 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:        engine,
		maxIterations: maxIterations,
		logger:        logger,
		sessions:      make(map[string]*session),
		ttl:           DefaultSessionTTL,
	}
}

// GenerateReport runs the full workflow for one query and returns the final
// report text. A fresh State is created per query; the run is checkpointed
// under the user ID plus a unique run suffix.
func (s *Service) GenerateReport(ctx context.Context, userID, query string) (string, error) {
	sess := s.acquire(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	runID := userID + "-" + uuid.NewString()
	initial := State{
		Query:         query,
		MaxIterations: s.maxIterations,
	}

	started := time.Now()
	final, err := s.engine.Run(ctx, runID, initial)
	if err != nil {
		s.logger.Error("report run failed", "run_id", runID, "error", err)
		return "", err
	}

	s.logger.Info("report generated",
		"run_id", runID,
		"iterations", final.IterationCount,
		"security_flag", final.SecurityFlag,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return final.FinalReport, nil
}

// acquire returns the session for userID, creating it if needed, and evicts
// idle sessions while holding the map lock.
func (s *Service) acquire(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if id == userID || time.Since(sess.lastSeen) < s.ttl {
			continue
		}
		// Only evict sessions nobody is currently running.
		if sess.mu.TryLock() {
			sess.mu.Unlock()
			delete(s.sessions, id)
		}
	}

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	sess.lastSeen = time.Now()
	return sess
}
