/*
Package schedtest is an in-process scheduling backend for tests and demos.

PURPOSE:
  The console talks to a remote scheduling service. Tests (and the demo
  mode of cmd/console) need that service without a network: Server keeps
  the whole schedule in memory and exposes the same routes with the same
  envelopes, so the real client package runs against it unchanged.

ROUTER: chi

STATE:
  Everything lives in maps guarded by one mutex. Weekly views are
  computed on read: base assignments clipped to their validity window,
  approved absences subtracted, approved extras overlaid.

USAGE:
  srv := schedtest.NewServer()
  ts := httptest.NewServer(srv.Router())
  c := client.New(client.Config{BaseURL: ts.URL}, nil)

SEE ALSO:
  - client: the package this fake is shaped after
*/
package schedtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// member is one stored user, password included.
type member struct {
	ID       string
	Name     string
	LoginID  string
	Password string
	Role     string
	Active   bool
}

// shift is one weekly shift template.
type shift struct {
	ID        string
	Name      string
	Weekday   int
	StartTime string
	EndTime   string
	Location  string
}

// assignment binds a member to a shift over a validity window.
type assignment struct {
	ID        string
	UserID    string
	ShiftID   string
	ValidFrom time.Time
	ValidTo   *time.Time
}

// request is one leave/extra-work request.
type request struct {
	ID         string
	UserID     string
	Type       string
	TargetDate time.Time
	ShiftIDs   []string
	Status     string
	Reason     string
}

// notice is one announcement.
type notice struct {
	ID       string
	Title    string
	Body     string
	Type     string
	Channel  string
	Scope    string
	Priority int
	Active   bool
}

// historyEntry is one action-log row.
type historyEntry struct {
	CreatedAt  time.Time
	ActionType string
	ActorName  string
	TargetName string
	RequestID  string
}

// Server is the in-memory backend. Safe for concurrent use.
type Server struct {
	mu          sync.Mutex
	members     map[string]*member
	shifts      map[string]*shift
	assignments map[string]*assignment
	requests    map[string]*request
	notices     map[string]*notice
	history     []historyEntry
	tokens      map[string]string // token -> user id
	idemKeys    map[string]struct{}
	router      *chi.Mux
}

// NewServer returns an empty backend with the routes wired.
func NewServer() *Server {
	s := &Server{
		members:     make(map[string]*member),
		shifts:      make(map[string]*shift),
		assignments: make(map[string]*assignment),
		requests:    make(map[string]*request),
		notices:     make(map[string]*notice),
		tokens:      make(map[string]string),
		idemKeys:    make(map[string]struct{}),
	}
	s.router = s.routes()
	return s
}

// Router returns the HTTP handler, ready for httptest.NewServer.
func (s *Server) Router() *chi.Mux { return s.router }

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/auth/login", s.handleLogin)
	r.Get("/auth/me", s.handleMe)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)
		r.Delete("/{id}", s.handleDeactivateUser)
	})

	r.Route("/schedule", func(r chi.Router) {
		r.Get("/shifts", s.handleListShifts)
		r.Post("/shifts", s.handleCreateShift)
		r.Post("/shifts/ensure", s.handleEnsureShift)
		r.Post("/assign", s.handleAssign)
		r.Post("/assign/bulk", s.handleBulkAssign)
		r.Get("/weekly_view", s.handleWeeklyView)
		r.Get("/weekly_base", s.handleWeeklyBase)
		r.Get("/global", s.handleGlobal)
	})

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", s.handleSubmitRequest)
		r.Get("/my", s.handleMyRequests)
		r.Get("/pending", s.handlePendingRequests)
		r.Get("/feed", s.handleRequestFeed)
		r.Post("/{id}/approve", s.handleApproveRequest)
		r.Post("/{id}/reject", s.handleRejectRequest)
	})

	r.Route("/notices", func(r chi.Router) {
		r.Get("/", s.handleListNotices)
		r.Post("/", s.handleCreateNotice)
		r.Patch("/{id}", s.handleUpdateNotice)
		r.Delete("/{id}", s.handleDeleteNotice)
	})

	r.Get("/history", s.handleHistory)

	return r
}

// =============================================================================
// SEEDING
// =============================================================================

// SeedMember registers a user and returns its id.
func (s *Server) SeedMember(name, loginID, password, role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.members[id] = &member{ID: id, Name: name, LoginID: loginID, Password: password, Role: role, Active: true}
	return id
}

// SeedShift registers a shift template covering one hour run.
func (s *Server) SeedShift(weekday, startHour, endHour int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureShiftLocked(weekday, startHour, endHour)
}

// SeedAssignment binds a member to a shift starting at validFrom.
func (s *Server) SeedAssignment(userID, shiftID string, validFrom time.Time, validTo *time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.assignments[id] = &assignment{ID: id, UserID: userID, ShiftID: shiftID, ValidFrom: validFrom, ValidTo: validTo}
	return id
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// writeDetail mirrors the production error envelope.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// authed resolves the bearer token to a user id, writing a 401 on miss.
func (s *Server) authed(w http.ResponseWriter, r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	s.mu.Lock()
	userID, ok := s.tokens[header[len(prefix):]]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return "", false
	}
	return userID, true
}

func (s *Server) recordHistory(actionType, actorName, targetName, requestID string) {
	s.history = append(s.history, historyEntry{
		CreatedAt:  time.Now(),
		ActionType: actionType,
		ActorName:  actorName,
		TargetName: targetName,
		RequestID:  requestID,
	})
}
