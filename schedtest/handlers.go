package schedtest

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian/shiftboard/client"
	"github.com/meridian/shiftboard/grid"
)

const wireDate = "2006-01-02"

// =============================================================================
// AUTH
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed login form")
		return
	}
	loginID := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.LoginID == loginID && m.Password == password && m.Active {
			token := uuid.NewString()
			s.tokens[token] = m.ID
			writeJSON(w, http.StatusOK, map[string]string{
				"access_token": token,
				"token_type":   "bearer",
			})
			return
		}
	}
	writeDetail(w, http.StatusUnauthorized, "Incorrect login ID or password")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authed(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	m := s.members[userID]
	s.mu.Unlock()
	if m == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(m))
}

// =============================================================================
// USERS
// =============================================================================

func toMemberDTO(m *member) client.Member {
	return client.Member{ID: m.ID, Name: m.Name, LoginID: m.LoginID, Role: m.Role, Active: m.Active}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	s.mu.Lock()
	out := make([]client.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, toMemberDTO(m))
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	var in client.NewMember
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Name == "" || in.LoginID == "" {
		writeDetail(w, http.StatusBadRequest, "Name and login ID are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.LoginID == in.LoginID {
			writeDetail(w, http.StatusConflict, "Login ID already taken")
			return
		}
	}
	m := &member{
		ID:       uuid.NewString(),
		Name:     in.Name,
		LoginID:  in.LoginID,
		Password: in.Password,
		Role:     in.Role,
		Active:   true,
	}
	s.members[m.ID] = m
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[chi.URLParam(r, "id")]
	if m == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	m.Active = false
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SHIFTS
// =============================================================================

func toShiftDTO(t *shift) client.ShiftTemplate {
	return client.ShiftTemplate{
		ID: t.ID, Name: t.Name, Weekday: t.Weekday,
		StartTime: t.StartTime, EndTime: t.EndTime, Location: t.Location,
	}
}

func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	s.mu.Lock()
	out := make([]client.ShiftTemplate, 0, len(s.shifts))
	for _, t := range s.shifts {
		out = append(out, toShiftDTO(t))
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartTime < out[j].StartTime
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	var in client.ShiftTemplate
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &shift{
		ID: uuid.NewString(), Name: in.Name, Weekday: in.Weekday,
		StartTime: in.StartTime, EndTime: in.EndTime, Location: in.Location,
	}
	s.shifts[t.ID] = t
	writeJSON(w, http.StatusCreated, toShiftDTO(t))
}

func (s *Server) handleEnsureShift(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	var in struct {
		Weekday   int `json:"weekday"`
		StartHour int `json:"start_hour"`
		EndHour   int `json:"end_hour"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.StartHour >= in.EndHour || !grid.Weekday(in.Weekday).Valid() {
		writeDetail(w, http.StatusBadRequest, "Invalid slot bounds")
		return
	}
	s.mu.Lock()
	id := s.ensureShiftLocked(in.Weekday, in.StartHour, in.EndHour)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) ensureShiftLocked(weekday, startHour, endHour int) string {
	start := grid.FormatClock(startHour * 60)
	end := grid.FormatClock(endHour * 60)
	for _, t := range s.shifts {
		if t.Weekday == weekday && t.StartTime == start && t.EndTime == end {
			return t.ID
		}
	}
	t := &shift{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("%s %02d-%02d", grid.Weekday(weekday), startHour, endHour),
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
	}
	s.shifts[t.ID] = t
	return t.ID
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

type assignPayload struct {
	UserID    string  `json:"user_id"`
	ValidFrom string  `json:"valid_from"`
	ValidTo   *string `json:"valid_to"`
	Weekday   int     `json:"weekday"`
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
	ShiftID   string  `json:"shift_id"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	var in assignPayload
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, detail := s.buildAssignmentLocked(in)
	if detail != "" {
		writeDetail(w, http.StatusConflict, detail)
		return
	}
	if a != nil {
		s.assignments[a.ID] = a
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	var in struct {
		UserID    string  `json:"user_id"`
		ValidFrom string  `json:"valid_from"`
		ValidTo   *string `json:"valid_to"`
		Ranges    []struct {
			Weekday   int    `json:"weekday"`
			StartHour int    `json:"start_hour"`
			EndHour   int    `json:"end_hour"`
			ShiftID   string `json:"shift_id"`
		} `json:"ranges"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(in.Ranges) == 0 {
		writeDetail(w, http.StatusBadRequest, "No ranges to assign")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.IdempotencyKey != "" {
		if _, seen := s.idemKeys[in.IdempotencyKey]; seen {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	// Validate everything before applying anything.
	staged := make([]*assignment, 0, len(in.Ranges))
	for _, rng := range in.Ranges {
		a, detail := s.buildAssignmentLocked(assignPayload{
			UserID: in.UserID, ValidFrom: in.ValidFrom, ValidTo: in.ValidTo,
			Weekday: rng.Weekday, StartHour: rng.StartHour, EndHour: rng.EndHour,
			ShiftID: rng.ShiftID,
		})
		if detail != "" {
			writeDetail(w, http.StatusConflict, detail)
			return
		}
		if a != nil {
			staged = append(staged, a)
		}
	}
	for _, a := range staged {
		s.assignments[a.ID] = a
	}
	if in.IdempotencyKey != "" {
		s.idemKeys[in.IdempotencyKey] = struct{}{}
	}
	w.WriteHeader(http.StatusNoContent)
}

// buildAssignmentLocked validates one assignment against stored state
// and returns it unapplied, or a conflict detail.
func (s *Server) buildAssignmentLocked(in assignPayload) (*assignment, string) {
	if s.members[in.UserID] == nil {
		return nil, "Unknown user"
	}
	validFrom, err := time.Parse(wireDate, in.ValidFrom)
	if err != nil {
		return nil, "Malformed valid_from date"
	}
	var validTo *time.Time
	if in.ValidTo != nil && *in.ValidTo != "" {
		t, err := time.Parse(wireDate, *in.ValidTo)
		if err != nil {
			return nil, "Malformed valid_to date"
		}
		validTo = &t
	}

	shiftID := in.ShiftID
	if shiftID == "" {
		shiftID = s.ensureShiftLocked(in.Weekday, in.StartHour, in.EndHour)
	}
	t := s.shifts[shiftID]
	if t == nil {
		return nil, "Unknown shift"
	}

	newStart, _ := grid.ParseClock(t.StartTime)
	newEnd, _ := grid.ParseClock(t.EndTime)
	for _, existing := range s.assignments {
		if existing.UserID != in.UserID {
			continue
		}
		// Re-assigning the identical shift is absorbed, not a conflict.
		if existing.ShiftID == shiftID && windowsOverlap(validFrom, validTo, existing.ValidFrom, existing.ValidTo) {
			return nil, ""
		}
		other := s.shifts[existing.ShiftID]
		if other == nil || other.Weekday != t.Weekday {
			continue
		}
		oldStart, _ := grid.ParseClock(other.StartTime)
		oldEnd, _ := grid.ParseClock(other.EndTime)
		if newStart < oldEnd && oldStart < newEnd && windowsOverlap(validFrom, validTo, existing.ValidFrom, existing.ValidTo) {
			return nil, fmt.Sprintf("Slot already assigned: %s %s-%s", grid.Weekday(t.Weekday), other.StartTime, other.EndTime)
		}
	}

	return &assignment{
		ID: uuid.NewString(), UserID: in.UserID, ShiftID: shiftID,
		ValidFrom: validFrom, ValidTo: validTo,
	}, ""
}

func windowsOverlap(aFrom time.Time, aTo *time.Time, bFrom time.Time, bTo *time.Time) bool {
	if aTo != nil && aTo.Before(bFrom) {
		return false
	}
	if bTo != nil && bTo.Before(aFrom) {
		return false
	}
	return true
}

// =============================================================================
// SCHEDULE VIEWS
// =============================================================================

type eventDTO struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	ShiftID   string `json:"shift_id"`
	UserName  string `json:"user_name,omitempty"`
	Source    string `json:"source,omitempty"`
	ValidFrom string `json:"valid_from,omitempty"`
	ValidTo   string `json:"valid_to,omitempty"`
}

func (s *Server) handleWeeklyView(w http.ResponseWriter, r *http.Request) {
	s.serveWeek(w, r, true)
}

func (s *Server) handleWeeklyBase(w http.ResponseWriter, r *http.Request) {
	s.serveWeek(w, r, false)
}

func (s *Server) serveWeek(w http.ResponseWriter, r *http.Request, overlays bool) {
	callerID, ok := s.authed(w, r)
	if !ok {
		return
	}
	weekStart, err := time.Parse(wireDate, r.URL.Query().Get("start"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed start date")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = callerID
	}

	s.mu.Lock()
	events := s.weekEventsLocked(userID, weekStart, overlays)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) weekEventsLocked(userID string, weekStart time.Time, overlays bool) []eventDTO {
	userName := ""
	if m := s.members[userID]; m != nil {
		userName = m.Name
	}

	events := []eventDTO{}
	for day := 0; day < 7; day++ {
		date := weekStart.AddDate(0, 0, day)

		for _, a := range s.assignments {
			if a.UserID != userID {
				continue
			}
			t := s.shifts[a.ShiftID]
			if t == nil || t.Weekday != day {
				continue
			}
			if date.Before(a.ValidFrom) || (a.ValidTo != nil && date.After(*a.ValidTo)) {
				continue
			}
			if overlays && s.absenceApprovedLocked(userID, date, a.ShiftID) {
				continue
			}
			ev := eventDTO{
				Date:      date.Format(wireDate),
				StartTime: t.StartTime,
				EndTime:   t.EndTime,
				ShiftID:   t.ID,
				UserName:  userName,
				Source:    string(grid.SourceBase),
				ValidFrom: a.ValidFrom.Format(wireDate),
			}
			if a.ValidTo != nil {
				ev.ValidTo = a.ValidTo.Format(wireDate)
			}
			events = append(events, ev)
		}

		if !overlays {
			continue
		}
		for _, req := range s.requests {
			if req.UserID != userID || req.Type != string(grid.RequestExtra) ||
				req.Status != "APPROVED" || !req.TargetDate.Equal(date) {
				continue
			}
			for _, shiftID := range req.ShiftIDs {
				t := s.shifts[shiftID]
				if t == nil {
					continue
				}
				events = append(events, eventDTO{
					Date:      date.Format(wireDate),
					StartTime: t.StartTime,
					EndTime:   t.EndTime,
					ShiftID:   t.ID,
					UserName:  userName,
					Source:    string(grid.SourceExtra),
				})
			}
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].StartTime < events[j].StartTime
	})
	return events
}

func (s *Server) absenceApprovedLocked(userID string, date time.Time, shiftID string) bool {
	for _, req := range s.requests {
		if req.UserID != userID || req.Type != string(grid.RequestAbsence) ||
			req.Status != "APPROVED" || !req.TargetDate.Equal(date) {
			continue
		}
		for _, id := range req.ShiftIDs {
			if id == shiftID {
				return true
			}
		}
	}
	return false
}

func (s *Server) handleGlobal(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	type windowDTO struct {
		Weekday   int    `json:"weekday"`
		ValidFrom string `json:"valid_from,omitempty"`
		ValidTo   string `json:"valid_to,omitempty"`
	}

	s.mu.Lock()
	out := []windowDTO{}
	for _, a := range s.assignments {
		t := s.shifts[a.ShiftID]
		if t == nil {
			continue
		}
		dto := windowDTO{Weekday: t.Weekday, ValidFrom: a.ValidFrom.Format(wireDate)}
		if a.ValidTo != nil {
			dto.ValidTo = a.ValidTo.Format(wireDate)
		}
		out = append(out, dto)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}
