package schedtest

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian/shiftboard/client"
)

// =============================================================================
// REQUEST WORKFLOW
// =============================================================================

func (s *Server) toRequestDTO(req *request) client.RequestRecord {
	userName := ""
	if m := s.members[req.UserID]; m != nil {
		userName = m.Name
	}
	return client.RequestRecord{
		ID:         req.ID,
		UserID:     req.UserID,
		UserName:   userName,
		Type:       req.Type,
		TargetDate: req.TargetDate.Format(wireDate),
		Status:     req.Status,
		Reason:     req.Reason,
	}
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.authed(w, r)
	if !ok {
		return
	}
	var in struct {
		Type           string   `json:"type"`
		UserID         string   `json:"user_id"`
		TargetDate     string   `json:"target_date"`
		ShiftIDs       []string `json:"shift_ids"`
		Reason         string   `json:"reason"`
		IdempotencyKey string   `json:"idempotency_key"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	targetDate, err := time.Parse(wireDate, in.TargetDate)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed target date")
		return
	}
	userID := in.UserID
	if userID == "" {
		userID = callerID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.IdempotencyKey != "" {
		if _, seen := s.idemKeys[in.IdempotencyKey]; seen {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	if s.members[userID] == nil {
		writeDetail(w, http.StatusNotFound, "Unknown user")
		return
	}

	req := &request{
		ID:         uuid.NewString(),
		UserID:     userID,
		Type:       in.Type,
		TargetDate: targetDate,
		ShiftIDs:   in.ShiftIDs,
		Status:     "PENDING",
		Reason:     in.Reason,
	}
	s.requests[req.ID] = req
	if in.IdempotencyKey != "" {
		s.idemKeys[in.IdempotencyKey] = struct{}{}
	}
	s.recordHistory("REQUEST_SUBMITTED", s.members[userID].Name, "", req.ID)
	writeJSON(w, http.StatusCreated, s.toRequestDTO(req))
}

func (s *Server) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.authed(w, r)
	if !ok {
		return
	}
	s.listRequests(w, func(req *request) bool { return req.UserID == callerID })
}

func (s *Server) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	s.listRequests(w, func(req *request) bool { return req.Status == "PENDING" })
}

func (s *Server) handleRequestFeed(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	status := r.URL.Query().Get("status")
	s.listRequests(w, func(req *request) bool {
		return status == "" || req.Status == status
	})
}

func (s *Server) listRequests(w http.ResponseWriter, keep func(*request) bool) {
	s.mu.Lock()
	out := []client.RequestRecord{}
	for _, req := range s.requests {
		if keep(req) {
			out = append(out, s.toRequestDTO(req))
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TargetDate > out[j].TargetDate })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decideRequest(w http.ResponseWriter, r *http.Request, status, action string) {
	callerID, ok := s.authed(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.requests[chi.URLParam(r, "id")]
	if req == nil {
		writeDetail(w, http.StatusNotFound, "Request not found")
		return
	}
	if req.Status != "PENDING" {
		writeDetail(w, http.StatusConflict, "Request already decided")
		return
	}
	req.Status = status

	actor := ""
	if m := s.members[callerID]; m != nil {
		actor = m.Name
	}
	target := ""
	if m := s.members[req.UserID]; m != nil {
		target = m.Name
	}
	s.recordHistory(action, actor, target, req.ID)
	writeJSON(w, http.StatusOK, s.toRequestDTO(req))
}

func (s *Server) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	s.decideRequest(w, r, "APPROVED", "REQUEST_APPROVED")
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	s.decideRequest(w, r, "REJECTED", "REQUEST_REJECTED")
}

// =============================================================================
// NOTICES
// =============================================================================

func toNoticeDTO(n *notice) client.Notice {
	return client.Notice{
		ID: n.ID, Title: n.Title, Body: n.Body, Type: n.Type,
		Channel: n.Channel, Scope: n.Scope, Priority: n.Priority, Active: n.Active,
	}
}

func (s *Server) handleListNotices(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	s.mu.Lock()
	out := []client.Notice{}
	for _, n := range s.notices {
		if n.Active {
			out = append(out, toNoticeDTO(n))
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	var in client.Notice
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Title == "" {
		writeDetail(w, http.StatusBadRequest, "Title is required")
		return
	}
	if in.Scope == "" {
		in.Scope = client.ScopeAll
	}
	s.mu.Lock()
	n := &notice{
		ID: uuid.NewString(), Title: in.Title, Body: in.Body, Type: in.Type,
		Channel: in.Channel, Scope: in.Scope, Priority: in.Priority, Active: true,
	}
	s.notices[n.ID] = n
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, toNoticeDTO(n))
}

func (s *Server) handleUpdateNotice(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	var in client.NoticePatch
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notices[chi.URLParam(r, "id")]
	if n == nil {
		writeDetail(w, http.StatusNotFound, "Notice not found")
		return
	}
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Body != nil {
		n.Body = *in.Body
	}
	if in.Priority != nil {
		n.Priority = *in.Priority
	}
	if in.Active != nil {
		n.Active = *in.Active
	}
	writeJSON(w, http.StatusOK, toNoticeDTO(n))
}

func (s *Server) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notices[chi.URLParam(r, "id")] == nil {
		writeDetail(w, http.StatusNotFound, "Notice not found")
		return
	}
	delete(s.notices, chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authed(w, r); !ok {
		return
	}
	s.mu.Lock()
	out := make([]client.HistoryEntry, 0, len(s.history))
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		out = append(out, client.HistoryEntry{
			CreatedAt:  h.CreatedAt,
			ActionType: h.ActionType,
			ActorName:  h.ActorName,
			TargetName: h.TargetName,
			RequestID:  h.RequestID,
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}
