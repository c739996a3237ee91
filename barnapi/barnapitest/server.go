// Package barnapitest provides an in-memory barn API for tests.
package barnapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"galpones/barnapi"
	"galpones/models"
)

// Server is a running fake barn API. It keeps barns in memory and enforces
// unique barn numbers the way the real service does.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int64
	barns    map[int64]models.Barn
	requests []*http.Request
	failNext int    // status for the next mutating request, 0 for none
	secret   []byte // when set, every request needs a bearer token signed with it
	rejected int
}

// NewServer starts a fake barn API. Callers must Close it.
func NewServer() *Server {
	s := &Server{nextID: 1, barns: map[int64]models.Barn{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// Seed stores barns directly, keeping their ids
func (s *Server) Seed(barns ...models.Barn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range barns {
		s.barns[b.ID] = b
		if b.ID >= s.nextID {
			s.nextID = b.ID + 1
		}
	}
}

// Reset drops every stored barn and request, then seeds barns
func (s *Server) Reset(barns ...models.Barn) {
	s.mu.Lock()
	s.barns = map[int64]models.Barn{}
	s.requests = nil
	s.failNext = 0
	s.rejected = 0
	s.nextID = 1
	s.mu.Unlock()

	s.Seed(barns...)
}

// RequireToken makes the server reject requests that do not carry a
// service token signed with secret, as the real API does when configured
// with one.
func (s *Server) RequireToken(secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = []byte(secret)
}

// Rejected returns how many requests failed token checks
func (s *Server) Rejected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected
}

// Barns returns the stored barns ordered by id
func (s *Server) Barns() []models.Barn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// FailNext makes the next create, update or delete answer with status
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = status
}

// Requests returns how many requests were received
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// MutatingRequests counts create, update and delete calls
func (s *Server) MutatingRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method != http.MethodGet {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request, nil when none arrived
func (s *Server) LastRequest() *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)

	w.Header().Set("Content-Type", "application/json")

	if len(s.secret) > 0 {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			s.rejected++
			writeError(w, http.StatusUnauthorized, "missing service token")
			return
		}
		if _, err := barnapi.ParseToken(token, s.secret); err != nil {
			s.rejected++
			writeError(w, http.StatusUnauthorized, "invalid service token")
			return
		}
	}

	if r.Method != http.MethodGet && s.failNext != 0 {
		status := s.failNext
		s.failNext = 0
		writeError(w, status, "injected failure")
		return
	}

	switch {
	case r.URL.Path == "/barns" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.sortedLocked())

	case r.URL.Path == "/barns" && r.Method == http.MethodPost:
		var draft models.BarnDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if s.numberTakenLocked(draft.BarnNumber, 0) {
			writeError(w, http.StatusConflict, "barn number already in use")
			return
		}
		b := models.Barn{ID: s.nextID, BarnNumber: draft.BarnNumber,
			ChickensInIt: draft.ChickensInIt, MaxCapacity: draft.MaxCapacity}
		s.barns[b.ID] = b
		s.nextID++
		writeJSON(w, http.StatusCreated, b)

	case strings.HasPrefix(r.URL.Path, "/barns/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/barns/"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid barn id")
			return
		}
		existing, ok := s.barns[id]
		if !ok {
			writeError(w, http.StatusNotFound, "barn not found")
			return
		}

		switch r.Method {
		case http.MethodPut:
			var draft models.BarnDraft
			if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			if s.numberTakenLocked(draft.BarnNumber, id) {
				writeError(w, http.StatusConflict, "barn number already in use")
				return
			}
			existing.BarnNumber = draft.BarnNumber
			existing.ChickensInIt = draft.ChickensInIt
			existing.MaxCapacity = draft.MaxCapacity
			s.barns[id] = existing
			writeJSON(w, http.StatusOK, existing)
		case http.MethodDelete:
			delete(s.barns, id)
			writeJSON(w, http.StatusOK, existing)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) numberTakenLocked(number int, exceptID int64) bool {
	for id, b := range s.barns {
		if id != exceptID && b.BarnNumber == number {
			return true
		}
	}
	return false
}

func (s *Server) sortedLocked() []models.Barn {
	list := make([]models.Barn, 0, len(s.barns))
	for _, b := range s.barns {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
