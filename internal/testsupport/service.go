package testsupport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// APIPrefix is the path prefix the fake service listens under.
const APIPrefix = "/request/api/"

// Route names accepted by Service.Fail.
const (
	RouteStatus  = "status"
	RouteActive  = "active"
	RouteEnqueue = "enqueue"
	RouteCancel  = "cancel"
	RouteClear   = "clear"
	RouteSearch  = "search"
	RouteInfo    = "info"
)

var bucketOrder = []string{"queued", "downloading", "completed", "error"}

// Record is a job as the fake service stores it.
type Record struct {
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
}

// Book is a catalog entry served by /search and /info.
type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Call records one request the service received.
type Call struct {
	Method string
	Route  string
	ID     string
}

// Service is an in-memory stand-in for the book request API.
type Service struct {
	mu       sync.Mutex
	buckets  map[string][]Record
	catalog  []Book
	failures map[string]int
	calls    []Call
	server   *httptest.Server
}

// NewService starts a fake service that is shut down with the test.
func NewService(t testing.TB) *Service {
	t.Helper()
	s := &Service{
		buckets:  make(map[string][]Record),
		failures: make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

// URL is the service root without the API prefix.
func (s *Service) URL() string { return s.server.URL }

// Progress returns a pointer for Record.Progress.
func Progress(p float64) *float64 { return &p }

// Set replaces the jobs in one bucket.
func (s *Service) Set(bucket string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket] = append([]Record(nil), records...)
}

// Move transfers a job to another bucket, as the server would when a
// download starts or finishes.
func (s *Service) Move(id, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.removeLocked(id, bucketOrder...); ok {
		s.buckets[to] = append(s.buckets[to], rec)
	}
}

// AddBooks extends the search catalog.
func (s *Service) AddBooks(books ...Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append(s.catalog, books...)
}

// Fail makes a route answer with the given status code. Zero clears it.
func (s *Service) Fail(route string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = code
}

// Calls returns the requests seen so far.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CountCalls counts requests to one route.
func (s *Service) CountCalls(route string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Route == route {
			n++
		}
	}
	return n
}

// Len returns the number of jobs in a bucket.
func (s *Service) Len(bucket string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets[bucket])
}

func (s *Service) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, APIPrefix)
	route, id := classify(r.Method, path, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Route: route, ID: id})

	if route == "" {
		http.NotFound(w, r)
		return
	}
	if code, ok := s.failures[route]; ok {
		http.Error(w, "forced failure", code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch route {
	case RouteStatus:
		_, _ = w.Write(s.statusLocked())
	case RouteActive:
		ids := []string{}
		for _, rec := range s.buckets["downloading"] {
			ids = append(ids, rec.ID)
		}
		_ = json.NewEncoder(w).Encode(map[string][]string{"active_downloads": ids})
	case RouteEnqueue:
		title := ""
		for _, b := range s.catalog {
			if b.ID == id {
				title = b.Title
			}
		}
		s.buckets["queued"] = append(s.buckets["queued"], Record{ID: id, Title: title})
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
	case RouteCancel:
		if _, ok := s.removeLocked(id, "queued", "downloading"); !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
	case RouteClear:
		s.buckets["completed"] = nil
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
	case RouteSearch:
		q := strings.ToLower(r.URL.Query().Get("query"))
		out := []Book{}
		for _, b := range s.catalog {
			if strings.Contains(strings.ToLower(b.Title), q) {
				out = append(out, b)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	case RouteInfo:
		for _, b := range s.catalog {
			if b.ID == id {
				_ = json.NewEncoder(w).Encode(b)
				return
			}
		}
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func classify(method, path string, r *http.Request) (route, id string) {
	switch {
	case path == "status" && method == http.MethodGet:
		return RouteStatus, ""
	case path == "downloads/active" && method == http.MethodGet:
		return RouteActive, ""
	case path == "download" && (method == http.MethodGet || method == http.MethodPost):
		return RouteEnqueue, r.URL.Query().Get("id")
	case strings.HasPrefix(path, "download/") && strings.HasSuffix(path, "/cancel") && method == http.MethodDelete:
		return RouteCancel, strings.TrimSuffix(strings.TrimPrefix(path, "download/"), "/cancel")
	case path == "queue/clear" && method == http.MethodDelete:
		return RouteClear, ""
	case path == "search" && method == http.MethodGet:
		return RouteSearch, ""
	case path == "info" && method == http.MethodGet:
		return RouteInfo, r.URL.Query().Get("id")
	default:
		return "", ""
	}
}

func (s *Service) removeLocked(id string, buckets ...string) (Record, bool) {
	for _, name := range buckets {
		recs := s.buckets[name]
		for i, rec := range recs {
			if rec.ID == id {
				s.buckets[name] = append(recs[:i:i], recs[i+1:]...)
				return rec, true
			}
		}
	}
	return Record{}, false
}

// statusLocked encodes buckets as id-keyed objects in insertion order.
func (s *Service) statusLocked() []byte {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, name := range bucketOrder {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		b.Write(key)
		b.WriteString(":{")
		for j, rec := range s.buckets[name] {
			if j > 0 {
				b.WriteByte(',')
			}
			id, _ := json.Marshal(rec.ID)
			body, _ := json.Marshal(rec)
			b.Write(id)
			b.WriteByte(':')
			b.Write(body)
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')
	return b.Bytes()
}
