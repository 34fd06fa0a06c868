package resttest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/restverb/component"
	"github.com/kbukum/restverb/logger"
	"github.com/kbukum/restverb/testutil"
	"github.com/kbukum/restverb/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Item is the resource served by the fake API.
type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name" validate:"required"`
}

// RecordedRequest is a request as the fake API received it.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

type state struct {
	items  map[int]Item
	nextID int
}

// Server is a fake items API:
//
//	GET    /items      200 [items...]
//	GET    /items/:id  200 item | 404 {"error":"not found"}
//	POST   /items      201 item | 400 {"error":"invalid"}
//	PUT    /items/:id  204      | 400 {"error":"invalid"} | 404
//	DELETE /items/:id  204      | 404
type Server struct {
	mu       sync.RWMutex
	engine   *gin.Engine
	ts       *httptest.Server
	log      *logger.Logger
	seed     []Item
	state    state
	failures map[string]failure
	requests []RecordedRequest
}

var _ component.Component = (*Server)(nil)
var _ component.RouteProvider = (*Server)(nil)
var _ testutil.TestComponent = (*Server)(nil)

// NewServer creates a fake API holding the seed items. Call Start (or
// testutil.T(t).Setup) before use.
func NewServer(seed ...Item) *Server {
	s := &Server{
		log:      logger.Get("resttest"),
		seed:     slices.Clone(seed),
		failures: make(map[string]failure),
	}
	s.state = s.seedState()
	s.engine = s.routes()
	return s
}

func (s *Server) seedState() state {
	st := state{items: make(map[int]Item, len(s.seed)), nextID: 1}
	for _, it := range s.seed {
		st.items[it.ID] = it
		if it.ID >= st.nextID {
			st.nextID = it.ID + 1
		}
	}
	return st
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.record)
	items := r.Group("/items")
	items.GET("", s.list)
	items.GET("/:id", s.get)
	items.POST("", s.create)
	items.PUT("/:id", s.update)
	items.DELETE("/:id", s.remove)
	return r
}

// BaseURL returns the server URL, or "" before Start.
func (s *Server) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ts == nil {
		return ""
	}
	return s.ts.URL
}

// Fail makes the server answer method+path with status and body until Reset.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.requests)
}

// Item returns the stored item with id.
func (s *Server) Item(id int) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.state.items[id]
	return it, ok
}

// Items returns the stored items ordered by id.
func (s *Server) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedItems()
}

func (s *Server) sortedItems() []Item {
	ids := slices.Sorted(maps.Keys(s.state.items))
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.state.items[id])
	}
	return out
}

// --- component.Component ---

func (s *Server) Name() string { return "resttest-items" }

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts != nil {
		return fmt.Errorf("component already started")
	}
	s.ts = httptest.NewServer(s.engine)
	s.log.Debug("fake server started", logger.Fields(logger.FieldURL, s.ts.URL))
	return nil
}

func (s *Server) Stop(_ context.Context) error {
	s.mu.Lock()
	ts := s.ts
	s.ts = nil
	s.mu.Unlock()
	if ts != nil {
		ts.Close()
	}
	return nil
}

func (s *Server) Health(_ context.Context) component.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ts == nil {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

// Routes lists the routes the fake API serves.
func (s *Server) Routes() []component.Route {
	var out []component.Route
	for _, ri := range s.engine.Routes() {
		out = append(out, component.Route{Method: ri.Method, Path: ri.Path, Handler: ri.Handler})
	}
	return out
}

// --- testutil.TestComponent ---

// Reset restores the seed items and clears failures and recorded requests.
func (s *Server) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.seedState()
	s.failures = make(map[string]failure)
	s.requests = nil
	return nil
}

// Snapshot captures the stored items.
func (s *Server) Snapshot(_ context.Context) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return state{items: maps.Clone(s.state.items), nextID: s.state.nextID}, nil
}

// Restore returns the stored items to a Snapshot.
func (s *Server) Restore(_ context.Context, snapshot interface{}) error {
	st, ok := snapshot.(state)
	if !ok {
		return fmt.Errorf("resttest: unexpected snapshot type %T", snapshot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state{items: maps.Clone(st.items), nextID: st.nextID}
	return nil
}

// --- handlers ---

// record stores the request, echoes its request id and serves injected
// failures.
func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	id := c.GetHeader("X-Request-Id")
	if id == "" {
		id = uuid.NewString()
	}
	c.Header("X-Request-Id", id)

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	f, failing := s.failures[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()

	s.log.Debug("fake request", logger.Fields(
		logger.FieldMethod, c.Request.Method,
		logger.FieldURL, c.Request.URL.Path,
		logger.FieldRequestID, id,
	))

	if failing {
		c.Data(f.status, "application/json", []byte(f.body))
		c.Abort()
		return
	}
	c.Next()
}

func errorBody(msg string) gin.H { return gin.H{"error": msg} }

func itemID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid id"))
		return 0, false
	}
	return id, true
}

// bindItem decodes and validates the request body.
func bindItem(c *gin.Context) (Item, bool) {
	var it Item
	if err := c.ShouldBindJSON(&it); err != nil || validation.Validate(it) != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid"))
		return Item{}, false
	}
	return it, true
}

func (s *Server) list(c *gin.Context) {
	s.mu.RLock()
	items := s.sortedItems()
	s.mu.RUnlock()
	c.JSON(http.StatusOK, items)
}

func (s *Server) get(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	s.mu.RLock()
	it, found := s.state.items[id]
	s.mu.RUnlock()
	if !found {
		c.JSON(http.StatusNotFound, errorBody("not found"))
		return
	}
	c.JSON(http.StatusOK, it)
}

func (s *Server) create(c *gin.Context) {
	it, ok := bindItem(c)
	if !ok {
		return
	}
	s.mu.Lock()
	if it.ID == 0 {
		it.ID = s.state.nextID
	}
	if it.ID >= s.state.nextID {
		s.state.nextID = it.ID + 1
	}
	s.state.items[it.ID] = it
	s.mu.Unlock()
	c.JSON(http.StatusCreated, it)
}

func (s *Server) update(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	it, ok := bindItem(c)
	if !ok {
		return
	}
	it.ID = id

	s.mu.Lock()
	_, found := s.state.items[id]
	if found {
		s.state.items[id] = it
	}
	s.mu.Unlock()

	if !found {
		c.JSON(http.StatusNotFound, errorBody("not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) remove(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.state.items[id]
	delete(s.state.items, id)
	s.mu.Unlock()

	if !found {
		c.JSON(http.StatusNotFound, errorBody("not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
