// Package mgmt implements the node's introspection/control surface: an
// HTTP API with verb-style control endpoints and status datasets, plus
// a WebSocket event stream for live FIB route additions and removals.
package mgmt

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/forwarder"
	"github.com/parc-ccnx-archive/ccnfwd/log"
	"github.com/parc-ccnx-archive/ccnfwd/nfp"
	"github.com/parc-ccnx-archive/ccnfwd/table"
)

// Server is the mgmt HTTP+WebSocket surface for one node. It holds no
// state of its own beyond a registry mapping connection ids to the
// *conn.Connection handles the /fib/add and /fib/remove verbs accept
// by id, since an HTTP client can only name a connection numerically.
type Server struct {
	fwd *forwarder.Forwarder
	nfp *nfp.RoutingProtocol

	mu    sync.Mutex
	conns map[uint32]*conn.Connection

	hub *eventHub
	srv *http.Server
}

// String identifies the server for logging.
func (s *Server) String() string { return "mgmt" }

// New constructs a mgmt Server around fwd and routing, which may be nil
// if NFP is not running on this node.
func New(fwd *forwarder.Forwarder, routing *nfp.RoutingProtocol) *Server {
	s := &Server{
		fwd:   fwd,
		nfp:   routing,
		conns: make(map[uint32]*conn.Connection),
		hub:   newEventHub(),
	}
	table.AddReadvertiser(s.hub)
	return s
}

// RegisterConnection makes c addressable by id on the control endpoints.
func (s *Server) RegisterConnection(c *conn.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c.ID()] = c
}

// UnregisterConnection removes a connection from the registry.
func (s *Server) UnregisterConnection(c *conn.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c.ID())
}

func (s *Server) connByID(id uint32) *conn.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[id]
}

// mux builds the HTTP handler tree. Exposed separately from Start so
// tests can drive it with httptest.NewServer without binding a port.
func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/fib/add", s.handleFibAdd)
	mux.HandleFunc("/fib/remove", s.handleFibRemove)
	mux.HandleFunc("/fib/list", s.handleFibList)
	mux.HandleFunc("/cs/info", s.handleCsInfo)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/nfp/stats", s.handleNfpStats)
	mux.HandleFunc("/nfp/neighbors", s.handleNfpNeighbors)
	mux.HandleFunc("/nfp/prefixes", s.handleNfpPrefixes)
	mux.HandleFunc("/watch", s.handleWatch)
	return mux
}

// Start listens on addr in the background. An empty addr disables the
// surface entirely (a mgmt_addr of "" means "off").
func (s *Server) Start(addr string) error {
	if addr == "" {
		return nil
	}
	s.srv = &http.Server{Addr: addr, Handler: s.mux()}
	log.Info(s, "mgmt surface listening", "addr", addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(s, "mgmt server exited", "err", err)
		}
	}()
	return nil
}

// Stop shuts the HTTP server down gracefully and deregisters the event
// hub so a discarded Server leaves no stale subscriber behind.
func (s *Server) Stop(ctx context.Context) error {
	table.RemoveReadvertiser(s.hub)
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// controlResponse is the uniform verb-response envelope: status code,
// status text, and an optional body, rendered as JSON.
type controlResponse struct {
	StatusCode int    `json:"status_code"`
	StatusText string `json:"status_text"`
	Body       any    `json:"body,omitempty"`
}

func sendCtrlResp(w http.ResponseWriter, code int, text string, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(controlResponse{StatusCode: code, StatusText: text, Body: body})
}
