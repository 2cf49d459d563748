package mgmt

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/forwarder"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	"github.com/parc-ccnx-archive/ccnfwd/table"
)

func newTestServer(t *testing.T) (*Server, *forwarder.Forwarder) {
	t.Helper()
	cfg := config.Default()
	pit := table.NewPit(cfg.Pit)
	cs := table.NewCs(cfg.ContentStore)
	fib := table.NewFib(cfg.Fib)
	fwd := forwarder.New(cfg.Forwarder, pit, cs, fib, func(pkt.Packet, *conn.Connection, forwarder.ErrorCode, *conn.ConnectionList) {})
	return New(fwd, nil), fwd
}

func TestFibAddAndList(t *testing.T) {
	s, fwd := newTestServer(t)
	c1 := conn.NewConnection(5)
	s.RegisterConnection(c1)

	form := url.Values{"name": {"/a/b"}, "connection_id": {"5"}}
	req := httptest.NewRequest(http.MethodPost, "/fib/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	s.mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fwd.Fib().Size())

	listReq := httptest.NewRequest(http.MethodGet, "/fib/list", nil)
	listRec := httptest.NewRecorder()
	s.mux().ServeHTTP(listRec, listReq)

	var resp controlResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.StatusCode)
}

func TestFibAddUnknownConnectionRejected(t *testing.T) {
	s, fwd := newTestServer(t)

	form := url.Values{"name": {"/a/b"}, "connection_id": {"99"}}
	req := httptest.NewRequest(http.MethodPost, "/fib/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	s.mux().ServeHTTP(rec, req)
	assert.Equal(t, 410, rec.Code)
	assert.Equal(t, 0, fwd.Fib().Size())
}

func TestStatsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats forwarder.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
}

func TestCsInfoEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/cs/info", nil)
	rec := httptest.NewRecorder()
	s.mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var info csInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 10_000, info.Capacity)
}
