package mgmt

import (
	"net/http"

	"github.com/gorilla/schema"

	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

var schemaDecoder = schema.NewDecoder()

// fibControlArgs is the control-argument set (name, connection id, cost),
// decoded from the request's query string with gorilla/schema.
type fibControlArgs struct {
	Name         string `schema:"name,required"`
	ConnectionId uint32 `schema:"connection_id,required"`
	Cost         uint32 `schema:"cost"`
}

// handleFibAdd implements the "add-nexthop" verb.
func (s *Server) handleFibAdd(w http.ResponseWriter, r *http.Request) {
	var args fibControlArgs
	if err := r.ParseForm(); err != nil || schemaDecoder.Decode(&args, r.Form) != nil {
		sendCtrlResp(w, 400, "ControlArgs is incorrect", nil)
		return
	}

	c := s.connByID(args.ConnectionId)
	if c == nil {
		sendCtrlResp(w, 410, "Connection does not exist", nil)
		return
	}

	name := pkt.NameFromStr(args.Name)
	s.fwd.AddRoute(c, name)
	sendCtrlResp(w, 200, "OK", args)
}

// handleFibRemove implements the "remove-nexthop" verb.
func (s *Server) handleFibRemove(w http.ResponseWriter, r *http.Request) {
	var args fibControlArgs
	if err := r.ParseForm(); err != nil || schemaDecoder.Decode(&args, r.Form) != nil {
		sendCtrlResp(w, 400, "ControlArgs is incorrect", nil)
		return
	}

	c := s.connByID(args.ConnectionId)
	if c == nil {
		sendCtrlResp(w, 410, "Connection does not exist", nil)
		return
	}

	name := pkt.NameFromStr(args.Name)
	s.fwd.RemoveRoute(c, name)
	sendCtrlResp(w, 200, "OK", args)
}

// fibListEntry is one row of the /fib/list dataset.
type fibListEntry struct {
	Name        string   `json:"name"`
	Connections []uint32 `json:"connections"`
}

// handleFibList implements the "list" verb.
func (s *Server) handleFibList(w http.ResponseWriter, r *http.Request) {
	entries := s.fwd.Fib().Entries()
	out := make([]fibListEntry, 0, len(entries))
	for name, conns := range entries {
		ids := make([]uint32, 0, conns.Len())
		for _, c := range conns.Slice() {
			ids = append(ids, c.ID())
		}
		out = append(out, fibListEntry{Name: name, Connections: ids})
	}
	sendCtrlResp(w, 200, "OK", out)
}
