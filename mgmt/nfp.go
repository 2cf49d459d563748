package mgmt

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleNfpStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.nfp == nil {
		_ = json.NewEncoder(w).Encode(struct{}{})
		return
	}
	_ = json.NewEncoder(w).Encode(s.nfp.Stats())
}

// neighborInfo is one row of /nfp/neighbors.
type neighborInfo struct {
	Name         string `json:"name"`
	ConnectionId uint32 `json:"connection_id"`
	State        string `json:"state"`
	Seqnum       uint16 `json:"seqnum"`
}

func (s *Server) handleNfpNeighbors(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.nfp == nil {
		_ = json.NewEncoder(w).Encode([]neighborInfo{})
		return
	}
	all := s.nfp.Neighbors().All()
	out := make([]neighborInfo, 0, len(all))
	for _, n := range all {
		out = append(out, neighborInfo{
			Name:         n.Name.String(),
			ConnectionId: n.Conn.ID(),
			State:        n.State().String(),
			Seqnum:       n.Seqnum(),
		})
	}
	_ = json.NewEncoder(w).Encode(out)
}

// anchorInfo is one anchor's advertisement for a prefix, nested inside
// prefixInfo.
type anchorInfo struct {
	Anchor      string   `json:"anchor"`
	Seqnum      uint32   `json:"seqnum"`
	Distance    uint16   `json:"distance"`
	Connections []uint32 `json:"connections"`
}

type prefixInfo struct {
	Prefix  string       `json:"prefix"`
	Anchors []anchorInfo `json:"anchors"`
}

func (s *Server) handleNfpPrefixes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.nfp == nil {
		_ = json.NewEncoder(w).Encode([]prefixInfo{})
		return
	}

	prefixes := s.nfp.Prefixes().Prefixes()
	out := make([]prefixInfo, 0, len(prefixes))
	for _, prefix := range prefixes {
		pi := prefixInfo{Prefix: prefix.String()}
		for _, a := range s.nfp.Prefixes().Anchors(prefix) {
			ids := make([]uint32, len(a.NextHops))
			for i, c := range a.NextHops {
				ids[i] = c.ID()
			}
			pi.Anchors = append(pi.Anchors, anchorInfo{
				Anchor:      a.Anchor.String(),
				Seqnum:      a.Seqnum,
				Distance:    a.Distance,
				Connections: ids,
			})
		}
		out = append(out, pi)
	}
	_ = json.NewEncoder(w).Encode(out)
}
