package mgmt

import (
	"encoding/json"
	"net/http"
)

// handleStats returns the forwarder's full counter snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.fwd.Stats())
}
