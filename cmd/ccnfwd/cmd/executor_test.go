package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/forwarder"
	"github.com/parc-ccnx-archive/ccnfwd/nfp"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

func TestNewExecutorStartStop(t *testing.T) {
	cfg := config.Default()
	cfg.MgmtAddr = "" // keep the test from binding a real port

	var routed int
	exec, err := NewExecutor(cfg, func(pkt.Packet, *conn.Connection, forwarder.ErrorCode, *conn.ConnectionList) {
		routed++
	}, func(*conn.Connection, []byte) {}, "")
	require.NoError(t, err)
	require.NotNil(t, exec.Forwarder())
	require.NotNil(t, exec.Routing())
	require.NotNil(t, exec.Mgmt())

	require.NoError(t, exec.Start())
	defer exec.Stop()

	exec.Forwarder().RouteInput(pkt.NewInterestPacket(&pkt.Interest{Name: pkt.NameFromStr("/a")}), conn.NewConnection(1))
}

func TestNewExecutorWithBadgerBackendFailsOnBadPath(t *testing.T) {
	// A path that is a plain file, not a directory, can never be opened
	// as a Badger database.
	dir := t.TempDir()
	notADir := filepath.Join(dir, "not-a-directory")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o644))

	cfg := config.Default()
	_, err := NewExecutor(cfg, func(pkt.Packet, *conn.Connection, forwarder.ErrorCode, *conn.ConnectionList) {}, nfp.Output(func(*conn.Connection, []byte) {}), notADir)
	assert.Error(t, err)
}
