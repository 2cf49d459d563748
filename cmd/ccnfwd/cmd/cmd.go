package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/forwarder"
	"github.com/parc-ccnx-archive/ccnfwd/log"
	"github.com/parc-ccnx-archive/ccnfwd/nfp"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

var cfgFile string

// Cmd is the root command: a package-level cobra.Command with
// subcommands attached in init.
var Cmd = &cobra.Command{
	Use:     "ccnfwd",
	Short:   "A content-centric forwarder with name-flooding routing",
	Version: "0.1.0",
}

var badgerPath string

func init() {
	Cmd.AddCommand(cmdServe)
	Cmd.AddCommand(cmdStats)
	cmdServe.Flags().StringVar(&cfgFile, "config", "", "path to a YAML config file (defaults applied for anything omitted)")
	cmdServe.Flags().StringVar(&badgerPath, "badger-path", "", "use a persistent Badger-backed content store at this path instead of the default in-memory one")
	cmdStats.Flags().String("mgmt-addr", "127.0.0.1:9696", "address of a running node's mgmt surface")
}

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "Run the forwarder, routing protocol, and mgmt surface",
	RunE:  runServe,
}

// runServe loads configuration, wires up an Executor, and blocks until
// an interrupt signal arrives.
func runServe(command *cobra.Command, args []string) error {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("ccnfwd: %w", err)
		}
		cfg = loaded
	}

	// No transport is wired in by default: link emulation and
	// transports live outside this module, so the
	// standalone binary logs what it would have sent rather than
	// silently dropping it. A real deployment replaces these callbacks
	// with whatever carries bytes between nodes.
	routeCallback := func(p pkt.Packet, ingress *conn.Connection, code forwarder.ErrorCode, egress *conn.ConnectionList) {
		log.Trace(routeLogger{}, "packet routed", "type", p.Type(), "code", code, "egress", egress.Len())
	}
	nfpOutput := func(c *conn.Connection, payload []byte) {
		log.Trace(routeLogger{}, "nfp payload would transmit", "connection", c.ID(), "bytes", len(payload))
	}

	exec, err := NewExecutor(cfg, routeCallback, nfp.Output(nfpOutput), badgerPath)
	if err != nil {
		return fmt.Errorf("ccnfwd: %w", err)
	}
	if err := exec.Start(); err != nil {
		return fmt.Errorf("ccnfwd: %w", err)
	}
	defer exec.Stop()

	log.Info(routeLogger{}, "ccnfwd started", "router_name", cfg.RouterName, "mgmt_addr", cfg.MgmtAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	received := <-sig
	log.Info(routeLogger{}, "received signal, shutting down", "signal", received)
	return nil
}

type routeLogger struct{}

func (routeLogger) String() string { return "ccnfwd" }

var cmdStats = &cobra.Command{
	Use:   "stats",
	Short: "Query a running node's forwarder statistics over its mgmt surface",
	RunE:  runStats,
}

func runStats(command *cobra.Command, args []string) error {
	addr, err := command.Flags().GetString("mgmt-addr")
	if err != nil {
		return err
	}

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/stats", addr))
	if err != nil {
		return fmt.Errorf("ccnfwd: querying %s: %w", addr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ccnfwd: reading response: %w", err)
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
	return nil
}
