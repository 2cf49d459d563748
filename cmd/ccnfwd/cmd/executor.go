package cmd

import (
	"context"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/forwarder"
	"github.com/parc-ccnx-archive/ccnfwd/mgmt"
	"github.com/parc-ccnx-archive/ccnfwd/nfp"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	"github.com/parc-ccnx-archive/ccnfwd/table"
)

// Executor owns one node's forwarder, routing protocol, and mgmt
// surface: construct once from a validated Config, then Start/Stop as
// a unit.
type Executor struct {
	cfg config.Config
	fwd *forwarder.Forwarder
	nfp *nfp.RoutingProtocol
	mgt *mgmt.Server
}

// NewExecutor builds the full forwarding+routing+mgmt stack for cfg.
// routeCallback and nfpOutput are owned by whatever transport
// ultimately moves bytes between connections; this package only wires
// the pipeline around them. badgerPath, if non-empty, selects the persistent table.BadgerContentStore backend
// instead of the default in-memory table.Cs.
func NewExecutor(cfg config.Config, routeCallback forwarder.RouteCallback, nfpOutput nfp.Output, badgerPath string) (*Executor, error) {
	pit := table.NewPit(cfg.Pit)
	var cs table.ContentStore
	if badgerPath != "" {
		bcs, err := table.NewBadgerContentStore(badgerPath, cfg.ContentStore)
		if err != nil {
			return nil, err
		}
		cs = bcs
	} else {
		cs = table.NewCs(cfg.ContentStore)
	}
	fib := table.NewFib(cfg.Fib)
	fwd := forwarder.New(cfg.Forwarder, pit, cs, fib, routeCallback)

	routerName := pkt.NameFromStr(cfg.RouterName)
	routing := nfp.New(cfg.Nfp, routerName, fwd, nfpOutput)

	mgt := mgmt.New(fwd, routing)

	return &Executor{cfg: cfg, fwd: fwd, nfp: routing, mgt: mgt}, nil
}

// Start arms NFP's timers and brings up the mgmt HTTP+WebSocket surface.
func (e *Executor) Start() error {
	e.nfp.Start()
	return e.mgt.Start(e.cfg.MgmtAddr)
}

// Stop halts NFP's timers and shuts the mgmt surface down.
func (e *Executor) Stop() {
	e.nfp.Stop()
	_ = e.mgt.Stop(context.Background())
}

// Forwarder returns the underlying forwarder, for a transport to call
// RouteInput/RouteOutput on and to register/unregister connections.
func (e *Executor) Forwarder() *forwarder.Forwarder { return e.fwd }

// Routing returns the NFP routing protocol instance, for a transport to
// feed ReceivePayload and to call RegisterInterface/UnregisterInterface.
func (e *Executor) Routing() *nfp.RoutingProtocol { return e.nfp }

// Mgmt returns the mgmt server, for a transport to register connections
// it creates so they become addressable by id on the control endpoints.
func (e *Executor) Mgmt() *mgmt.Server { return e.mgt }
