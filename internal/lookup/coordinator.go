package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/dukerupert/cepfinder/internal/cep"
	"github.com/dukerupert/cepfinder/internal/domain"
	"github.com/dukerupert/cepfinder/internal/notify"
)

// Backend is the address service the coordinator drives.
// *address.Service satisfies it.
type Backend interface {
	SearchAddressByCep(ctx context.Context, code string) (*address.Address, error)
	SyncAddressFromAPI(ctx context.Context, code string) (*address.Address, error)
	CheckExternalServiceStatus(ctx context.Context) (bool, error)
}

// Observer receives lookup telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	LookupCompleted(kind Kind, status Status, elapsed time.Duration)
	LookupFailed(kind Kind, err error)
	StatusChecked(available bool)
}

type nopObserver struct{}

func (nopObserver) LookupCompleted(Kind, Status, time.Duration) {}
func (nopObserver) LookupFailed(Kind, error)                    {}
func (nopObserver) StatusChecked(bool)                          {}

// Status is the result class of a single search or sync request.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
	StatusInvalid  Status = "invalid"
	StatusBusy     Status = "busy"
)

var (
	errIncomplete = domain.Invalid("lookup.run", "CEP must have 8 digits")
	errInFlight   = domain.Conflict("lookup.run", "a lookup is already in flight")
)

// Outcome reports what a Search or Sync did. Err is set for every status
// except Found and NotFound.
type Outcome struct {
	Kind    Kind             `json:"kind"`
	Status  Status           `json:"status"`
	Address *address.Address `json:"address,omitempty"`
	Err     error            `json:"-"`
}

// Options configures a Coordinator. Zero values are usable.
type Options struct {
	Notifier notify.Notifier
	Logger   *slog.Logger
	Observer Observer

	// Timeout bounds each backend call. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration
}

// Coordinator owns one user's lookup state. All state changes go through
// Reduce under a single mutex, so concurrent callers see a serial history.
//
// At most one lookup is in flight: a Search or Sync that arrives while
// another is loading returns StatusBusy without calling the backend.
type Coordinator struct {
	backend  Backend
	notifier notify.Notifier
	logger   *slog.Logger
	observer Observer
	timeout  time.Duration

	mu    sync.Mutex
	state State

	activate sync.Once
}

// New creates a Coordinator in the initial state.
func New(backend Backend, opts Options) *Coordinator {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	return &Coordinator{
		backend:  backend,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		observer: opts.Observer,
		timeout:  opts.Timeout,
		state:    InitialState(),
	}
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) dispatch(ev Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, ev)
	return c.state
}

// Input normalizes raw into the postal code field.
func (c *Coordinator) Input(raw string) State {
	return c.dispatch(InputChanged{Raw: raw})
}

// Clear empties the postal code field and hides the result.
// It does not interrupt a lookup in flight.
func (c *Coordinator) Clear() State {
	return c.dispatch(Cleared{})
}

// Search looks the current postal code up in the local data source.
func (c *Coordinator) Search(ctx context.Context) Outcome {
	return c.run(ctx, KindSearch)
}

// Sync fetches the current postal code from the external API and stores it.
func (c *Coordinator) Sync(ctx context.Context) Outcome {
	return c.run(ctx, KindSync)
}

// begin checks the preconditions and enters Loading in one step. On success
// it returns the code to look up and the function that leaves Loading.
func (c *Coordinator) begin(kind Kind) (string, func(), Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code := c.state.PostalCode
	if !cep.IsComplete(code) {
		return "", nil, StatusInvalid
	}
	if c.state.IsLoading {
		return "", nil, StatusBusy
	}

	c.state = Reduce(c.state, LookupStarted{Kind: kind})

	var once sync.Once
	release := func() {
		once.Do(func() { c.dispatch(LookupFinished{Kind: kind}) })
	}
	return code, release, ""
}

func (c *Coordinator) run(ctx context.Context, kind Kind) Outcome {
	start := time.Now()

	code, release, status := c.begin(kind)
	switch status {
	case StatusInvalid:
		c.notifier.Notify(ctx, invalidCEP)
		c.observer.LookupCompleted(kind, StatusInvalid, time.Since(start))
		return Outcome{Kind: kind, Status: StatusInvalid, Err: errIncomplete}
	case StatusBusy:
		c.notifier.Notify(ctx, busy)
		c.observer.LookupCompleted(kind, StatusBusy, time.Since(start))
		return Outcome{Kind: kind, Status: StatusBusy, Err: errInFlight}
	}
	defer release()

	msgs := workflowMessages[kind]

	addr, err := c.call(ctx, kind, code)

	var out Outcome
	switch {
	case err != nil:
		c.logger.Error("Address lookup failed",
			"kind", kind,
			"cep", code,
			"error", err,
		)
		c.observer.LookupFailed(kind, err)
		c.dispatch(LookupFailed{Kind: kind, Err: err})
		c.notifier.Notify(ctx, msgs.failed)
		out = Outcome{Kind: kind, Status: StatusFailed, Err: err}

	case addr == nil:
		c.dispatch(LookupEmpty{Kind: kind})
		c.notifier.Notify(ctx, msgs.notFound)
		out = Outcome{Kind: kind, Status: StatusNotFound}

	default:
		c.dispatch(LookupFound{Kind: kind, Address: addr})
		c.notifier.Notify(ctx, msgs.found)
		out = Outcome{Kind: kind, Status: StatusFound, Address: addr}
	}

	c.observer.LookupCompleted(kind, out.Status, time.Since(start))
	return out
}

// call invokes the backend. A panic in the backend is returned as an error.
func (c *Coordinator) call(ctx context.Context, kind Kind, code string) (addr *address.Address, err error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			addr, err = nil, fmt.Errorf("address backend panic: %v", r)
		}
	}()

	if kind == KindSync {
		return c.backend.SyncAddressFromAPI(ctx, code)
	}
	return c.backend.SearchAddressByCep(ctx, code)
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Activate runs the service status probe the first time it is called and
// does nothing afterwards.
func (c *Coordinator) Activate(ctx context.Context) {
	c.activate.Do(func() {
		c.CheckStatus(ctx)
	})
}

// CheckStatus probes the external service and records the result. Any error
// counts as unavailable. It never notifies.
func (c *Coordinator) CheckStatus(ctx context.Context) bool {
	available := c.probe(ctx)
	c.dispatch(StatusChecked{Available: available})
	c.observer.StatusChecked(available)
	return available
}

func (c *Coordinator) probe(ctx context.Context) (available bool) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Service status probe panicked", "panic", r)
			available = false
		}
	}()

	ok, err := c.backend.CheckExternalServiceStatus(ctx)
	if err != nil {
		c.logger.Warn("Service status probe failed", "error", err)
		return false
	}
	return ok
}
