package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/muurk/ithorft/internal/identity"
	"github.com/muurk/ithorft/internal/logging"
	"github.com/muurk/ithorft/internal/metrics"
	"github.com/muurk/ithorft/internal/pairing"
	"github.com/muurk/ithorft/internal/protocol"
	"go.uber.org/zap"
)

// Transport carries gateway lines. ReadLine blocks until a line arrives or
// ctx is done and returns the line without its terminator. WriteLine is
// handed a complete line including the CR LF terminator.
type Transport interface {
	ReadLine(ctx context.Context) (string, error)
	WriteLine(ctx context.Context, line string) error
}

// EventKind classifies the outcome of one PollOnce
type EventKind int

const (
	EventStatus      EventKind = iota // decoded status from the paired unit
	EventPairing                      // pairing handshake traffic
	EventIgnored                      // well-formed frame not meant for us
	EventDecodeError                  // line discarded by the codec
	EventUnknown                      // frame from our unit with no known layout
)

// String returns the event kind name used in logs and metrics
func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventPairing:
		return "pairing"
	case EventIgnored:
		return "ignored"
	case EventDecodeError:
		return "decode_error"
	case EventUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is the result of one PollOnce
type Event struct {
	Kind EventKind

	// Line is the raw gateway line (empty for a pairing timeout)
	Line string

	// Frame is the decoded frame, nil for decode errors and timeouts
	Frame *protocol.Frame

	// Status is set for EventStatus
	Status *protocol.StatusRecord

	// Pairing is set when an EventPairing changed the handshake state. It is
	// nil when the session only answered a device info request.
	Pairing *pairing.Event

	// Err carries the decode or pairing error, if any
	Err error
}

// Options configures a Controller
type Options struct {
	// Gateway names the gateway in log output
	Gateway string

	// PairingTimeout bounds each handshake step (pairing.DefaultTimeout if zero)
	PairingTimeout time.Duration

	// Metrics receives traffic counters; nil disables them
	Metrics *metrics.Collector

	// Now and Rand are handed to the pairing machine
	Now  func() time.Time
	Rand *rand.Rand
}

// Controller owns the identity and the gateway link for one virtual remote.
//
// One goroutine should drive PollOnce; Send, StartPairing and the accessors
// may be called concurrently from others.
type Controller struct {
	transport Transport
	store     identity.Store
	opts      Options

	// readMu serializes reads, mu guards state and writes
	readMu sync.Mutex
	mu     sync.Mutex

	id        protocol.Identity
	machine   *pairing.Machine
	attempted []protocol.Address
	latest    *protocol.StatusRecord
}

// New creates a controller, loading the identity from store.
// A missing identity starts the controller unpaired.
func New(t Transport, store identity.Store, opts Options) (*Controller, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Gateway == "" {
		opts.Gateway = "gateway"
	}

	id, err := store.LoadIdentity()
	switch {
	case errors.Is(err, identity.ErrNotFound):
		id = protocol.Identity{Status: protocol.StatusUnpaired}
	case err != nil:
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	logging.Info("Session ready",
		zap.String("gateway", opts.Gateway),
		zap.Stringer("identity", id),
	)

	return &Controller{
		transport: t,
		store:     store,
		opts:      opts,
		id:        id,
	}, nil
}

// Identity returns the current identity. Its status is Pairing while a
// handshake is running.
func (c *Controller) Identity() protocol.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identityLocked()
}

func (c *Controller) identityLocked() protocol.Identity {
	id := c.id
	if c.pairingActive() {
		id.Status = protocol.StatusPairing
	}
	return id
}

func (c *Controller) pairingActive() bool {
	return c.machine != nil && c.machine.State().Active()
}

// Latest returns the last decoded status record, or nil
func (c *Controller) Latest() *protocol.StatusRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Send transmits a remote button press. The unit sends no acknowledgement.
func (c *Controller) Send(ctx context.Context, cmd protocol.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := protocol.BuildCommand(cmd, c.identityLocked())
	if err != nil {
		return err
	}
	if err := c.writeLocked(ctx, f); err != nil {
		return err
	}

	logging.Info("Command sent",
		zap.String("command", cmd.String()),
		zap.Stringer("unit", f.Dest),
	)
	return nil
}

// RequestStatus asks the paired unit for a status report. The answer
// arrives through PollOnce.
func (c *Controller) RequestStatus(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := protocol.BuildStatusRequest(c.identityLocked())
	if err != nil {
		return err
	}
	return c.writeLocked(ctx, f)
}

// StartPairing draws a fresh remote address and broadcasts the bind offer.
// The handshake then progresses through PollOnce.
func (c *Controller) StartPairing(ctx context.Context) (protocol.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pairingActive() {
		_, err := c.machine.Start()
		return 0, err
	}

	prior := c.id.UsedRemotes()
	history := append(append([]protocol.Address(nil), prior...), c.attempted...)
	c.machine = pairing.New(pairing.Config{
		Timeout: c.opts.PairingTimeout,
		History: history,
		Now:     c.opts.Now,
		Rand:    c.opts.Rand,
		Commit: func(id protocol.Identity) error {
			id.PreviousRemotes = prior
			if err := c.store.SaveIdentity(id); err != nil {
				return err
			}
			c.id = id
			c.latest = nil
			return nil
		},
	})

	offer, err := c.machine.Start()
	if err != nil {
		return 0, err
	}
	c.attempted = append(c.attempted, offer.Src)
	c.opts.Metrics.PairingTransition(c.machine.State().String())

	if err := c.writeLocked(ctx, offer); err != nil {
		c.machine.Cancel()
		return 0, err
	}
	return offer.Src, nil
}

// CancelPairing aborts a running handshake. It returns nil when none was running.
func (c *Controller) CancelPairing() *pairing.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine == nil {
		return nil
	}
	ev := c.machine.Cancel()
	if ev != nil {
		c.opts.Metrics.PairingTransition(ev.State.String())
	}
	return ev
}

// Forget drops the binding to the unit and persists an unpaired identity.
// Used remote addresses are kept so the next pairing picks a new one.
func (c *Controller) Forget() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pairingActive() {
		c.machine.Cancel()
	}

	reset := protocol.Identity{
		Status:          protocol.StatusUnpaired,
		PreviousRemotes: c.id.UsedRemotes(),
	}
	if err := c.store.SaveIdentity(reset); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}

	logging.Info("Identity reset", zap.Stringer("previous", c.id))
	c.id = reset
	c.latest = nil
	return nil
}

// PollOnce reads one line from the gateway and classifies it.
//
// While pairing, the read gives up at the step deadline and the timeout is
// reported as an EventPairing, so a silent radio still ends the handshake.
// The returned error is non-nil only when the transport fails or ctx is done;
// malformed input is reported through the event.
func (c *Controller) PollOnce(ctx context.Context) (Event, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if ev, ok := c.expire(); ok {
			return ev, nil
		}

		readCtx, cancel := c.readContext(ctx)
		line, err := c.transport.ReadLine(readCtx)
		timedOut := readCtx.Err() != nil && ctx.Err() == nil
		cancel()

		if err != nil {
			if timedOut {
				// The pairing step deadline passed; expire on the next iteration.
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Event{}, ctxErr
			}
			return Event{}, fmt.Errorf("gateway read failed: %w", err)
		}

		logging.LogLine(c.opts.Gateway, "rx", line)
		ev, err := c.handleLine(ctx, line)
		c.opts.Metrics.FrameReceived(ev.Kind.String())
		return ev, err
	}
}

// readContext bounds the read by the pairing deadline, if any
func (c *Controller) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine == nil {
		return context.WithCancel(ctx)
	}
	deadline, ok := c.machine.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, deadline.Sub(c.opts.Now()))
}

func (c *Controller) expire() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine == nil {
		return Event{}, false
	}
	pev := c.machine.Expire()
	if pev == nil {
		return Event{}, false
	}
	c.opts.Metrics.PairingTransition(pev.State.String())
	return Event{Kind: EventPairing, Pairing: pev, Err: pev.Err}, true
}

func (c *Controller) handleLine(ctx context.Context, line string) (Event, error) {
	f, err := protocol.DecodeLine(line)
	if err != nil {
		protocol.LogDecodeError(c.opts.Gateway, err)
		return Event{Kind: EventDecodeError, Line: line, Err: err}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pairingActive() {
		consumed, reply, pev := c.machine.Handle(f)
		if consumed {
			ev := Event{Kind: EventPairing, Line: line, Frame: f, Pairing: pev}
			if pev != nil {
				ev.Err = pev.Err
				c.opts.Metrics.PairingTransition(pev.State.String())
			}
			if pev != nil && pev.State == pairing.StatePaired {
				// The unit's first status broadcast can be what completed the pairing
				if rec, matched, err := protocol.Interpret(f, c.id); matched && err == nil {
					protocol.LogStatus(f, rec)
					c.latest = rec
					c.opts.Metrics.ObserveStatus(rec, c.opts.Now())
					ev.Status = rec
				}
			}
			if reply != nil {
				if err := c.writeLocked(ctx, reply); err != nil {
					return ev, err
				}
			}
			return ev, nil
		}
	}

	if c.id.IsPaired() && f.Src == c.id.Unit && f.Dest == c.id.Remote && pairing.IsDeviceInfoRequest(f) {
		// Units keep asking for a while after the handshake completed
		logging.Debug("Answering device info request", protocol.FrameFields(f)...)
		ev := Event{Kind: EventPairing, Line: line, Frame: f}
		return ev, c.writeLocked(ctx, protocol.BuildPairingConfirm(c.id.Remote, c.id.Unit))
	}

	rec, matched, err := protocol.Interpret(f, c.id)
	switch {
	case !matched:
		logging.Debug("Ignoring frame", protocol.FrameFields(f)...)
		return Event{Kind: EventIgnored, Line: line, Frame: f}, nil
	case err != nil:
		logging.Warn("Unknown frame from unit", append(protocol.FrameFields(f), zap.Error(err))...)
		return Event{Kind: EventUnknown, Line: line, Frame: f, Err: err}, nil
	}

	protocol.LogStatus(f, rec)
	c.latest = rec
	c.opts.Metrics.ObserveStatus(rec, c.opts.Now())
	return Event{Kind: EventStatus, Line: line, Frame: f, Status: rec}, nil
}

// writeLocked encodes and transmits a frame; c.mu must be held
func (c *Controller) writeLocked(ctx context.Context, f *protocol.Frame) error {
	line := protocol.EncodeLine(f)
	logging.LogLine(c.opts.Gateway, "tx", line)

	if err := c.transport.WriteLine(ctx, line); err != nil {
		return fmt.Errorf("gateway write failed: %w", err)
	}
	c.opts.Metrics.FrameSent(f.Code)
	return nil
}
