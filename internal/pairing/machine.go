package pairing

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/muurk/ithorft/internal/logging"
	"github.com/muurk/ithorft/internal/protocol"
	"go.uber.org/zap"
)

// DefaultTimeout is how long each handshake step waits for the unit
const DefaultTimeout = 60 * time.Second

// maxDraws bounds the redraws when a random address collides with history
const maxDraws = 64

// State is a pairing state machine state
type State int

const (
	StateIdle State = iota
	StateAwaitingUnitAck
	StateConfirming
	StatePaired
	StateAborted
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingUnitAck:
		return "awaiting_unit_ack"
	case StateConfirming:
		return "confirming"
	case StatePaired:
		return "paired"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Active reports whether a handshake is in flight
func (s State) Active() bool {
	return s == StateAwaitingUnitAck || s == StateConfirming
}

// CommitFunc persists a freshly paired identity. A returned error aborts
// the pairing and leaves the previous identity in place.
type CommitFunc func(protocol.Identity) error

// Config configures a Machine
type Config struct {
	// Timeout is the maximum wait for each unit response (DefaultTimeout if zero)
	Timeout time.Duration

	// Commit is called once when the handshake completes
	Commit CommitFunc

	// History lists remote addresses that must not be reused
	History []protocol.Address

	// Now returns the current time (time.Now if nil)
	Now func() time.Time

	// Rand draws remote ids. A uniform PRNG is enough: the address only has
	// to be unlikely to collide with other remotes in radio range, it is not
	// a secret. Defaults to the math/rand/v2 global source.
	Rand *rand.Rand
}

// Event reports a state change produced by the machine
type Event struct {
	State  State
	Remote protocol.Address
	Unit   protocol.Address

	// Err is set when the handshake ended without pairing
	Err error
}

// String returns a debug representation of the event
func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("Pairing{state=%s, err=%v}", e.State, e.Err)
	}
	return fmt.Sprintf("Pairing{state=%s, remote=%s, unit=%s}", e.State, e.Remote, e.Unit)
}

// Machine drives the bind handshake:
//
//	remote                              unit
//	  |  I  1FC9  bind offer (broadcast)  |
//	  |---------------------------------->|
//	  |  RQ 10E0  device info request     |   AwaitingUnitAck -> Confirming
//	  |<----------------------------------|
//	  |  RP 10E0  device info             |
//	  |---------------------------------->|
//	  |  RQ 10E0 (repeat), I 31DA or 1FC9 |   Confirming -> Paired
//	  |<----------------------------------|
//
// The unit repeats its RQ 10E0 a few times and then broadcasts its
// status. Any of those frames from the acknowledging unit completes the
// handshake; a repeated RQ 10E0 is answered again.
//
// Machine is not safe for concurrent use; the session serializes access.
type Machine struct {
	cfg      Config
	state    State
	remote   protocol.Address
	unit     protocol.Address
	deadline time.Time
	history  map[protocol.Address]struct{}
}

// New creates an idle machine
func New(cfg Config) *Machine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Machine{
		cfg:     cfg,
		history: make(map[protocol.Address]struct{}, len(cfg.History)),
	}
	for _, a := range cfg.History {
		m.history[a] = struct{}{}
	}
	return m
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// Remote returns the remote address of the current or last handshake
func (m *Machine) Remote() protocol.Address {
	return m.remote
}

// Deadline returns when the current step times out. ok is false when idle.
func (m *Machine) Deadline() (deadline time.Time, ok bool) {
	if !m.state.Active() {
		return time.Time{}, false
	}
	return m.deadline, true
}

// Start begins a fresh handshake and returns the bind offer to transmit.
// It fails with ErrPairingInProgress while another handshake is active.
func (m *Machine) Start() (*protocol.Frame, error) {
	if m.state.Active() {
		return nil, protocol.NewError(protocol.KindPairingInProgress,
			"handshake for %s is %s", m.remote, m.state)
	}

	remote, err := m.drawRemote()
	if err != nil {
		return nil, err
	}

	m.remote = remote
	m.unit = 0
	m.history[remote] = struct{}{}
	m.transition(StateAwaitingUnitAck)

	logging.Info("Pairing started",
		zap.Stringer("remote", remote),
		zap.Duration("timeout", m.cfg.Timeout),
	)

	return protocol.BuildPairingRequest(remote), nil
}

// drawRemote picks a class 29 address not present in the history
func (m *Machine) drawRemote() (protocol.Address, error) {
	for i := 0; i < maxDraws; i++ {
		var id uint32
		if m.cfg.Rand != nil {
			id = m.cfg.Rand.Uint32N(protocol.MaxDeviceID + 1)
		} else {
			id = rand.Uint32N(protocol.MaxDeviceID + 1)
		}

		a := protocol.NewAddress(protocol.ClassRemote, id)
		if _, used := m.history[a]; !used {
			return a, nil
		}
	}
	return 0, fmt.Errorf("no unused remote address after %d draws", maxDraws)
}

// Handle feeds one inbound frame into the machine.
//
// consumed is false when the frame plays no part in the handshake.
// reply, if non-nil, must be transmitted. ev is non-nil when the
// state changed.
func (m *Machine) Handle(f *protocol.Frame) (consumed bool, reply *protocol.Frame, ev *Event) {
	switch m.state {
	case StateAwaitingUnitAck:
		if f.Dest != m.remote || !IsDeviceInfoRequest(f) {
			return false, nil, nil
		}
		m.unit = f.Src
		m.transition(StateConfirming)

		logging.Info("Pairing acknowledged by unit",
			zap.Stringer("remote", m.remote),
			zap.Stringer("unit", m.unit),
		)
		return true, protocol.BuildPairingConfirm(m.remote, m.unit), m.event(nil)

	case StateConfirming:
		if !m.isConfirmation(f) {
			return false, nil, nil
		}
		if f.Src != m.unit {
			err := protocol.NewError(protocol.KindHandshakeMismatch,
				"confirmation from %s, expected %s", f.Src, m.unit)
			logging.Warn("Pairing aborted: confirmation from another unit",
				zap.Stringer("expected", m.unit),
				zap.Stringer("got", f.Src),
			)
			m.unit = 0
			m.transition(StateIdle)
			return true, nil, m.event(err)
		}
		ev = m.commit()
		if ev.State == StatePaired && IsDeviceInfoRequest(f) {
			reply = protocol.BuildPairingConfirm(m.remote, m.unit)
		}
		return true, reply, ev
	}

	return false, nil, nil
}

// isConfirmation matches the frames that end the Confirming step: a
// repeated RQ 10E0 to our remote, or a 31DA / 1FC9 sent to our remote.
// Broadcasts count only when they come from the acknowledging unit,
// since neighbouring units broadcast 31DA on their own.
func (m *Machine) isConfirmation(f *protocol.Frame) bool {
	switch {
	case f.Dest == m.remote:
		return IsDeviceInfoRequest(f) || isUnitAnnouncement(f)
	case f.Src == m.unit && (f.Dest.IsBroadcast() || f.Dest == m.unit):
		return isUnitAnnouncement(f)
	}
	return false
}

func (m *Machine) commit() *Event {
	id := protocol.Identity{
		Remote: m.remote,
		Unit:   m.unit,
		Status: protocol.StatusPaired,
	}

	if m.cfg.Commit != nil {
		if err := m.cfg.Commit(id); err != nil {
			logging.Error("Pairing aborted: identity could not be saved",
				zap.Stringer("remote", m.remote),
				zap.Stringer("unit", m.unit),
				zap.Error(err),
			)
			m.transition(StateAborted)
			return m.event(fmt.Errorf("failed to save paired identity: %w", err))
		}
	}

	m.transition(StatePaired)
	logging.Info("Pairing complete",
		zap.Stringer("remote", m.remote),
		zap.Stringer("unit", m.unit),
	)
	return m.event(nil)
}

// Expire aborts the handshake if the current step has passed its deadline.
func (m *Machine) Expire() *Event {
	if !m.state.Active() || m.cfg.Now().Before(m.deadline) {
		return nil
	}

	err := protocol.NewError(protocol.KindPairingTimeout,
		"no response from unit within %s while %s", m.cfg.Timeout, m.state)
	logging.Warn("Pairing timeout",
		zap.Stringer("remote", m.remote),
		zap.String("state", m.state.String()),
	)
	m.transition(StateAborted)
	return m.event(err)
}

// Cancel aborts an active handshake. It returns nil when nothing was running.
func (m *Machine) Cancel() *Event {
	if !m.state.Active() {
		return nil
	}
	logging.Info("Pairing cancelled", zap.Stringer("remote", m.remote))
	m.transition(StateAborted)
	return m.event(protocol.NewError(protocol.KindPairingCancelled, "cancelled by caller"))
}

func (m *Machine) transition(s State) {
	m.state = s
	if s.Active() {
		m.deadline = m.cfg.Now().Add(m.cfg.Timeout)
	}
}

func (m *Machine) event(err error) *Event {
	return &Event{State: m.state, Remote: m.remote, Unit: m.unit, Err: err}
}

// IsDeviceInfoRequest matches the unit's device info request to a remote:
// RQ 10E0 with payload 63. The unit sends it to acknowledge a bind offer.
func IsDeviceInfoRequest(f *protocol.Frame) bool {
	return f.Type == protocol.TypeRequest &&
		f.Code == protocol.CodeDeviceInfo &&
		len(f.Payload) == 1 && f.Payload[0] == 0x63
}

// isUnitAnnouncement matches the unit's status broadcast or bind frame
func isUnitAnnouncement(f *protocol.Frame) bool {
	if f.Type != protocol.TypeInform && f.Type != protocol.TypeWrite && f.Type != protocol.TypeResponse {
		return false
	}
	return f.Code == protocol.CodeVentStatus || f.Code == protocol.CodeBind
}
