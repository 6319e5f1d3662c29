// Package gesture models the long-press/swipe layer of a message bubble as a
// discrete state machine. Callers feed it press, move, release, and timeout
// events together with measured displacement; it never owns timers itself,
// which keeps the transitions deterministic and testable.
package gesture

import "time"

// State is the tagged state of one message bubble's gesture recognizer.
type State int

const (
	// Idle: no touch in progress.
	Idle State = iota
	// PressPending: touch down, waiting to see a hold or a drag.
	PressPending
	// Dragging: displacement exceeded the drag threshold while held.
	Dragging
	// MenuOpen: a hold past the timeout with little movement opened the
	// action menu.
	MenuOpen
)

// Action is the outcome a completed gesture requests.
type Action int

const (
	ActionNone Action = iota
	// ActionOpenMenu opens the per-message action menu.
	ActionOpenMenu
	// ActionReply triggers a reply to the message.
	ActionReply
)

const (
	// HoldTimeout is how long a press must be held to open the menu.
	HoldTimeout = 500 * time.Millisecond
	// JitterThreshold is the displacement tolerated during a hold.
	JitterThreshold = 10.0
	// DragThreshold is the displacement that turns a pending press into a
	// drag.
	DragThreshold = 24.0
	// ReplyDistance is the drag displacement that commits a reply on
	// release.
	ReplyDistance = 64.0
)

// Machine tracks one bubble's gesture state. OwnMessage constrains the reply
// drag direction: your own messages drag left (negative dx), others' drag
// right (positive dx).
type Machine struct {
	state      State
	ownMessage bool
	dx         float64
}

// New returns a machine in the idle state.
func New(ownMessage bool) *Machine {
	return &Machine{state: Idle, ownMessage: ownMessage}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Press starts a gesture. Only valid from idle; any other state is reset
// first.
func (m *Machine) Press() {
	m.state = PressPending
	m.dx = 0
}

// Move feeds the current horizontal displacement since the press. In the
// pending state, displacement past the drag threshold cancels the hold and
// enters the drag; jitter below it is ignored.
func (m *Machine) Move(dx float64) {
	m.dx = dx
	if m.state == PressPending && abs(dx) >= DragThreshold {
		m.state = Dragging
	}
}

// Timeout fires when the hold timer elapses. It opens the menu only if the
// press is still pending and displacement stayed under the jitter threshold.
func (m *Machine) Timeout() Action {
	if m.state == PressPending && abs(m.dx) < JitterThreshold {
		m.state = MenuOpen
		return ActionOpenMenu
	}
	return ActionNone
}

// Release ends the gesture. A drag released past the reply distance in the
// direction the message's ownership allows triggers a reply; everything else
// returns to idle with no action. A release while the menu is open leaves the
// menu up.
func (m *Machine) Release() Action {
	switch m.state {
	case Dragging:
		committed := m.replyCommitted()
		m.state = Idle
		m.dx = 0
		if committed {
			return ActionReply
		}
		return ActionNone
	case MenuOpen:
		return ActionNone
	default:
		m.state = Idle
		m.dx = 0
		return ActionNone
	}
}

// Dismiss closes an open menu.
func (m *Machine) Dismiss() {
	if m.state == MenuOpen {
		m.state = Idle
		m.dx = 0
	}
}

func (m *Machine) replyCommitted() bool {
	if m.ownMessage {
		return m.dx <= -ReplyDistance
	}
	return m.dx >= ReplyDistance
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
