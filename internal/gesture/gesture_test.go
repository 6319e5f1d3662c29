package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoldOpensMenu(t *testing.T) {
	m := New(false)
	m.Press()
	assert.Equal(t, PressPending, m.State())

	action := m.Timeout()
	assert.Equal(t, ActionOpenMenu, action)
	assert.Equal(t, MenuOpen, m.State())
}

func TestJitterDuringHoldStillOpensMenu(t *testing.T) {
	m := New(false)
	m.Press()
	m.Move(JitterThreshold - 1)

	assert.Equal(t, ActionOpenMenu, m.Timeout())
}

func TestMovementPastJitterCancelsHold(t *testing.T) {
	m := New(false)
	m.Press()
	m.Move(JitterThreshold + 2)

	assert.Equal(t, ActionNone, m.Timeout())
	assert.Equal(t, PressPending, m.State(), "between jitter and drag thresholds the press stays pending")
}

func TestDragThresholdEntersDragging(t *testing.T) {
	m := New(false)
	m.Press()
	m.Move(DragThreshold)

	assert.Equal(t, Dragging, m.State())
	assert.Equal(t, ActionNone, m.Timeout(), "timer firing during a drag does nothing")
}

func TestDragReleasePastReplyDistanceTriggersReply(t *testing.T) {
	m := New(false)
	m.Press()
	m.Move(ReplyDistance + 1)

	assert.Equal(t, ActionReply, m.Release())
	assert.Equal(t, Idle, m.State())
}

func TestDragReleaseShortOfReplyDistance(t *testing.T) {
	m := New(false)
	m.Press()
	m.Move(ReplyDistance - 1)

	assert.Equal(t, ActionNone, m.Release())
	assert.Equal(t, Idle, m.State())
}

func TestOwnMessageRepliesDragLeft(t *testing.T) {
	m := New(true)
	m.Press()
	m.Move(-ReplyDistance)
	assert.Equal(t, ActionReply, m.Release())

	// Dragging an own message right never commits a reply.
	m.Press()
	m.Move(ReplyDistance + 10)
	assert.Equal(t, ActionNone, m.Release())
}

func TestOtherMessageRepliesDragRight(t *testing.T) {
	m := New(false)
	m.Press()
	m.Move(-ReplyDistance - 10)

	assert.Equal(t, ActionNone, m.Release(), "others' messages only reply on a rightward drag")
}

func TestReleaseWithMenuOpenKeepsMenu(t *testing.T) {
	m := New(false)
	m.Press()
	m.Timeout()

	assert.Equal(t, ActionNone, m.Release())
	assert.Equal(t, MenuOpen, m.State(), "lifting the finger leaves the menu up")

	m.Dismiss()
	assert.Equal(t, Idle, m.State())
}

func TestQuickTapDoesNothing(t *testing.T) {
	m := New(false)
	m.Press()

	assert.Equal(t, ActionNone, m.Release())
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, ActionNone, m.Timeout(), "a late timer after release is a no-op")
}

func TestPressResetsDisplacement(t *testing.T) {
	m := New(false)
	m.Press()
	m.Move(ReplyDistance * 2)
	m.Release()

	m.Press()
	assert.Equal(t, ActionOpenMenu, m.Timeout(), "displacement from the previous gesture must not leak")
}
