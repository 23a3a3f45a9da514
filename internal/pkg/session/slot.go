package session

import (
	"time"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
)

//State represents recording slot state
type State int

const (
	// Idle - no audio captured
	Idle State = iota + 1
	// Recording - capture in progress, duration counting
	Recording
	// Captured - audio finalized and stored
	Captured
)

var (
	stateName = map[State]string{Idle: "IDLE", Recording: "RECORDING", Captured: "CAPTURED"}
	nameState = map[string]State{"IDLE": Idle, "RECORDING": Recording, "CAPTURED": Captured}
)

func (st State) String() string {
	return stateName[st]
}

// StateFrom returns state obj from string
func StateFrom(st string) State {
	return nameState[st]
}

// Slot owns the capture lifecycle of one voice prompt.
// Methods are called under the owning session's lock
type Slot struct {
	Key api.Key

	state     State
	startedAt time.Time
	captured  time.Duration
	object    string
	size      int64
}

func newSlot(key api.Key) *Slot {
	return &Slot{Key: key, state: Idle}
}

// State returns the current lifecycle state
func (s *Slot) State() State {
	return s.state
}

// Object returns the storage object name, non empty iff Captured
func (s *Slot) Object() string {
	return s.object
}

// DurationSec counts whole seconds: live while Recording, final once Captured
func (s *Slot) DurationSec(now time.Time) int {
	switch s.state {
	case Recording:
		return int(now.Sub(s.startedAt).Seconds())
	case Captured:
		return int(s.captured.Seconds())
	}
	return 0
}

// start transitions to Recording and resets the duration counter.
// A previous capture is discarded - the returned object is to be removed
func (s *Slot) start(at time.Time) (string, error) {
	if s.state == Recording {
		return "", ErrDeviceBusy
	}
	old := s.object
	s.state = Recording
	s.startedAt = at
	s.captured = 0
	s.object = ""
	s.size = 0
	return old, nil
}

// stop finalizes the capture, only valid from Recording
func (s *Slot) stop(at time.Time, object string, size int64) error {
	if s.state != Recording {
		return ErrNotRecording
	}
	s.state = Captured
	s.captured = at.Sub(s.startedAt)
	s.object = object
	s.size = size
	return nil
}

// clear discards any audio and returns the slot to Idle.
// From Recording it also releases the device - the session
// updates its recording marker
func (s *Slot) clear() string {
	old := s.object
	s.state = Idle
	s.captured = 0
	s.object = ""
	s.size = 0
	return old
}
