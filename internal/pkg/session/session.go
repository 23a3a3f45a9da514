package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
	"github.com/sixtyscan/voiceapi/internal/pkg/utils"
)

// Session holds the slot set for one test attempt.
// Created fresh per visit, kept in memory only, never persisted
type Session struct {
	ID string

	lock      *sync.Mutex
	slots     map[api.Key]*Slot
	recording api.Key
	inFlight  bool
	lastUsed  time.Time
	now       func() time.Time
}

func newSession(id string, now func() time.Time) *Session {
	res := &Session{ID: id, lock: &sync.Mutex{}, now: now}
	res.slots = make(map[api.Key]*Slot, len(api.RequiredKeys()))
	for _, k := range api.RequiredKeys() {
		res.slots[k] = newSlot(k)
	}
	res.lastUsed = now()
	return res
}

// StartRecording acquires the session's single recording device for key.
// Fails with ErrDeviceBusy if any slot is already recording
func (s *Session) StartRecording(key api.Key) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lastUsed = s.now()
	sl, err := s.slot(key)
	if err != nil {
		return err
	}
	if s.recording != "" {
		return fmt.Errorf("%w: slot '%s'", ErrDeviceBusy, s.recording)
	}
	if _, err := sl.start(s.now()); err != nil {
		return err
	}
	s.recording = key
	return nil
}

// StopRecording finalizes the capture of key with the stored object name.
// Releases the device
func (s *Session) StopRecording(key api.Key, object string, size int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lastUsed = s.now()
	sl, err := s.slot(key)
	if err != nil {
		return err
	}
	if err := sl.stop(s.now(), object, size); err != nil {
		return err
	}
	s.recording = ""
	return nil
}

// DeleteSlot discards the slot's audio and returns the storage object
// to remove, if any. From Recording the device is released first
func (s *Session) DeleteSlot(key api.Key) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lastUsed = s.now()
	sl, err := s.slot(key)
	if err != nil {
		return "", err
	}
	if s.recording == key {
		s.recording = ""
	}
	return sl.clear(), nil
}

// Missing returns required keys with no captured audio, in prompt order
func (s *Session) Missing() []api.Key {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.missingNoSync()
}

func (s *Session) missingNoSync() []api.Key {
	res := []api.Key{}
	for _, k := range api.RequiredKeys() {
		if s.slots[k].State() != Captured {
			res = append(res, k)
		}
	}
	return res
}

// Objects returns the stored object name per captured key.
// Fails with ErrIncomplete when any required slot is missing
func (s *Session) Objects() (map[api.Key]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if missing := s.missingNoSync(); len(missing) > 0 {
		return nil, &ErrIncomplete{Missing: missing}
	}
	res := make(map[api.Key]string, len(s.slots))
	for k, sl := range s.slots {
		res[k] = sl.Object()
	}
	return res, nil
}

// BeginSubmit marks a submission in flight. Only one may be active
func (s *Session) BeginSubmit() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lastUsed = s.now()
	if s.inFlight {
		return ErrSubmitInFlight
	}
	s.inFlight = true
	return nil
}

// EndSubmit releases the in flight marker
func (s *Session) EndSubmit() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inFlight = false
}

// LastUsed returns the last activity time
func (s *Session) LastUsed() time.Time {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.lastUsed
}

type (
	// SlotInfo is a point in time view of one slot
	SlotInfo struct {
		Key         api.Key
		State       State
		DurationSec int
	}

	// Info is a point in time view of the whole session
	Info struct {
		ID       string
		Slots    []SlotInfo
		Missing  []api.Key
		Complete bool
	}
)

// Snapshot returns a consistent view of the session
func (s *Session) Snapshot() *Info {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.now()
	res := &Info{ID: s.ID}
	for _, k := range api.RequiredKeys() {
		sl := s.slots[k]
		res.Slots = append(res.Slots, SlotInfo{Key: k, State: sl.State(), DurationSec: sl.DurationSec(now)})
	}
	res.Missing = s.missingNoSync()
	res.Complete = len(res.Missing) == 0
	return res
}

// ObjectName builds the storage name for a slot clip
func (s *Session) ObjectName(key api.Key) (string, error) {
	return utils.MakeObjectName(s.ID, key.FileName())
}

func (s *Session) slot(key api.Key) (*Slot, error) {
	sl, ok := s.slots[key]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrWrongKey, key)
	}
	return sl, nil
}
