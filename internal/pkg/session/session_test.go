package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
)

type fakeClock struct {
	at time.Time
}

func (c *fakeClock) now() time.Time {
	return c.at
}

func (c *fakeClock) advance(d time.Duration) {
	c.at = c.at.Add(d)
}

func newTestSession(t *testing.T) (*Session, *fakeClock) {
	t.Helper()
	cl := &fakeClock{at: time.Date(2023, 5, 10, 10, 0, 0, 0, time.UTC)}
	return newSession("id1", cl.now), cl
}

func capture(t *testing.T, s *Session, keys ...api.Key) {
	t.Helper()
	for _, k := range keys {
		require.Nil(t, s.StartRecording(k))
		obj, err := s.ObjectName(k)
		require.Nil(t, err)
		require.Nil(t, s.StopRecording(k, obj, 100))
	}
}

func TestStartStop(t *testing.T) {
	s, cl := newTestSession(t)
	require.Nil(t, s.StartRecording(api.KeyAa))
	cl.advance(time.Second * 6)
	require.Nil(t, s.StopRecording(api.KeyAa, "id1/aa.webm", 100))

	info := s.Snapshot()
	assert.Equal(t, Captured, info.Slots[0].State)
	assert.Equal(t, 6, info.Slots[0].DurationSec)
	assert.Equal(t, 8, len(info.Missing))
	assert.False(t, info.Complete)
}

func TestStart_WrongKey(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.StartRecording(api.Key("olia"))
	assert.ErrorIs(t, err, ErrWrongKey)
}

func TestStart_BusySameSlot(t *testing.T) {
	s, _ := newTestSession(t)
	require.Nil(t, s.StartRecording(api.KeyAa))
	err := s.StartRecording(api.KeyAa)
	assert.ErrorIs(t, err, ErrDeviceBusy)
}

func TestStart_BusyOtherSlot(t *testing.T) {
	s, _ := newTestSession(t)
	require.Nil(t, s.StartRecording(api.KeyAa))
	err := s.StartRecording(api.KeyEe)
	assert.ErrorIs(t, err, ErrDeviceBusy)
}

func TestStart_AfterStopAllowed(t *testing.T) {
	s, _ := newTestSession(t)
	require.Nil(t, s.StartRecording(api.KeyAa))
	require.Nil(t, s.StopRecording(api.KeyAa, "id1/aa.webm", 100))
	assert.Nil(t, s.StartRecording(api.KeyEe))
}

func TestStart_RerecordDiscardsCapture(t *testing.T) {
	s, cl := newTestSession(t)
	capture(t, s, api.KeyAa)
	require.Nil(t, s.StartRecording(api.KeyAa))
	cl.advance(time.Second * 2)

	info := s.Snapshot()
	assert.Equal(t, Recording, info.Slots[0].State)
	assert.Equal(t, 2, info.Slots[0].DurationSec)
	_, err := s.Objects()
	var errInc *ErrIncomplete
	require.ErrorAs(t, err, &errInc)
	assert.Contains(t, errInc.Missing, api.KeyAa)
}

func TestStop_NotRecording(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.StopRecording(api.KeyAa, "id1/aa.webm", 100)
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestDelete_Captured(t *testing.T) {
	s, _ := newTestSession(t)
	capture(t, s, api.KeyAa)
	obj, err := s.DeleteSlot(api.KeyAa)
	require.Nil(t, err)
	assert.Equal(t, "id1/aa.webm", obj)
	assert.Equal(t, Idle, s.Snapshot().Slots[0].State)
	assert.Equal(t, 0, s.Snapshot().Slots[0].DurationSec)
}

func TestDelete_WhileRecordingReleasesDevice(t *testing.T) {
	s, _ := newTestSession(t)
	require.Nil(t, s.StartRecording(api.KeyAa))
	obj, err := s.DeleteSlot(api.KeyAa)
	require.Nil(t, err)
	assert.Equal(t, "", obj)
	assert.Nil(t, s.StartRecording(api.KeyEe))
}

func TestDelete_Idle(t *testing.T) {
	s, _ := newTestSession(t)
	obj, err := s.DeleteSlot(api.KeyAa)
	require.Nil(t, err)
	assert.Equal(t, "", obj)
}

func TestObjects_Incomplete(t *testing.T) {
	s, _ := newTestSession(t)
	capture(t, s, api.KeyAa, api.KeyEe)
	_, err := s.Objects()
	var errInc *ErrIncomplete
	require.ErrorAs(t, err, &errInc)
	assert.Equal(t, 7, len(errInc.Missing))
	assert.NotContains(t, errInc.Missing, api.KeyAa)
	assert.NotContains(t, errInc.Missing, api.KeyEe)
}

func TestObjects_Complete(t *testing.T) {
	s, _ := newTestSession(t)
	capture(t, s, api.RequiredKeys()...)
	objs, err := s.Objects()
	require.Nil(t, err)
	assert.Equal(t, 9, len(objs))
	assert.Equal(t, "id1/aa.webm", objs[api.KeyAa])
	assert.True(t, s.Snapshot().Complete)
}

func TestSubmitGuard(t *testing.T) {
	s, _ := newTestSession(t)
	require.Nil(t, s.BeginSubmit())
	assert.ErrorIs(t, s.BeginSubmit(), ErrSubmitInFlight)
	s.EndSubmit()
	assert.Nil(t, s.BeginSubmit())
}

func TestDuration_CountsWhileRecording(t *testing.T) {
	s, cl := newTestSession(t)
	require.Nil(t, s.StartRecording(api.KeyPataka))
	cl.advance(time.Second * 3)
	assert.Equal(t, 3, s.Snapshot().Slots[7].DurationSec)
	cl.advance(time.Second * 4)
	assert.Equal(t, 7, s.Snapshot().Slots[7].DurationSec)
	require.Nil(t, s.StopRecording(api.KeyPataka, "id1/pataka.webm", 10))
	cl.advance(time.Minute)
	assert.Equal(t, 7, s.Snapshot().Slots[7].DurationSec)
}
