package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_NewGet(t *testing.T) {
	m, err := NewManager(time.Minute)
	require.Nil(t, err)
	s := m.New()
	require.NotEmpty(t, s.ID)
	got, err := m.Get(s.ID)
	require.Nil(t, err)
	assert.Same(t, s, got)
}

func TestManager_Get_NotFound(t *testing.T) {
	m, _ := NewManager(time.Minute)
	_, err := m.Get("olia")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Clean(t *testing.T) {
	m, _ := NewManager(time.Minute)
	s := m.New()
	require.Nil(t, m.Clean(context.Background(), s.ID))
	_, err := m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, m.Clean(context.Background(), s.ID))
}

func TestManager_GetExpired(t *testing.T) {
	m, _ := NewManager(time.Minute)
	cl := &fakeClock{at: time.Date(2023, 5, 10, 10, 0, 0, 0, time.UTC)}
	m.now = cl.now
	old := m.New()
	cl.advance(time.Minute * 2)
	fresh := m.New()

	ids, err := m.GetExpired(context.Background())
	require.Nil(t, err)
	assert.Equal(t, []string{old.ID}, ids)
	assert.NotContains(t, ids, fresh.ID)
}

func TestNewManager_Fail(t *testing.T) {
	_, err := NewManager(0)
	assert.NotNil(t, err)
}
