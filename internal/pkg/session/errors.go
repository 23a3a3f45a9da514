package session

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
)

var (
	// ErrNotFound indicates unknown or expired session ID
	ErrNotFound = errors.New("session not found")
	// ErrWrongKey indicates a prompt key outside the required set
	ErrWrongKey = errors.New("wrong prompt key")
	// ErrDeviceBusy indicates a recording already in progress within the session
	ErrDeviceBusy = errors.New("recording in progress")
	// ErrNotRecording indicates stop on a slot that is not recording
	ErrNotRecording = errors.New("slot is not recording")
	// ErrSubmitInFlight indicates a second submit while one is pending
	ErrSubmitInFlight = errors.New("submit already in progress")
)

// ErrIncomplete indicates submission before all required slots are captured
type ErrIncomplete struct {
	Missing []api.Key
}

func (e *ErrIncomplete) Error() string {
	sb := strings.Builder{}
	for i, k := range e.Missing {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k.String())
	}
	return fmt.Sprintf("missing recordings: %s", sb.String())
}
