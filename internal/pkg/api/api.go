package api

import (
	"context"
	"io"
)

// Scorer scores one voice clip against the predictor
type Scorer interface {
	Score(ctx context.Context, key Key, audio io.Reader) (float64, error)
}

// Form and query parameter names shared by the services
const (
	// PrmFile is the multipart form name for an audio clip
	PrmFile = "file"
	// PrmPercent carries the integer risk percent on a result handoff
	PrmPercent = "percent"
	// PrmLabel carries the model label on a result handoff
	PrmLabel = "label"
	// PrmSource marks a freshly computed result ("predict").
	// A history navigation carries no such marker
	PrmSource = "source"

	// SourceFresh is the PrmSource value of a just computed result
	SourceFresh = "predict"
)

// AudioExt is the container extension of recorded clips
const AudioExt = ".webm"

// Model labels as produced by the scorer aggregation
const (
	LabelParkinson    = "Parkinson"
	LabelNonParkinson = "Non-Parkinson"
)

// Key identifies one required voice prompt
type Key string

// The fixed prompt set: seven sustained vowels, one rapid
// syllable repetition and one sentence reading
const (
	KeyAa       Key = "aa"
	KeyEe       Key = "ee"
	KeyEu       Key = "eu"
	KeyUu       Key = "uu"
	KeyAi       Key = "ai"
	KeyAm       Key = "am"
	KeyAo       Key = "ao"
	KeyPataka   Key = "pataka"
	KeySentence Key = "sentence"
)

var requiredKeys = []Key{KeyAa, KeyEe, KeyEu, KeyUu, KeyAi, KeyAm, KeyAo, KeyPataka, KeySentence}

// RequiredKeys returns the ordered set of prompts a session must capture
func RequiredKeys() []Key {
	res := make([]Key, len(requiredKeys))
	copy(res, requiredKeys)
	return res
}

// IsRequired checks key membership in the required set
func IsRequired(k Key) bool {
	for _, r := range requiredKeys {
		if r == k {
			return true
		}
	}
	return false
}

func (k Key) String() string {
	return string(k)
}

// FileName returns the clip file name sent to the scorer
func (k Key) FileName() string {
	return string(k) + AudioExt
}
