package store

import (
	"context"
	"fmt"
	"strconv"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"

	"github.com/sixtyscan/voiceapi/internal/pkg/messages"
	"github.com/sixtyscan/voiceapi/internal/pkg/persistence"
	"github.com/sixtyscan/voiceapi/internal/pkg/scoring"
)

// DB saves screening outcomes
type DB interface {
	InsertTestResult(ctx context.Context, item *persistence.TestRecord) error
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// Gateway records freshly computed results for identified users.
// A result is written at most once - the guard is keyed to the
// result instance, a redisplay triggers no insert
type Gateway struct {
	db        DB
	msgSender MsgSender
}

// NewGateway creates a persistence gateway
func NewGateway(db DB, msgSender MsgSender) (*Gateway, error) {
	if db == nil {
		return nil, fmt.Errorf("no DB")
	}
	return &Gateway{db: db, msgSender: msgSender}, nil
}

// Persist inserts the outcome when it is a fresh submission of an
// identified user. Returns the stored record or nil when skipped
func (g *Gateway) Persist(ctx context.Context, res *scoring.Result, userEmail string, fresh bool) (*persistence.TestRecord, error) {
	if !fresh {
		goapp.Log.Debug().Msg("not a fresh submission, skip persist")
		return nil, nil
	}
	if userEmail == "" {
		goapp.Log.Debug().Msg("no user, skip persist")
		return nil, nil
	}
	if !res.MarkPersisted() {
		goapp.Log.Debug().Msg("already persisted, skip")
		return nil, nil
	}
	rec := &persistence.TestRecord{UserEmail: userEmail, Percent: res.Percent, Label: res.Label}
	if err := g.db.InsertTestResult(ctx, rec); err != nil {
		return nil, fmt.Errorf("can't persist result: %w", err)
	}
	goapp.Log.Info().Int64("ID", rec.ID).Int("percent", rec.Percent).Msg("result saved")
	g.sendInform(ctx, rec)
	return rec, nil
}

// sendInform enqueues the result email event, failure does not
// affect the stored record
func (g *Gateway) sendInform(ctx context.Context, rec *persistence.TestRecord) {
	if g.msgSender == nil {
		return
	}
	msg := &messages.ResultMessage{QueueMessage: amessages.QueueMessage{ID: strconv.FormatInt(rec.ID, 10)},
		Email: rec.UserEmail, Percent: rec.Percent, Label: rec.Label}
	if err := g.msgSender.SendMessage(ctx, msg, messages.Inform); err != nil {
		goapp.Log.Error().Err(err).Msg("can't send inform msg")
	}
}
