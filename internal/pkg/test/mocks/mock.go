package mocks

import (
	"context"
	"io"

	"github.com/airenas/async-api/pkg/messages"
	"github.com/stretchr/testify/mock"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
	"github.com/sixtyscan/voiceapi/internal/pkg/persistence"
)

// Filer is minio mock
type Filer struct{ mock.Mock }

func (m *Filer) SaveFile(ctx context.Context, name string, r io.Reader) error {
	args := m.Called(ctx, name, r)
	return args.Error(0)
}

// LoadFile func mock
func (m *Filer) LoadFile(ctx context.Context, fileName string) (io.ReadSeekCloser, error) {
	args := m.Called(ctx, fileName)
	return To[io.ReadSeekCloser](args.Get(0)), args.Error(1)
}

func (m *Filer) Clean(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// DB is postgres DB mock
type DB struct{ mock.Mock }

func (m *DB) InsertTestResult(ctx context.Context, item *persistence.TestRecord) error {
	args := m.Called(ctx, item)
	if err := args.Error(0); err != nil {
		return err
	}
	item.ID = 1
	return nil
}

func (m *DB) LoadTestResults(ctx context.Context, userEmail string) ([]*persistence.TestRecord, error) {
	args := m.Called(ctx, userEmail)
	return To[[]*persistence.TestRecord](args.Get(0)), args.Error(1)
}

func (m *DB) LoadTestResult(ctx context.Context, userEmail string, id int64) (*persistence.TestRecord, error) {
	args := m.Called(ctx, userEmail, id)
	return To[*persistence.TestRecord](args.Get(0)), args.Error(1)
}

// Sender is postgres queue mock
type Sender struct{ mock.Mock }

func (m *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	args := m.Called(ctx, msg, queue)
	return args.Error(0)
}

// Scorer is predictor client mock
type Scorer struct{ mock.Mock }

func (m *Scorer) Score(ctx context.Context, key api.Key, audio io.Reader) (float64, error) {
	args := m.Called(ctx, key, audio)
	return args.Get(0).(float64), args.Error(1)
}

// To casts mock arg to the wanted type, keeping the zero value for nil
func To[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
