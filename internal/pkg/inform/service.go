package inform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jordan-wright/email"
	"github.com/vgarvardt/gue/v5"

	"github.com/sixtyscan/voiceapi/internal/pkg/classify"
	"github.com/sixtyscan/voiceapi/internal/pkg/messages"
	"github.com/sixtyscan/voiceapi/internal/pkg/utils"
)

// Sender send emails
type Sender interface {
	Send(email *email.Email) error
}

// EmailMaker prepares the email
type EmailMaker interface {
	Make(data *messages.ResultMessage) (*email.Email, error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	EmailSender Sender
	EmailMaker  EmailMaker
}

// StartWorkerService starts the event queue listener service to listen for new screening results
// returns channel for tracking when all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Msg("Starting listen for messages")

	wm := gue.WorkMap{
		messages.Inform: utils.CreateHandler(data, handleResult),
	}

	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, data.WorkerCount,
		gue.WithPoolQueue(messages.Inform),
		gue.WithPoolLogger(utils.NewGueLoggerAdapter()),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("sixty-inform"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not build gue workers pool: %w", err)
	}
	res := make(chan struct{}, 1)
	go func() {
		goapp.Log.Info().Msg("Starting workers")
		if err := pool.Run(ctx); err != nil {
			goapp.Log.Error().Err(err).Msg("pool error")
		}
		goapp.Log.Info().Msg("Pool workers finished")
		res <- struct{}{}
	}()
	return res, nil
}

func handleResult(ctx context.Context, m *messages.ResultMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Msg("handling")

	if m.Email == "" {
		goapp.Log.Info().Msg("No email, skip")
		return nil
	}
	email, err := data.EmailMaker.Make(m)
	if err != nil {
		return fmt.Errorf("can't prepare email: %w", err)
	}
	if err := data.EmailSender.Send(email); err != nil {
		return fmt.Errorf("can't send email: %w", err)
	}
	goapp.Log.Info().Str("ID", m.ID).Msg("sent")
	return nil
}

func validate(data *ServiceData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.EmailMaker == nil {
		return fmt.Errorf("no EmailMaker")
	}
	if data.EmailSender == nil {
		return fmt.Errorf("no EmailSender")
	}
	return nil
}

// resultEmailMaker builds the result email text
type resultEmailMaker struct {
	from string
}

// NewResultEmailMaker creates the default email maker
func NewResultEmailMaker(from string) (*resultEmailMaker, error) {
	if from == "" {
		return nil, fmt.Errorf("no sender address")
	}
	return &resultEmailMaker{from: from}, nil
}

// Make prepares the result email for one message
func (m *resultEmailMaker) Make(data *messages.ResultMessage) (*email.Email, error) {
	if data.Email == "" {
		return nil, fmt.Errorf("no email")
	}
	cl := classify.Do(data.Percent)
	res := email.NewEmail()
	res.From = m.from
	res.To = []string{data.Email}
	res.Subject = "SixtyScan voice analysis result"
	sb := strings.Builder{}
	sb.WriteString("Your voice screening result is ready.\n\n")
	sb.WriteString(fmt.Sprintf("Summary: voice %s\n", cl.Diagnosis))
	sb.WriteString(fmt.Sprintf("Risk tier: %s\n", cl.Tier))
	sb.WriteString(fmt.Sprintf("Voice risk percent: %d%%\n", data.Percent))
	sb.WriteString(fmt.Sprintf("Model label: %s\n", data.Label))
	sb.WriteString("\nNote: this result is a voice based screening only and is not a medical diagnosis.\n")
	res.Text = []byte(sb.String())
	return res, nil
}
