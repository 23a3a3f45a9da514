package messages

import (
	amessages "github.com/airenas/async-api/pkg/messages"
)

const (
	st = "SIXTY/"
	// Inform queue name
	Inform = st + "Inform"
)

// ResultMessage announces one persisted screening outcome
type ResultMessage struct {
	amessages.QueueMessage
	Email   string `json:"email,omitempty"`
	Percent int    `json:"percent"`
	Label   string `json:"label,omitempty"`
}
