package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReportComputedMessage announces that a report was generated from a source.
// It carries the headline figures only; consumers re-read the source for detail.
type ReportComputedMessage struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	TotalEarned  float64   `json:"total_earned"`
	TotalEntries int       `json:"total_entries"`
	EntityCount  int       `json:"entity_count"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReportSummary holds the figures copied into a ReportComputedMessage.
type ReportSummary struct {
	TotalEarned  float64
	TotalEntries int
	EntityCount  int
	StartDate    string
	EndDate      string
}

func NewReportComputedMessage(source string, s ReportSummary) *ReportComputedMessage {
	return &ReportComputedMessage{
		ID:           uuid.NewString(),
		Source:       source,
		TotalEarned:  s.TotalEarned,
		TotalEntries: s.TotalEntries,
		EntityCount:  s.EntityCount,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		Timestamp:    time.Now().UTC(),
	}
}

func (m *ReportComputedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportComputedMessageFromJSON decodes a message and requires an id.
func ReportComputedMessageFromJSON(data []byte) (*ReportComputedMessage, error) {
	var msg ReportComputedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("message id is required")
	}
	return &msg, nil
}
