package amqp

import (
	"testing"
	"time"
)

func TestNewReportComputedMessage(t *testing.T) {
	msg := NewReportComputedMessage("csv:rewards.csv", ReportSummary{
		TotalEarned:  350,
		TotalEntries: 3,
		EntityCount:  2,
		StartDate:    "2024-01-01",
		EndDate:      "2024-02-01",
	})

	if msg.ID == "" {
		t.Fatal("expected a generated id")
	}
	if msg.Source != "csv:rewards.csv" || msg.TotalEarned != 350 || msg.EntityCount != 2 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Fatal("timestamp should be recent")
	}

	other := NewReportComputedMessage("csv:rewards.csv", ReportSummary{})
	if other.ID == msg.ID {
		t.Fatal("ids should be unique")
	}
}

func TestReportComputedMessageJSON(t *testing.T) {
	msg := &ReportComputedMessage{
		ID:           "0b8e7c55-3f4c-4c9b-9a53-6a1f0f3e2d11",
		Source:       "sqlite:rewards.db",
		TotalEarned:  12.5,
		TotalEntries: 4,
		Timestamp:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := ReportComputedMessageFromJSON(raw)
	if err != nil {
		t.Fatalf("ReportComputedMessageFromJSON() error = %v", err)
	}
	if parsed.ID != msg.ID || parsed.TotalEarned != msg.TotalEarned || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestReportComputedMessageInvalidJSON(t *testing.T) {
	cases := map[string]string{
		"wrong type": `{"id": 5}`,
		"missing id": `{"source": "memory"}`,
		"not json":   `nope`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ReportComputedMessageFromJSON([]byte(body)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
