package amqp

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewChangeMessage(t *testing.T) {
	msg := NewChangeMessage(EntityRecurring, ActionEntered, 42)

	if msg.ID != 42 {
		t.Errorf("ID = %d, want 42", msg.ID)
	}
	if _, err := uuid.Parse(msg.MessageID); err != nil {
		t.Errorf("message id %q should be a uuid: %v", msg.MessageID, err)
	}
	if d := time.Since(msg.Timestamp); d < 0 || d > time.Second {
		t.Errorf("Timestamp %v is not recent", msg.Timestamp)
	}
	if other := NewChangeMessage(EntityRecurring, ActionEntered, 42); other.MessageID == msg.MessageID {
		t.Error("message ids should be unique")
	}
}

func TestChangeMessageJSON(t *testing.T) {
	msg := &ChangeMessage{
		MessageID: "5f1c3c8e-8a43-4a57-9d36-2f8f0a1c6c11",
		Entity:    EntityRecurring,
		Action:    ActionPending,
		ID:        7,
		Date:      "2024-02-29",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}
	if !strings.Contains(string(body), `"date":"2024-02-29"`) {
		t.Errorf("body %s is missing the date", body)
	}

	parsed, err := ChangeMessageFromJSON(body)
	if err != nil {
		t.Fatalf("ChangeMessageFromJSON() error: %v", err)
	}
	if !reflect.DeepEqual(msg, parsed) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestChangeMessageFromJSONRejects(t *testing.T) {
	for name, body := range map[string]string{
		"bad id type":    `{"entity": "budget", "action": "created", "id": "seven"}`,
		"missing entity": `{"action": "created", "id": 7}`,
		"not json":       `nope`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ChangeMessageFromJSON([]byte(body)); err == nil {
				t.Errorf("expected error for %s", body)
			}
		})
	}
}

func TestAffectsReports(t *testing.T) {
	tests := []struct {
		entity Entity
		action Action
		want   bool
	}{
		{EntityTransaction, ActionCreated, true},
		{EntityTransaction, ActionDeleted, true},
		{EntityRecurring, ActionEntered, true},
		{EntityRecurring, ActionSkipped, false},
		{EntityRecurring, ActionPending, false},
		{EntityBudget, ActionUpdated, false},
		{EntityCategory, ActionDeleted, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.entity)+"_"+string(tt.action), func(t *testing.T) {
			if got := NewChangeMessage(tt.entity, tt.action, 1).AffectsReports(); got != tt.want {
				t.Errorf("AffectsReports() = %v, want %v", got, tt.want)
			}
		})
	}
}
