package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity names the kind of record a change message refers to.
type Entity string

const (
	EntityTransaction Entity = "transaction"
	EntityRecurring   Entity = "recurring"
	EntityBudget      Entity = "budget"
	EntityAccount     Entity = "account"
	EntityPayee       Entity = "payee"
	EntityCategory    Entity = "category"
	EntityCurrency    Entity = "currency"
	EntitySettings    Entity = "settings"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionEntered Action = "entered"
	ActionSkipped Action = "skipped"
	// ActionPending announces a manual recurring transaction waiting for
	// the user to enter it.
	ActionPending Action = "pending"
)

// ChangeMessage tells consumers that data changed and derived views (report
// caches, dashboards) are stale. It carries ids only; consumers re-read what
// they need.
type ChangeMessage struct {
	MessageID string    `json:"message_id"`
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	ID        int64     `json:"id"`
	Date      string    `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity Entity, action Action, id int64) *ChangeMessage {
	return &ChangeMessage{
		MessageID: uuid.NewString(),
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// AffectsReports reports whether the change can alter report figures.
func (m *ChangeMessage) AffectsReports() bool {
	switch m.Entity {
	case EntityTransaction, EntityAccount, EntityPayee, EntityCategory:
		return true
	case EntityRecurring:
		return m.Action == ActionEntered
	}
	return false
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Entity == "" || msg.Action == "" {
		return nil, fmt.Errorf("change message missing entity or action")
	}
	return &msg, nil
}
