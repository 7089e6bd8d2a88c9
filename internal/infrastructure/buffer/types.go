package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityItem = "item"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"

	// PriorityHigh ops replay before PriorityNormal ones.
	PriorityHigh   = 1
	PriorityNormal = 3
)

// Op is a write against primary storage that could not be applied and is
// waiting to be replayed.
type Op struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	TargetID  string          `json:"target_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	key []byte
}

func (o *Op) normalize() {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Entity == "" {
		o.Entity = EntityItem
	}
	if o.Priority <= 0 || o.Priority > 5 {
		o.Priority = PriorityNormal
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
}
