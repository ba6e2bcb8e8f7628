package wetlib

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ActionKind is the kind of remote mutation a pending action represents.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
)

// Endpoint names the remote resource an action targets.
const (
	EndpointLocations = "locations"
	EndpointUsers     = "users"
)

// PendingAction is a durable record of a mutation not yet applied to the
// remote system. IDs are unique and ordered by creation time. RecordID is
// set for update/delete; creates have no remote id yet. Only the sync
// engine mutates an action after creation, and only its RetryCount.
type PendingAction struct {
	ID         string          `json:"id"`
	Kind       ActionKind      `json:"type"`
	Endpoint   string          `json:"endpoint"`
	RecordID   string          `json:"locationId,omitempty"`
	Payload    json.RawMessage `json:"data,omitempty"`
	CreatedAt  time.Time       `json:"timestamp"`
	RetryCount int             `json:"retryCount"`
}

// Validate rejects malformed actions before anything is persisted.
func (a PendingAction) Validate() error {
	err := validation.ValidateStruct(&a,
		validation.Field(&a.Kind, validation.Required,
			validation.In(ActionCreate, ActionUpdate, ActionDelete)),
		validation.Field(&a.Endpoint, validation.Required,
			validation.In(EndpointLocations, EndpointUsers)),
		validation.Field(&a.RecordID,
			validation.Required.When(a.Kind != ActionCreate).
				Error("record id is required for update and delete"),
			validation.Empty.When(a.Kind == ActionCreate).
				Error("create actions carry no record id")),
		validation.Field(&a.Payload,
			validation.Required.When(a.Kind != ActionDelete).
				Error("payload is required for create and update")),
	)
	if err != nil {
		return &ValidationError{Subject: "pending action", Err: err}
	}
	return nil
}

// actionSeq disambiguates ids generated within the same nanosecond.
var actionSeq atomic.Uint64

// newActionID returns an id that sorts lexicographically by creation time.
// The original client used bare millisecond timestamps; the fixed-width
// nanosecond prefix keeps that ordering collision-free.
func newActionID(now time.Time) string {
	return fmt.Sprintf("%020d-%06d", now.UnixNano(), actionSeq.Add(1)%1000000)
}
