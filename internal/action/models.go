package action

import (
	"encoding/json"

	"wallet-background/internal/rpc"
)

// Status is the lifecycle state of an approval action.
type Status string

const (
	// StatusPending means the user has been shown the UI and we are
	// waiting on approval
	StatusPending Status = "pending"
	// StatusSubmitting means the user approved and the handler's approval
	// callback is executing
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	// StatusErrorUserCanceled means the user rejected, or closed the
	// approval window without answering
	StatusErrorUserCanceled Status = "error-user-canceled"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusErrorUserCanceled:
		return true
	}
	return false
}

// transitions lists the permitted status moves. A terminal status repeated
// onto itself is handled separately as an idempotent no-op.
var transitions = map[Status][]Status{
	StatusPending: {
		StatusSubmitting,
		StatusErrorUserCanceled,
		// purely-local approvals with no asynchronous side effect may
		// complete without passing through submitting
		StatusCompleted,
	},
	StatusSubmitting: {
		StatusCompleted,
		StatusError,
		StatusErrorUserCanceled,
	},
}

func transitionAllowed(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Action is the durable record of an operation pending or having required
// user approval. It carries all fields of the originating request; the
// request itself is never mutated.
type Action struct {
	ActionID string          `json:"actionId"`
	ID       string          `json:"id"`
	Method   string          `json:"method"`
	Params   json.RawMessage `json:"params,omitempty"`
	Scope    string          `json:"scope,omitempty"`
	Site     *rpc.Domain     `json:"site,omitempty"`

	Time   int64  `json:"time"`
	Status Status `json:"status"`

	// DisplayData is the handler-specific, UI-consumable projection of
	// the request
	DisplayData json.RawMessage `json:"displayData,omitempty"`

	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	// ErrorCode is the provider error code the failure settled with,
	// zero when the failure carried none
	ErrorCode int `json:"errorCode,omitempty"`

	TabID int `json:"tabId,omitempty"`
	// PopupWindowID lets the reaper detect approval popups the user
	// closed without answering
	PopupWindowID int `json:"popupWindowId,omitempty"`
}

// Request reconstructs the originating provider request.
func (a *Action) Request() *rpc.Request {
	return &rpc.Request{
		ID:     a.ID,
		Method: a.Method,
		Params: a.Params,
		Scope:  a.Scope,
		Site:   a.Site,
		TabID:  a.TabID,
	}
}

// DecodeDisplayData unmarshals the UI projection into dst.
func (a *Action) DecodeDisplayData(dst interface{}) error {
	return json.Unmarshal(a.DisplayData, dst)
}

// Clone returns a deep-enough copy for handing to listeners.
func (a *Action) Clone() *Action {
	cp := *a
	if a.Site != nil {
		site := *a.Site
		cp.Site = &site
	}
	return &cp
}

// Patch carries the optional fields of a status update.
type Patch struct {
	Result      interface{}
	Error       string
	ErrorCode   int
	DisplayData json.RawMessage
	TabID       int
}

// EventType tags store notifications.
type EventType string

const (
	// EventUpdated fires on every accepted status transition
	EventUpdated EventType = "action-updated"
	// EventCompleted fires once when an action reaches a terminal status
	EventCompleted EventType = "action-completed"
)

// Event is delivered to store listeners with a snapshot of the action.
type Event struct {
	Type   EventType
	Action *Action
}
