package domain

import "errors"

// RejectKind classifies a per-event rejection. Rejections are reported to the
// originating caller only and never affect other participants or room state.
type RejectKind string

const (
	KindRoomNotFound     RejectKind = "room-not-found"
	KindUnauthorized     RejectKind = "unauthorized"
	KindInvalidState     RejectKind = "invalid-state"
	KindNoActiveQuestion RejectKind = "no-active-question"
	KindValidation       RejectKind = "validation-error"
	KindBanned           RejectKind = "banned"
)

// Rejection is a structured, recoverable refusal of a single inbound event.
type Rejection struct {
	Kind    RejectKind
	Message string
}

func (e *Rejection) Error() string { return e.Message }

// Is matches any rejection of the same kind, so callers can use errors.Is
// against the canonical instances below.
func (e *Rejection) Is(target error) bool {
	var other *Rejection
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func Reject(kind RejectKind, message string) *Rejection {
	return &Rejection{Kind: kind, Message: message}
}

// Canonical instances for errors.Is checks.
var (
	ErrRoomNotFound     = &Rejection{Kind: KindRoomNotFound, Message: "room not found"}
	ErrUnauthorized     = &Rejection{Kind: KindUnauthorized, Message: "not authorized"}
	ErrInvalidState     = &Rejection{Kind: KindInvalidState, Message: "invalid state"}
	ErrNoActiveQuestion = &Rejection{Kind: KindNoActiveQuestion, Message: "no active question"}
	ErrBanned           = &Rejection{Kind: KindBanned, Message: "banned"}
)

// KindOf extracts the rejection kind from err, or empty if err is not a
// rejection.
func KindOf(err error) RejectKind {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection.Kind
	}
	return ""
}
