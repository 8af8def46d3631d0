// Package closures stores ad hoc exchange closures, early closes and late
// opens entered by operators, and turns them into calendar overlays.
package closures

import (
	"errors"
	"time"

	"github.com/golang-sql/civil"
)

// Kind is the type of ad hoc exception
type Kind string

const (
	// KindClosed closes the exchange for the whole day
	KindClosed Kind = "closed"
	// KindEarlyClose moves the close of the session
	KindEarlyClose Kind = "early_close"
	// KindLateOpen moves the open of the session
	KindLateOpen Kind = "late_open"
)

var (
	// ErrNotFound is returned when no closure has the requested ID
	ErrNotFound = errors.New("closure not found")
	// ErrDuplicate is returned when the exchange already has a closure of the
	// same kind on that date
	ErrDuplicate = errors.New("closure already exists")
	// ErrInvalidClosure wraps request validation failures
	ErrInvalidClosure = errors.New("invalid closure")
)

// Closure is one ad hoc exception to an exchange calendar
type Closure struct {
	ID        string     `json:"id"`
	Exchange  string     `json:"exchange"`
	Date      civil.Date `json:"date"`
	Kind      Kind       `json:"kind"`
	Time      string     `json:"time,omitempty"` // HH:MM local, early_close and late_open only
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CreateRequest is the payload for a new closure
type CreateRequest struct {
	Exchange string `json:"exchange" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Kind     Kind   `json:"kind" validate:"required,oneof=closed early_close late_open"`
	Time     string `json:"time" validate:"omitempty,datetime=15:04"`
	Reason   string `json:"reason" validate:"max=200"`
}
