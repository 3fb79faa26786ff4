package domain

import (
	"errors"
	"time"
)

// RenovationStatus represents the lifecycle state of a renovation project.
type RenovationStatus string

const (
	RenovationPlanned    RenovationStatus = "planned"
	RenovationApproved   RenovationStatus = "approved"
	RenovationInProgress RenovationStatus = "in_progress"
	RenovationCompleted  RenovationStatus = "completed"
	RenovationCancelled  RenovationStatus = "cancelled"
)

// validRenovationTransitions defines the allowed status transitions. The
// client validates these before issuing a status update so an obviously
// invalid request never leaves the device.
var validRenovationTransitions = map[RenovationStatus][]RenovationStatus{
	RenovationPlanned:    {RenovationApproved, RenovationCancelled},
	RenovationApproved:   {RenovationInProgress, RenovationCancelled},
	RenovationInProgress: {RenovationCompleted, RenovationCancelled},
}

var ErrRenovationNotFound = errors.New("renovation not found")

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s RenovationStatus) CanTransitionTo(next RenovationStatus) bool {
	for _, allowed := range validRenovationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Property is a managed building or unit.
type Property struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	OwnerID string `json:"owner_id,omitempty"`
}

// Renovation is a renovation project attached to a property.
type Renovation struct {
	ID          string           `json:"id"`
	PropertyID  string           `json:"property_id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Status      RenovationStatus `json:"status"`
	Budget      float64          `json:"budget,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
