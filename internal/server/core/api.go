package core

import (
	"chessclock/internal/server/clock"
	"chessclock/internal/server/timecontrol"
)

// Request types

type CreateClockRequest struct {
	TimeControl string `json:"timeControl,omitempty" validate:"omitempty,min=3,max=8"` // Defaults to timecontrol.DefaultID
}

type TapRequest struct {
	Side string `json:"side" validate:"required,oneof=a b top bottom"`
}

type SelectTimeControlRequest struct {
	TimeControl string `json:"timeControl" validate:"required,min=3,max=8"`
}

// Response types

type ClockResponse struct {
	ClockID string `json:"clockId"`
	clock.Snapshot
}

type TimeControlsResponse struct {
	Default      string              `json:"default"`
	TimeControls []timecontrol.Entry `json:"timeControls"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
