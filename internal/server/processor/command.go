package processor

import (
	"chessclock/internal/server/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateClock CommandType = iota
	CmdGetClock
	CmdDeleteClock
	CmdTap
	CmdReset
	CmdSelectTimeControl
	CmdListTimeControls
)

func (t CommandType) String() string {
	switch t {
	case CmdCreateClock:
		return "create"
	case CmdGetClock:
		return "get"
	case CmdDeleteClock:
		return "delete"
	case CmdTap:
		return "tap"
	case CmdReset:
		return "reset"
	case CmdSelectTimeControl:
		return "select"
	case CmdListTimeControls:
		return "list"
	default:
		return "unknown"
	}
}

// Command is a unified structure for all processor operations
type Command struct {
	Type    CommandType
	ClockID string // For clock-specific commands
	Args    any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateClockCommand(req core.CreateClockRequest) Command {
	return Command{
		Type: CmdCreateClock,
		Args: req,
	}
}

func NewGetClockCommand(clockID string) Command {
	return Command{
		Type:    CmdGetClock,
		ClockID: clockID,
	}
}

func NewDeleteClockCommand(clockID string) Command {
	return Command{
		Type:    CmdDeleteClock,
		ClockID: clockID,
	}
}

func NewTapCommand(clockID string, req core.TapRequest) Command {
	return Command{
		Type:    CmdTap,
		ClockID: clockID,
		Args:    req,
	}
}

func NewResetCommand(clockID string) Command {
	return Command{
		Type:    CmdReset,
		ClockID: clockID,
	}
}

func NewSelectTimeControlCommand(clockID string, req core.SelectTimeControlRequest) Command {
	return Command{
		Type:    CmdSelectTimeControl,
		ClockID: clockID,
		Args:    req,
	}
}

func NewListTimeControlsCommand() Command {
	return Command{Type: CmdListTimeControls}
}
