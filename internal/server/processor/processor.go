package processor

import (
	"errors"

	"github.com/rs/zerolog/log"

	"chessclock/internal/server/clock"
	"chessclock/internal/server/core"
	"chessclock/internal/server/service"
	"chessclock/internal/server/timecontrol"
)

// Processor validates command arguments and maps service outcomes to
// wire responses
type Processor struct {
	svc *service.Service
}

func New(svc *service.Service) *Processor {
	return &Processor{svc: svc}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateClock:
		return p.handleCreateClock(cmd)
	case CmdGetClock:
		return p.handleGetClock(cmd)
	case CmdDeleteClock:
		return p.handleDeleteClock(cmd)
	case CmdTap:
		return p.handleTap(cmd)
	case CmdReset:
		return p.handleReset(cmd)
	case CmdSelectTimeControl:
		return p.handleSelectTimeControl(cmd)
	case CmdListTimeControls:
		return p.handleListTimeControls()
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

func (p *Processor) handleCreateClock(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateClockRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	id, snap, err := p.svc.CreateClock(args.TimeControl)
	if err != nil {
		return p.fromError(cmd, err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    core.ClockResponse{ClockID: id, Snapshot: snap},
	}
}

func (p *Processor) handleGetClock(cmd Command) ProcessorResponse {
	snap, err := p.svc.GetClock(cmd.ClockID)
	if err != nil {
		return p.fromError(cmd, err)
	}
	return p.clockResponse(cmd.ClockID, snap)
}

func (p *Processor) handleDeleteClock(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteClock(cmd.ClockID); err != nil {
		return p.fromError(cmd, err)
	}
	return ProcessorResponse{Success: true}
}

func (p *Processor) handleTap(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.TapRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	side, err := clock.ParseSide(args.Side)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	snap, err := p.svc.Tap(cmd.ClockID, side)
	if err != nil {
		return p.fromError(cmd, err)
	}
	return p.clockResponse(cmd.ClockID, snap)
}

func (p *Processor) handleReset(cmd Command) ProcessorResponse {
	snap, err := p.svc.Reset(cmd.ClockID)
	if err != nil {
		return p.fromError(cmd, err)
	}
	return p.clockResponse(cmd.ClockID, snap)
}

func (p *Processor) handleSelectTimeControl(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.SelectTimeControlRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	snap, err := p.svc.SelectTimeControl(cmd.ClockID, args.TimeControl)
	if err != nil {
		return p.fromError(cmd, err)
	}
	return p.clockResponse(cmd.ClockID, snap)
}

func (p *Processor) handleListTimeControls() ProcessorResponse {
	return ProcessorResponse{
		Success: true,
		Data: core.TimeControlsResponse{
			Default:      p.svc.DefaultTimeControl(),
			TimeControls: p.svc.TimeControls(),
		},
	}
}

func (p *Processor) clockResponse(id string, snap clock.Snapshot) ProcessorResponse {
	return ProcessorResponse{
		Success: true,
		Data:    core.ClockResponse{ClockID: id, Snapshot: snap},
	}
}

// fromError maps domain errors onto wire error codes
func (p *Processor) fromError(cmd Command, err error) ProcessorResponse {
	var nf *timecontrol.NotFoundError
	var te *clock.TransitionError

	switch {
	case errors.Is(err, service.ErrClockNotFound):
		return p.errorResponse("clock not found", core.ErrClockNotFound)
	case errors.As(err, &nf):
		return p.errorResponse(err.Error(), core.ErrTimeControlNotFound)
	case errors.As(err, &te):
		return p.errorResponse(err.Error(), core.ErrInvalidTransition)
	case errors.Is(err, service.ErrClockLimit):
		return p.errorResponse("clock limit reached", core.ErrResourceLimit)
	default:
		log.Error().Err(err).Str("command", cmd.Type.String()).Str("clock_id", cmd.ClockID).Msg("command failed")
		return p.errorResponse("internal error", core.ErrInternalError)
	}
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}
