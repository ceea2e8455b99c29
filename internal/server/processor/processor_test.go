package processor

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"chessclock/internal/server/clock"
	"chessclock/internal/server/core"
	"chessclock/internal/server/service"
	"chessclock/internal/server/timecontrol"
)

func newTestProcessor(t *testing.T, maxClocks int) *Processor {
	t.Helper()
	svc := service.New(timecontrol.New(), service.Options{
		Clock:     clockwork.NewFakeClock(),
		MaxClocks: maxClocks,
	})
	t.Cleanup(func() { svc.Shutdown(time.Second) })
	return New(svc)
}

func createClock(t *testing.T, p *Processor, tc string) string {
	t.Helper()
	resp := p.Execute(NewCreateClockCommand(core.CreateClockRequest{TimeControl: tc}))
	if !resp.Success {
		t.Fatalf("create failed: %+v", resp.Error)
	}
	return resp.Data.(core.ClockResponse).ClockID
}

func TestExecute_ErrorCodes(t *testing.T) {
	p := newTestProcessor(t, 0)
	id := createClock(t, p, "3+2")

	tests := []struct {
		name string
		cmd  Command
		code string
	}{
		{"unknown clock", NewGetClockCommand("nope"), core.ErrClockNotFound},
		{"unknown time control on create", NewCreateClockCommand(core.CreateClockRequest{TimeControl: "9+9"}), core.ErrTimeControlNotFound},
		{"unknown time control on select", NewSelectTimeControlCommand(id, core.SelectTimeControlRequest{TimeControl: "9+9"}), core.ErrTimeControlNotFound},
		{"bad side", NewTapCommand(id, core.TapRequest{Side: "left"}), core.ErrInvalidRequest},
		{"wrong args", Command{Type: CmdTap, ClockID: id, Args: "a"}, core.ErrInvalidRequest},
		{"unknown command", Command{Type: CommandType(99)}, core.ErrInvalidRequest},
		{"delete unknown", NewDeleteClockCommand("nope"), core.ErrClockNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := p.Execute(tt.cmd)
			if resp.Success {
				t.Fatal("expected failure")
			}
			if resp.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s (%s)", tt.code, resp.Error.Code, resp.Error.Error)
			}
		})
	}
}

func TestExecute_TapFlow(t *testing.T) {
	p := newTestProcessor(t, 0)
	id := createClock(t, p, "")

	resp := p.Execute(NewTapCommand(id, core.TapRequest{Side: "top"}))
	if !resp.Success {
		t.Fatalf("tap failed: %+v", resp.Error)
	}
	data := resp.Data.(core.ClockResponse)
	if data.ClockID != id || data.ActiveSide != clock.SideB || data.State != clock.StateRunning {
		t.Errorf("unexpected tap response %+v", data)
	}

	resp = p.Execute(NewTapCommand(id, core.TapRequest{Side: "a"}))
	if resp.Success || resp.Error.Code != core.ErrInvalidTransition {
		t.Errorf("expected INVALID_TRANSITION, got %+v", resp)
	}

	resp = p.Execute(NewResetCommand(id))
	if !resp.Success || resp.Data.(core.ClockResponse).State != clock.StateIdle {
		t.Errorf("reset failed: %+v", resp)
	}

	resp = p.Execute(NewSelectTimeControlCommand(id, core.SelectTimeControlRequest{TimeControl: "30+20"}))
	if !resp.Success || resp.Data.(core.ClockResponse).SideA.SecondsRemaining != 1800 {
		t.Errorf("select failed: %+v", resp)
	}

	resp = p.Execute(NewDeleteClockCommand(id))
	if !resp.Success {
		t.Errorf("delete failed: %+v", resp.Error)
	}
}

func TestExecute_ResourceLimit(t *testing.T) {
	p := newTestProcessor(t, 1)
	createClock(t, p, "1+0")

	resp := p.Execute(NewCreateClockCommand(core.CreateClockRequest{}))
	if resp.Success || resp.Error.Code != core.ErrResourceLimit {
		t.Errorf("expected RESOURCE_LIMIT, got %+v", resp)
	}
}

func TestExecute_ListTimeControls(t *testing.T) {
	p := newTestProcessor(t, 0)

	resp := p.Execute(NewListTimeControlsCommand())
	if !resp.Success {
		t.Fatal("list failed")
	}
	data := resp.Data.(core.TimeControlsResponse)
	if data.Default != timecontrol.DefaultID || len(data.TimeControls) != 11 {
		t.Errorf("unexpected listing %+v", data)
	}
}
