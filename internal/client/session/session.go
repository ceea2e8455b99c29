// Package session holds the interactive client's mutable state between commands.
package session

import (
	"io"
	"os"

	"chessclock/internal/client/api"
)

type Session struct {
	APIBaseURL   string
	Client       *api.Client
	CurrentClock string
	ClockState   *api.ClockResponse
	Verbose      bool
	Out          io.Writer
}

func New(baseURL string) *Session {
	return &Session{
		APIBaseURL: baseURL,
		Client:     api.New(baseURL),
		Out:        os.Stdout,
	}
}

func (s *Session) GetAPIBaseURL() string {
	return s.APIBaseURL
}

func (s *Session) SetAPIBaseURL(url string) {
	s.APIBaseURL = url
	s.Client.SetBaseURL(url)
}

func (s *Session) GetCurrentClock() string {
	return s.CurrentClock
}

// SetCurrentClock switches clocks and forgets the cached state
func (s *Session) SetCurrentClock(id string) {
	if id != s.CurrentClock {
		s.ClockState = nil
	}
	s.CurrentClock = id
}

func (s *Session) GetClockState() *api.ClockResponse {
	return s.ClockState
}

// SetClockState caches the latest snapshot and makes its clock current
func (s *Session) SetClockState(c *api.ClockResponse) {
	if c == nil {
		s.ClockState = nil
		return
	}
	s.CurrentClock = c.ClockID
	s.ClockState = c
}

func (s *Session) GetClient() *api.Client {
	return s.Client
}

func (s *Session) IsVerbose() bool {
	return s.Verbose
}

func (s *Session) Output() io.Writer {
	return s.Out
}
