package api

// Wire types mirror the server JSON; the client does not import server packages.

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Clocks  int    `json:"clocks"`
	Storage string `json:"storage,omitempty"`
}

type TimeControl struct {
	ID               string `json:"id"`
	StartSeconds     int    `json:"startSeconds"`
	IncrementSeconds int    `json:"incrementSeconds"`
	Category         string `json:"category"`
}

type TimeControlsResponse struct {
	Default      string        `json:"default"`
	TimeControls []TimeControl `json:"timeControls"`
}

type PlayerTimer struct {
	MovesPlayed      int  `json:"movesPlayed"`
	SecondsRemaining int  `json:"secondsRemaining"`
	Paused           bool `json:"paused"`
	IncrementSeconds int  `json:"incrementSeconds"`
}

// Clock states as rendered by the server
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateGameOver = "game_over"
)

type ClockResponse struct {
	ClockID     string      `json:"clockId"`
	TimeControl TimeControl `json:"timeControl"`
	SideA       PlayerTimer `json:"sideA"`
	SideB       PlayerTimer `json:"sideB"`
	ActiveSide  string      `json:"activeSide"`
	State       string      `json:"state"`
	GameOver    bool        `json:"gameOver"`
	Version     uint64      `json:"version"`
}

type CreateClockRequest struct {
	TimeControl string `json:"timeControl,omitempty"`
}

type TapRequest struct {
	Side string `json:"side"`
}

type SelectTimeControlRequest struct {
	TimeControl string `json:"timeControl"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
