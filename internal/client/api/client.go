package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"chessclock/internal/client/display"
)

// pollTimeout exceeds the server's long-poll window
const pollTimeout = 40 * time.Second

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	PollClient *http.Client
	Verbose    bool
	Out        io.Writer
}

// APIError is returned for responses with status >= 400
type APIError struct {
	Status   int
	Response ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Code != "" {
		return fmt.Sprintf("request failed with status %d (%s)", e.Status, e.Response.Code)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		PollClient: &http.Client{
			Timeout: pollTimeout,
		},
		Out: os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) doRequest(method, path string, body interface{}, result interface{}) error {
	return c.do(c.HTTPClient, method, path, body, result)
}

func (c *Client) do(hc *http.Client, method, path string, body interface{}, result interface{}) error {
	url := c.BaseURL + path

	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonData)
		bodyStr = string(jsonData)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.Verbose {
		fmt.Fprintf(c.Out, "\n%s[API] %s %s%s\n", display.Blue, method, path, display.Reset)
		if bodyStr != "" {
			fmt.Fprintf(c.Out, "%sRequest Body:%s\n%s\n", display.Cyan, display.Reset, indent([]byte(bodyStr)))
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if c.Verbose {
		statusColor := display.Green
		if resp.StatusCode >= 400 {
			statusColor = display.Red
		}
		fmt.Fprintf(c.Out, "%s[%d %s]%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), display.Reset)
		if len(respBody) > 0 {
			fmt.Fprintf(c.Out, "%sResponse Body:%s\n%s\n", display.Cyan, display.Reset, indent(respBody))
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &apiErr.Response); err != nil {
			apiErr.Response.Error = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// indent pretty-prints JSON, falling back to the raw text
func indent(data []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return string(data)
	}
	return out.String()
}

// API Methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest(http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) ListTimeControls() (*TimeControlsResponse, error) {
	var resp TimeControlsResponse
	err := c.doRequest(http.MethodGet, "/api/v1/timecontrols", nil, &resp)
	return &resp, err
}

func (c *Client) CreateClock(timeControl string) (*ClockResponse, error) {
	var resp ClockResponse
	err := c.doRequest(http.MethodPost, "/api/v1/clocks", &CreateClockRequest{TimeControl: timeControl}, &resp)
	return &resp, err
}

func (c *Client) GetClock(clockID string) (*ClockResponse, error) {
	var resp ClockResponse
	err := c.doRequest(http.MethodGet, "/api/v1/clocks/"+clockID, nil, &resp)
	return &resp, err
}

// GetClockWithPoll blocks server-side until the clock moves past version
func (c *Client) GetClockWithPoll(clockID string, version uint64) (*ClockResponse, error) {
	var resp ClockResponse
	path := fmt.Sprintf("/api/v1/clocks/%s?wait=true&version=%d", clockID, version)
	err := c.do(c.PollClient, http.MethodGet, path, nil, &resp)
	return &resp, err
}

func (c *Client) DeleteClock(clockID string) error {
	return c.doRequest(http.MethodDelete, "/api/v1/clocks/"+clockID, nil, nil)
}

func (c *Client) Tap(clockID, side string) (*ClockResponse, error) {
	var resp ClockResponse
	err := c.doRequest(http.MethodPost, "/api/v1/clocks/"+clockID+"/tap", &TapRequest{Side: side}, &resp)
	return &resp, err
}

func (c *Client) Reset(clockID string) (*ClockResponse, error) {
	var resp ClockResponse
	err := c.doRequest(http.MethodPost, "/api/v1/clocks/"+clockID+"/reset", nil, &resp)
	return &resp, err
}

func (c *Client) SelectTimeControl(clockID, timeControl string) (*ClockResponse, error) {
	var resp ClockResponse
	err := c.doRequest(http.MethodPut, "/api/v1/clocks/"+clockID+"/timecontrol", &SelectTimeControlRequest{TimeControl: timeControl}, &resp)
	return &resp, err
}

// RawRequest performs a raw HTTP request and prints the response
func (c *Client) RawRequest(method, path string, body string) error {
	var bodyData interface{}
	if body != "" {
		if err := json.Unmarshal([]byte(body), &bodyData); err != nil {
			bodyData = body
		}
	}

	var result json.RawMessage
	if err := c.doRequest(method, path, bodyData, &result); err != nil {
		return err
	}
	if !c.Verbose && len(result) > 0 {
		fmt.Fprintln(c.Out, indent(result))
	}
	return nil
}
