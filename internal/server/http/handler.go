package http

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"chessclock/internal/server/core"
	"chessclock/internal/server/processor"
	"chessclock/internal/server/service"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: service.WaitTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Get("/timecontrols", h.ListTimeControls)
	api.Post("/clocks", h.CreateClock)
	api.Get("/clocks/:clockId", h.GetClock)
	api.Delete("/clocks/:clockId", h.DeleteClock)
	api.Post("/clocks/:clockId/tap", h.Tap)
	api.Post("/clocks/:clockId/reset", h.Reset)
	api.Put("/clocks/:clockId/timecontrol", h.SelectTimeControl)

	return app
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if idx := strings.Index(contentType, ";"); idx != -1 {
			contentType = strings.TrimSpace(contentType[:idx])
		}
		if contentType != fiber.MIMEApplicationJSON && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrClockNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps a processor error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case core.ErrClockNotFound:
		return fiber.StatusNotFound
	case core.ErrInvalidTransition:
		return fiber.StatusConflict
	case core.ErrTimeControlNotFound, core.ErrInvalidRequest:
		return fiber.StatusBadRequest
	case core.ErrResourceLimit:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respond writes a processor response with the given success status
func respond(c *fiber.Ctx, resp processor.ProcessorResponse, okStatus int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(okStatus)
	}
	return c.Status(okStatus).JSON(resp.Data)
}

func invalidClockID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   "invalid clock ID format",
		Code:    core.ErrInvalidRequest,
		Details: "clock ID must be a valid UUID",
	})
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"clocks":  h.svc.ClockCount(),
		"storage": h.svc.GetStorageHealth(),
	})
}

// ListTimeControls returns the catalog in display order
func (h *HTTPHandler) ListTimeControls(c *fiber.Ctx) error {
	return respond(c, h.proc.Execute(processor.NewListTimeControlsCommand()), fiber.StatusOK)
}

// CreateClock creates an Idle clock with the requested or default time control
func (h *HTTPHandler) CreateClock(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateClockRequest](c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(processor.NewCreateClockCommand(req)), fiber.StatusCreated)
}

// GetClock returns the current snapshot. With wait=true the request blocks
// until the snapshot version differs from the version query parameter.
func (h *HTTPHandler) GetClock(c *fiber.Ctx) error {
	clockID := c.Params("clockId")
	if !isValidUUID(clockID) {
		return invalidClockID(c)
	}

	if c.Query("wait", "false") != "true" {
		return respond(c, h.proc.Execute(processor.NewGetClockCommand(clockID)), fiber.StatusOK)
	}

	snap, err := h.svc.GetClock(clockID)
	if err != nil {
		return respond(c, h.proc.Execute(processor.NewGetClockCommand(clockID)), fiber.StatusOK)
	}

	version, err := strconv.ParseUint(c.Query("version", ""), 10, 64)
	if err != nil || version != snap.Version {
		// Client is already behind, answer immediately
		return respond(c, h.proc.Execute(processor.NewGetClockCommand(clockID)), fiber.StatusOK)
	}

	// fasthttp request contexts only end on server shutdown, so bound the wait here
	ctx, cancel := context.WithTimeout(context.Background(), service.WaitTimeout)
	defer cancel()
	notify := h.svc.RegisterWait(ctx, clockID, version)

	// A transition between the first read and registration has no waiter to wake
	if snap, err := h.svc.GetClock(clockID); err == nil && snap.Version == version {
		select {
		case <-notify:
		case <-ctx.Done():
		}
	}

	// Clock might have been deleted while waiting
	return respond(c, h.proc.Execute(processor.NewGetClockCommand(clockID)), fiber.StatusOK)
}

// Tap records a completed move by the given side
func (h *HTTPHandler) Tap(c *fiber.Ctx) error {
	clockID := c.Params("clockId")
	if !isValidUUID(clockID) {
		return invalidClockID(c)
	}

	req, err := validatedBody[core.TapRequest](c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(processor.NewTapCommand(clockID, req)), fiber.StatusOK)
}

// Reset returns the clock to Idle with full time
func (h *HTTPHandler) Reset(c *fiber.Ctx) error {
	clockID := c.Params("clockId")
	if !isValidUUID(clockID) {
		return invalidClockID(c)
	}
	return respond(c, h.proc.Execute(processor.NewResetCommand(clockID)), fiber.StatusOK)
}

// SelectTimeControl switches the time control and resets the clock
func (h *HTTPHandler) SelectTimeControl(c *fiber.Ctx) error {
	clockID := c.Params("clockId")
	if !isValidUUID(clockID) {
		return invalidClockID(c)
	}

	req, err := validatedBody[core.SelectTimeControlRequest](c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(processor.NewSelectTimeControlCommand(clockID, req)), fiber.StatusOK)
}

// DeleteClock stops and removes a clock
func (h *HTTPHandler) DeleteClock(c *fiber.Ctx) error {
	clockID := c.Params("clockId")
	if !isValidUUID(clockID) {
		return invalidClockID(c)
	}
	return respond(c, h.proc.Execute(processor.NewDeleteClockCommand(clockID)), fiber.StatusNoContent)
}
