package rest

import (
	stderrors "errors"
	"runtime/debug"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/gemstone-system/gemauth"
)

// NewErrorHandler builds the fiber error handler rendering every failure
// as the JSON envelope {"status": "error", "message": ...}. Development
// responses additionally carry validation details, the operational flag,
// and a stack for unexpected errors, production responses stay terse.
func NewErrorHandler(logger gemauth.Logger, production bool) fiber.ErrorHandler {
	if logger == nil {
		logger = NopLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"
		operational := false

		var fields validation.Errors
		var richErr *errors.Error
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &richErr):
			if richErr.Code > 0 {
				status = richErr.Code
			}
			message = richErr.Message
			operational = richErr.Category != errors.CategoryInternal

			logger.Debug(
				"request failed: %s category=%s text_code=%s metadata=%s",
				richErr.Message,
				richErr.Category,
				richErr.TextCode,
				print.MaybePrettyJSON(richErr.Metadata),
			)

		case stderrors.As(err, &fields):
			status = fiber.StatusBadRequest
			message = "Validation failed"
			operational = true

		case stderrors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
			operational = true

		default:
			logger.Error("unhandled error: %v", err)
		}

		body := fiber.Map{
			"status":  "error",
			"message": message,
		}

		if len(fields) > 0 {
			body["errors"] = fields
		}

		if !production {
			body["isOperational"] = operational
			if !operational {
				body["stack"] = string(debug.Stack())
			}
		}

		return c.Status(status).JSON(body)
	}
}

// NopLogger discards everything. Used when no logger is wired.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
