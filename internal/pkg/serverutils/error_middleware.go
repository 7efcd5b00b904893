package serverutils

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/ratelimit"
)

// ErrorHandlerMiddleware converts errors escaping the handlers into JSON
// envelopes. Rate-limit refusals become a 429 with a Retry-After header so
// well-behaved clients can back off instead of retrying immediately.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if errors.Is(err, ratelimit.ErrRateLimited) {
			ctx.Set("Retry-After", strconv.Itoa(60))
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(ErrorResponse(fiber.StatusTooManyRequests, "Too many requests, please retry shortly"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
