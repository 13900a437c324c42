package handlers

import (
	"errors"
	"strings"

	"bookmood/internal/apperr"
	applog "bookmood/internal/log"
	"bookmood/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

const genericMessage = "Something went wrong. Please try again."

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// ErrorHandler turns returned errors into a JSON body for /api routes and the
// error page elsewhere. Causes are logged, never shown.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := genericMessage
	var details map[string]string

	var fe *fiber.Error
	if ae, ok := apperr.As(err); ok {
		status = ae.Status()
		msg = ae.Message
		details = ae.Details
		metrics.AppErrorsTotal.WithLabelValues(string(ae.Kind), ae.Code).Inc()
	} else if errors.As(err, &fe) {
		status = fe.Code
		if status < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	}
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}

	if isAPI(c) {
		body := fiber.Map{"error": msg, "success": false}
		if len(details) > 0 {
			body["details"] = details
		}
		return c.Status(status).JSON(body)
	}
	if rerr := render(c.Status(status), "notfound", fiber.Map{"Title": "Error", "Message": msg}); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}
