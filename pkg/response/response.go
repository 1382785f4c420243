// Package response defines the JSON envelope the local gateway answers with.
package response

import "github.com/gofiber/fiber/v2"

// Error codes
const CodeNotFound = "NOT_FOUND"

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, message)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}
