// Package http exposes the stylist use cases over fiber.
package http

import (
	"time"

	"stylist_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// GetUserID returns the authenticated user id, or an Unauthorized error.
func GetUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "", apperr.Unauthorized("")
	}
	return userID, nil
}

// OptionalUserID returns the user id when the caller is authenticated, else "".
func OptionalUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// =============================================================================
// Standardized Error Response Helpers
// =============================================================================

type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AppErrorResponse writes err using its AppError code and status. Errors of
// any other type become a 500.
func AppErrorResponse(c *fiber.Ctx, err error) error {
	appErr := apperr.AsAppError(err)
	requestID, _ := c.Locals("request_id").(string)
	return c.Status(appErr.Status).JSON(APIResponse{
		Success:   false,
		Error:     &APIError{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details},
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponse writes a bad-request style error with a plain message.
func ErrorResponse(c *fiber.Ctx, status int, code, message string) error {
	return AppErrorResponse(c, apperr.New(code, message, status))
}
