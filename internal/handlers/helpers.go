package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"spendsense/internal/analytics"
	apperrors "spendsense/internal/errors"
	"spendsense/internal/middleware"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", apperrors.ErrUnauthorized
	}
	return id, nil
}

// parseMonthYear reads the optional month and year query parameters. Zero
// means "not given"; the services then default to the current month.
func parseMonthYear(c *gin.Context) (year, month int, err error) {
	if raw := c.Query("month"); raw != "" {
		month, err = strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
		}
	}
	if raw := c.Query("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || year < 1970 || year > 9999 {
			return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a 4-digit year")
		}
	}
	return year, month, nil
}

// parseExpenseDate accepts YYYY-MM-DD (interpreted at noon in loc, so the
// calendar day survives conversion to UTC) or RFC3339.
func parseExpenseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if d, err := time.ParseInLocation(analytics.DateLayout, raw, loc); err == nil {
		return d.Add(12 * time.Hour), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD or RFC3339")
}

// respondWithError writes the JSON error envelope shared with
// middleware.ErrorHandler.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
