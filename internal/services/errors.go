package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

var (
	errPercentageRange = response.NewValidation("Percentage must be between 0 and 100")
	errMonthRange      = response.NewValidation("Month must be between 1 and 12")
	errYearInvalid     = response.NewValidation("Year must be a valid calendar year")
	errPlannedInPast   = response.NewValidation("Planned projects cannot have a start date in the past")
)

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound AppError and wraps anything else as an
// infrastructure failure.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound(what + " not found")
	}
	return fmt.Errorf("load %s: %w", strings.ToLower(what), err)
}

// isUniqueViolation recognises unique-constraint failures across sqlite, mysql and postgres.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
