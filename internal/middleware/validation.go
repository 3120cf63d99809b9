package middleware

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Field length limits matching database schema constraints.
const (
	MaxStationIDLen   = 64 // stations.id VARCHAR(64)
	MaxUserIDLen      = 64 // actors.id VARCHAR(64)
	MaxDisplayNameLen = 80
)

// idRe matches collaborator-issued identifiers: alphanumeric plus a few
// separators, no whitespace.
var idRe = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateStationID checks that a station ID is well-formed and within DB limits.
func ValidateStationID(id string) (string, string) {
	return validateID("stationId", id, MaxStationIDLen)
}

// ValidateUserID checks that a user ID is well-formed and within DB limits.
func ValidateUserID(id string) (string, string) {
	return validateID("userId", id, MaxUserIDLen)
}

// ValidateReportID checks that a report ID is a UUID.
func ValidateReportID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "reportId is required"
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", "reportId must be a UUID"
	}
	return parsed.String(), ""
}

func validateID(field, id string, maxLen int) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", field + " is required"
	}
	if len(id) > maxLen {
		return "", field + " is too long"
	}
	if !idRe.MatchString(id) {
		return "", field + " contains invalid characters"
	}
	return id, ""
}

// ValidateDisplayName trims a display name, drops invalid UTF-8 and cuts it
// to at most MaxDisplayNameLen bytes on a rune boundary.
func ValidateDisplayName(name string) string {
	name = strings.TrimSpace(strings.ToValidUTF8(name, ""))
	if len(name) <= MaxDisplayNameLen {
		return name
	}
	cut := MaxDisplayNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return strings.TrimSpace(name[:cut])
}
