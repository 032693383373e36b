package services

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"malkhana-backend/internal/apperr"
)

// Column widths of the bounded VARCHAR columns in migrations/001_initial_schema.sql.
const (
	maxNameLength      = 100
	maxBadgeLength     = 50
	maxLocationLength  = 200
	maxReferenceLength = 100
	maxLabelLength     = 50
)

type fieldLimit struct {
	field string
	value string
	max   int
}

// withinLimits rejects the first value longer than its limit, counted in characters.
func withinLimits(limits ...fieldLimit) error {
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return apperr.BadRequest("%s cannot exceed %d characters", l.field, l.max)
		}
	}
	return nil
}

// parseID turns a client supplied id into a UUID or a BadRequest naming the field.
func parseID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, apperr.BadRequest("%s is required", field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.BadRequest("%s is not a valid id", field)
	}
	return id, nil
}

// ParseID is parseID for path parameters.
func ParseID(field, raw string) (uuid.UUID, error) {
	return parseID(field, raw)
}

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.BadRequest("%s is required", field)
	}
	return value, nil
}
