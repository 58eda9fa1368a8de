package secrets

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName rejects a secret name before any remote call is made.
var ErrInvalidName = errors.New("invalid secret name")

const maxNameLen = 253

// Podman reuses these characters as delimiters in its own formats;
// letting them through produces ambiguous remote behavior instead of a
// clear error here.
const forbiddenNameChars = "=/,\x00"

// ValidateName trims surrounding whitespace and checks the name against
// the local naming rule. It returns the cleaned name.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("%w: name must be between 1 and %d characters", ErrInvalidName, maxNameLen)
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return "", fmt.Errorf("%w: name must not contain '=', '/', ',' or NUL", ErrInvalidName)
	}
	return name, nil
}
