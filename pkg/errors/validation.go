package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nodeKeyRegex matches topology node keys: lowercase identifiers with underscores.
var nodeKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateNodeKey validates a topology node key.
// Keys are referenced from parent links, propagation rules and layout hints,
// so they are restricted to a conservative identifier alphabet.
func ValidateNodeKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "node key cannot be empty")
	}
	if len(key) > 64 {
		return New(ErrCodeInvalidInput, "node key too long (max 64 characters)")
	}
	if !nodeKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidInput, "invalid node key: %q", key)
	}
	return nil
}

// ValidateDimensions validates a container size supplied by a host.
// Zero is accepted (it is clamped later); negative and absurd sizes are not.
func ValidateDimensions(width, height float64) error {
	const maxDimension = 100000
	if width < 0 || height < 0 {
		return New(ErrCodeInvalidInput, "container size must not be negative (got %gx%g)", width, height)
	}
	if width > maxDimension || height > maxDimension {
		return New(ErrCodeInvalidInput, "container size too large (max %d)", maxDimension)
	}
	return nil
}

// ValidateFormat checks that format is one of the allowed output formats.
func ValidateFormat(format string, allowed map[string]bool) error {
	if !allowed[format] {
		return New(ErrCodeInvalidFormat, "invalid format: %s", format)
	}
	return nil
}

// ValidatePath validates a user supplied file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
