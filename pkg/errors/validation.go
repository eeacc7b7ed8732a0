package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// typeNameRegex matches entity type names as declared in schema documents.
var typeNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTypeName validates an entity type name.
// Type names double as XML attribute values and lowercased file name
// prefixes, so they are restricted to identifier characters.
func ValidateTypeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidType, "type name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidType, "type name too long (max 128 characters)")
	}
	if !typeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidType, "invalid type name: %q", name)
	}
	return nil
}

// ValidateEntityID validates a root entity identifier.
// It rejects identifiers that could be used for path traversal, since the
// identifier becomes part of the staged artifact name.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "entity id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidID, "entity id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "entity id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidID, "entity id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a staging or source directory path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURI validates a backend connection string for safety.
// It ensures the URI uses one of the given schemes.
func ValidateURI(rawURI string, schemes ...string) error {
	if rawURI == "" {
		return New(ErrCodeInvalidInput, "URI cannot be empty")
	}

	for _, s := range schemes {
		if strings.HasPrefix(rawURI, s+"://") {
			return nil
		}
	}

	return New(ErrCodeInvalidInput, "URI must use one of the schemes: %s", strings.Join(schemes, ", "))
}
