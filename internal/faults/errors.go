package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFormat        = errors.New("format error")
	ErrDimension     = errors.New("dimension error")
	ErrIndex         = errors.New("index error")
	ErrUsage         = errors.New("usage error")
	ErrType          = errors.New("type error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUsage
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Wrapf is Wrap with a formatted message and no cause.
func Wrapf(marker error, component, operation, format string, args ...any) error {
	return Wrap(marker, component, operation, fmt.Sprintf(format, args...), nil)
}

var kinds = []struct {
	marker error
	label  string
	code   int
}{
	{ErrFormat, "format", 3},
	{ErrDimension, "dimension", 3},
	{ErrIndex, "index", 3},
	{ErrUsage, "usage", 4},
	{ErrType, "type", 4},
	{ErrConfiguration, "configuration", 5},
	{ErrNotFound, "not_found", 6},
}

// Kind returns a short label for the first marker found in err, or
// "internal" when none match.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.label
		}
	}
	return "internal"
}

// ExitCode maps err onto the process exit status used by the CLI.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.code
		}
	}
	return 1
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "protocol failure"
	}
	return strings.Join(parts, ": ")
}
