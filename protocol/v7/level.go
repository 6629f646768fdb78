package v7

import (
	"fmt"
	"strings"
)

// Level is the severity of an event or breadcrumb.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// ParseLevel parses a level name. "log" is read as info and "warn" as
// warning.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "log":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "fatal", "critical":
		return LevelFatal, nil
	}
	return "", fmt.Errorf("invalid level %q", s)
}

func (l Level) String() string {
	return string(l)
}

// IsDebug returns true for the debug level.
func (l Level) IsDebug() bool { return l == LevelDebug }

// IsInfo returns true for the info level.
func (l Level) IsInfo() bool { return l == LevelInfo }

// IsWarning returns true for the warning level.
func (l Level) IsWarning() bool { return l == LevelWarning }

// IsError returns true for the error level.
func (l Level) IsError() bool { return l == LevelError }

// IsFatal returns true for the fatal level.
func (l Level) IsFatal() bool { return l == LevelFatal }

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
