package config

import (
	"encoding"
	"fmt"
	"log/slog"
)

// Level is a logging level.
type Level int

const (
	_ Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelValueMap = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	v, ok := levelValueMap[l]
	if !ok {
		return fmt.Sprintf("invalid(%d)", l)
	}

	return v
}

// Slog returns the matching slog level.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var (
	_ encoding.TextMarshaler   = Level(0)
	_ encoding.TextUnmarshaler = (*Level)(nil)
)

func (l Level) MarshalText() ([]byte, error) {
	v, ok := levelValueMap[l]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid Level(%d)", l)
	}
	return []byte(v), nil
}

// UnmarshalText for setting values with configs, CLI, etc.
func (l *Level) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for k, v := range levelValueMap {
		if v == text {
			*l = k
			return nil
		}
	}

	return fmt.Errorf("unknown log level %q", text)
}

// Format is a log output format.
type Format int

const (
	_ Format = iota
	FormatText
	FormatJSON
)

var formatValueMap = map[Format]string{
	FormatText: "text",
	FormatJSON: "json",
}

func (f Format) String() string {
	v, ok := formatValueMap[f]
	if !ok {
		return fmt.Sprintf("invalid(%d)", f)
	}

	return v
}

var (
	_ encoding.TextMarshaler   = Format(0)
	_ encoding.TextUnmarshaler = (*Format)(nil)
)

func (f Format) MarshalText() ([]byte, error) {
	v, ok := formatValueMap[f]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid Format(%d)", f)
	}
	return []byte(v), nil
}

func (f *Format) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for k, v := range formatValueMap {
		if v == text {
			*f = k
			return nil
		}
	}

	return fmt.Errorf("unknown log format %q", text)
}
