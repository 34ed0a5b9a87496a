package logging

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

type textValue string

func (v textValue) MarshalText() ([]byte, error) { return []byte(v), nil }

func TestFormatValue(t *testing.T) {
	cases := []struct {
		value slog.Value
		want  string
	}{
		{slog.StringValue("cold_4"), "cold_4"},
		{slog.StringValue("two words"), `"two words"`},
		{slog.StringValue(""), `""`},
		{slog.IntValue(96), "96"},
		{slog.BoolValue(true), "true"},
		{slog.DurationValue(1500 * time.Millisecond), "1.5s"},
		{slog.AnyValue(textValue("10:microliter")), "10:microliter"},
		{slog.AnyValue(errors.New("bad well")), `"bad well"`},
	}
	for _, tc := range cases {
		if got := formatValue(tc.value); got != tc.want {
			t.Fatalf("formatValue(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestAttrStringIsUnquoted(t *testing.T) {
	if got := attrString(slog.StringValue("pcr setup")); got != "pcr setup" {
		t.Fatalf("attrString = %q", got)
	}
	if got := attrString(slog.AnyValue(textValue("plate/0"))); got != "plate/0" {
		t.Fatalf("attrString = %q", got)
	}
}

func TestReplaceJSONAttr(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attr := replaceJSONAttr(nil, slog.Time(slog.TimeKey, ts))
	if attr.Key != "ts" || attr.Value.String() != "2026-03-01T12:00:00Z" {
		t.Fatalf("time attr = %v", attr)
	}
	level := replaceJSONAttr(nil, slog.Any(slog.LevelKey, slog.LevelWarn))
	if level.Value.String() != "warn" {
		t.Fatalf("level attr = %v", level)
	}
	nested := replaceJSONAttr([]string{"g"}, slog.String(slog.LevelKey, "KEEP"))
	if nested.Value.String() != "KEEP" {
		t.Fatalf("grouped attr should pass through, got %v", nested)
	}
}
