package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Catalog", statusError, "unreadable", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Catalog:", "[ERROR] unreadable")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := renderStatusLine("Catalog", statusOK, "", false); !strings.HasSuffix(got, "[OK]") {
		t.Fatalf("empty message = %q", got)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Dispense", statusWarn, "defaults", true)
	if !strings.HasPrefix(got, ansiYellow) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected yellow line, got %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Op", "Count"}, [][]string{{"Seal"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "Seal") || !strings.Contains(out, "Count") {
		t.Fatalf("table = %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty table without headers")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
