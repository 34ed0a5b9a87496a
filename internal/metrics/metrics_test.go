package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.InstructionEmitted("seal")
	r.InstructionEmitted("seal")
	r.InstructionEmitted("spin")
	r.ClosureInserted("seal")
	r.DispenseCompiled(7)
	r.DispenseCompiled(0)
	r.CompileFinished("pcr_setup", nil)
	r.CompileFinished("pcr_setup", errors.New("boom"))

	if got := testutil.ToFloat64(r.instructions.WithLabelValues("seal")); got != 2 {
		t.Fatalf("seal instructions = %v", got)
	}
	if got := testutil.ToFloat64(r.closures.WithLabelValues("seal")); got != 1 {
		t.Fatalf("auto seals = %v", got)
	}
	if got := testutil.ToFloat64(r.dispensed); got != 7 {
		t.Fatalf("dispense locations = %v", got)
	}
	if got := testutil.ToFloat64(r.compiles.WithLabelValues("pcr_setup", "error")); got != 1 {
		t.Fatalf("failed compiles = %v", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.InstructionEmitted("spin")
	r.ClosureInserted("cover")
	r.DispenseCompiled(3)
	r.CompileFinished("x", nil)
	if err := r.WriteTextfile("ignored.prom"); err != nil {
		t.Fatalf("WriteTextfile on nil recorder: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.InstructionEmitted("pipette")
	path := filepath.Join(t.TempDir(), "textfile", "platewright.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(content), `platewright_instructions_total{op="pipette"} 1`) {
		t.Fatalf("unexpected textfile %q", content)
	}
}
