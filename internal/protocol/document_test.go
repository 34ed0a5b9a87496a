package protocol_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"platewright/internal/labware"
	"platewright/internal/protocol"
	"platewright/internal/quantity"
)

func TestCloseAppendsOnePerOpenStoredContainer(t *testing.T) {
	obs := newCountingObserver()
	p := newSession(t, protocol.WithObserver(obs))
	open := mustRef(t, p, "open", "384-pcr")
	lidFirst := mustRef(t, p, "lid", "96-deep")
	closed := mustRef(t, p, "closed", "96-pcr")
	if _, err := p.Ref("waste", protocol.RefOptions{Type: "96-flat", Discard: true}); err != nil {
		t.Fatalf("Ref: %v", err)
	}
	mustRef(t, p, "tube", "micro-2.0")
	if err := p.Cover(closed, "universal"); err != nil {
		t.Fatalf("Cover: %v", err)
	}

	if n := p.Close(); n != 2 {
		t.Fatalf("Close appended %d, want 2", n)
	}
	if got := open.Closure(); got.String() != "seal:ultra-clear" || got.Origin != labware.OriginAuto {
		t.Fatalf("open container = %s", got)
	}
	if got := lidFirst.Closure().String(); got != "cover:standard" {
		t.Fatalf("cover-first container = %s", got)
	}
	if got := closed.Closure().String(); got != "cover:universal" {
		t.Fatalf("closed container = %s", got)
	}
	if n := p.Close(); n != 0 {
		t.Fatalf("second Close appended %d", n)
	}
	if got := ops(p); !equalOps(got, "cover", "seal", "cover") {
		t.Fatalf("ops = %v", got)
	}
	if obs.closures[protocol.OpSeal] != 1 || obs.closures[protocol.OpCover] != 1 {
		t.Fatalf("closure counts = %v", obs.closures)
	}
}

func TestDocumentJSON(t *testing.T) {
	p := newSession(t)
	if _, err := p.Ref("sample", protocol.RefOptions{ID: "ct1abc", Type: "96-pcr", Storage: "cold_20", Cover: "foil"}); err != nil {
		t.Fatalf("Ref: %v", err)
	}
	if _, err := p.Ref("scratch", protocol.RefOptions{Type: "96-flat", Discard: true}); err != nil {
		t.Fatalf("Ref: %v", err)
	}
	scratch, _ := p.Container("scratch")
	if err := p.Incubate(scratch, "warm_37", quantity.Must("2:hour"), protocol.IncubateOptions{Shaking: true}); err != nil {
		t.Fatalf("Incubate: %v", err)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc struct {
		Refs         map[string]map[string]any `json:"refs"`
		Instructions []map[string]any          `json:"instructions"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	sample := doc.Refs["sample"]
	if sample["id"] != "ct1abc" || sample["cover"] != "foil" || sample["new"] != nil {
		t.Fatalf("sample ref = %v", sample)
	}
	if store, _ := sample["store"].(map[string]any); store["where"] != "cold_20" {
		t.Fatalf("sample store = %v", sample["store"])
	}
	scratchRef := doc.Refs["scratch"]
	if scratchRef["new"] != "96-flat" || scratchRef["discard"] != true || scratchRef["store"] != nil {
		t.Fatalf("scratch ref = %v", scratchRef)
	}

	if len(doc.Instructions) != 2 {
		t.Fatalf("instructions = %v", doc.Instructions)
	}
	cover := doc.Instructions[0]
	if cover["op"] != "cover" || cover["object"] != "scratch" || cover["lid"] != "universal" {
		t.Fatalf("cover = %v", cover)
	}
	incubate := doc.Instructions[1]
	if incubate["op"] != "incubate" || incubate["duration"] != "2:hour" || incubate["shaking"] != true {
		t.Fatalf("incubate = %v", incubate)
	}
	if _, ok := incubate["target_temperature"]; ok {
		t.Fatalf("unset target temperature serialized: %v", incubate)
	}
	if !strings.HasPrefix(string(raw), `{"refs":`) {
		t.Fatalf("document starts with %.20s", raw)
	}
}

func TestInstructionJSONLeadsWithOp(t *testing.T) {
	inst := protocol.Instruction{Op: protocol.OpUncover, Data: protocol.UncoverData{}}
	raw, err := json.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(raw) != `{"op":"uncover","object":""}` {
		t.Fatalf("json = %s", raw)
	}
	if _, err := json.Marshal(protocol.Instruction{Op: "bad", Data: []int{1}}); err == nil {
		t.Fatal("expected error for non-object data")
	}
}

func TestWriteJSONIndent(t *testing.T) {
	p := newSession(t)
	mustRef(t, p, "plate", "96-flat")
	var buf bytes.Buffer
	if err := p.WriteJSON(&buf, true); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"instructions\": []") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}
