package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"platewright/internal/faults"
	"platewright/internal/labware"
	"platewright/internal/logging"
	"platewright/internal/protocol"
	"platewright/internal/quantity"
)

func newSession(t *testing.T, opts ...protocol.Option) *protocol.Protocol {
	t.Helper()
	opts = append([]protocol.Option{protocol.WithLogger(logging.NewNop())}, opts...)
	return protocol.New(nil, opts...)
}

func mustRef(t *testing.T, p *protocol.Protocol, name, ctype string) *labware.Container {
	t.Helper()
	c, err := p.Ref(name, protocol.RefOptions{Type: ctype, Storage: "cold_4"})
	if err != nil {
		t.Fatalf("Ref(%s): %v", name, err)
	}
	return c
}

func mustWell(t *testing.T, p *protocol.Protocol, ref string) labware.Well {
	t.Helper()
	w, err := p.Well(ref)
	if err != nil {
		t.Fatalf("Well(%s): %v", ref, err)
	}
	return w
}

func ops(p *protocol.Protocol) []string {
	var out []string
	for _, inst := range p.Instructions() {
		out = append(out, inst.Op)
	}
	return out
}

func equalOps(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

var (
	spinG    = quantity.Must("1000:g")
	oneMin   = quantity.Must("1:minute")
	tenUL    = quantity.Must("10:microliter")
	pcrSteps = []protocol.ThermocycleGroup{{
		Cycles: 30,
		Steps: []protocol.ThermocycleStep{
			{Duration: quantity.Must("30:second"), Temperature: quantity.Must("95:celsius")},
			{Duration: quantity.Must("30:second"), Temperature: quantity.Must("60:celsius")},
		},
	}}
)

func TestEndToEndClosureFlow(t *testing.T) {
	p := newSession(t)
	c1 := mustRef(t, p, "c1", "384-pcr")
	c2 := mustRef(t, p, "c2", "384-pcr")

	if !c1.Closure().IsOpen() {
		t.Fatalf("fresh container is %s", c1.Closure())
	}
	if err := p.Incubate(c1, "warm_37", oneMin, protocol.IncubateOptions{}); err != nil {
		t.Fatalf("Incubate: %v", err)
	}
	if err := p.Spin(c1, spinG, oneMin, protocol.SpinOptions{}); err != nil {
		t.Fatalf("Spin: %v", err)
	}
	if got := c1.Closure().String(); got != "cover:universal" {
		t.Fatalf("c1 after spin = %s", got)
	}

	if err := p.Thermocycle(c2, pcrSteps, protocol.ThermocycleOptions{}); err != nil {
		t.Fatalf("Thermocycle: %v", err)
	}
	if got := c2.Closure().String(); got != "seal:ultra-clear" {
		t.Fatalf("c2 after thermocycle = %s", got)
	}

	src := mustWell(t, p, "c2/0")
	dst := mustWell(t, p, "c1/1")
	if err := p.Transfer(labware.WellGroup{src}, labware.WellGroup{dst}, tenUL); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := c1.Closure().String(); got != "cover:universal" {
		t.Fatalf("c1 after transfer = %s", got)
	}
	if !c2.Closure().IsOpen() {
		t.Fatalf("c2 after transfer = %s", c2.Closure())
	}
	want := []string{"cover", "incubate", "spin", "seal", "thermocycle", "unseal", "pipette"}
	if got := ops(p); !equalOps(got, want...) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
}

func TestThermocycleRejectsUniversalCover(t *testing.T) {
	p := newSession(t)
	auto := mustRef(t, p, "auto", "384-pcr")
	if err := p.Spin(auto, spinG, oneMin, protocol.SpinOptions{}); err != nil {
		t.Fatalf("Spin: %v", err)
	}
	before := len(p.Instructions())
	if err := p.Thermocycle(auto, pcrSteps, protocol.ThermocycleOptions{}); !errors.Is(err, faults.ErrType) {
		t.Fatalf("expected type error for auto lid, got %v", err)
	}
	if len(p.Instructions()) != before {
		t.Fatal("failed thermocycle appended instructions")
	}

	explicit := mustRef(t, p, "explicit", "384-pcr")
	if err := p.Cover(explicit, "universal"); err != nil {
		t.Fatalf("Cover: %v", err)
	}
	if err := p.Thermocycle(explicit, pcrSteps, protocol.ThermocycleOptions{}); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error for requested lid, got %v", err)
	}
	ramp := quantity.Must("4:celsius")
	if err := p.ThermocycleRamp(explicit, ramp, quantity.Must("25:celsius"), oneMin, quantity.Quantity{}); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error for ramp, got %v", err)
	}
}

func TestThermocycleNeedsUltraClearClosure(t *testing.T) {
	p := newSession(t)
	c := mustRef(t, p, "flat", "96-flat")
	if err := p.Thermocycle(c, pcrSteps, protocol.ThermocycleOptions{}); !errors.Is(err, faults.ErrType) {
		t.Fatalf("expected type error without ultra-clear closures, got %v", err)
	}
	if len(p.Instructions()) != 0 {
		t.Fatalf("unexpected instructions %v", ops(p))
	}
}

func TestSpinOnRequestedUltraClearSealIsAccepted(t *testing.T) {
	p := newSession(t)
	c := mustRef(t, p, "plate", "384-pcr")
	if err := p.Seal(c, "ultra-clear"); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := p.Spin(c, spinG, oneMin, protocol.SpinOptions{}); err != nil {
		t.Fatalf("Spin on requested seal: %v", err)
	}
	closure := c.Closure()
	if closure.String() != "seal:ultra-clear" || closure.Origin != labware.OriginExplicit {
		t.Fatalf("closure = %s origin %v", closure, closure.Origin)
	}
	if got := ops(p); !equalOps(got, "seal", "spin") {
		t.Fatalf("ops = %v", got)
	}
}

func TestRequestedSealBlocksLiquidHandling(t *testing.T) {
	p := newSession(t)
	src := mustRef(t, p, "src", "96-pcr")
	dst := mustRef(t, p, "dst", "96-pcr")
	if err := p.Seal(dst, "foil"); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	from := mustWell(t, p, "src/A1")
	to := mustWell(t, p, "dst/A1")
	err := p.Transfer(labware.WellGroup{from}, labware.WellGroup{to}, tenUL)
	if !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !from.Volume().IsZero() || !to.Volume().IsZero() {
		t.Fatalf("volumes changed: %s %s", from.Volume(), to.Volume())
	}
	if !src.Closure().IsOpen() || dst.Closure().String() != "seal:foil" {
		t.Fatalf("closures changed: %s %s", src.Closure(), dst.Closure())
	}

	if err := p.Unseal(dst); err != nil {
		t.Fatalf("Unseal: %v", err)
	}
	if err := p.Transfer(labware.WellGroup{from}, labware.WellGroup{to}, tenUL); err != nil {
		t.Fatalf("Transfer after unseal: %v", err)
	}
}

func TestRequestedLidStaysOnDuringLiquidHandling(t *testing.T) {
	p := newSession(t)
	mustRef(t, p, "src", "96-flat")
	dst := mustRef(t, p, "dst", "96-flat")
	if err := p.Cover(dst, "standard"); err != nil {
		t.Fatalf("Cover: %v", err)
	}
	from := mustWell(t, p, "src/A1")
	to := mustWell(t, p, "dst/A1")
	if err := p.Transfer(labware.WellGroup{from}, labware.WellGroup{to}, tenUL); err != nil {
		t.Fatalf("Transfer under requested lid: %v", err)
	}
	closure := dst.Closure()
	if closure.String() != "cover:standard" || closure.Origin != labware.OriginExplicit {
		t.Fatalf("closure = %s origin %v", closure, closure.Origin)
	}
	if got := ops(p); !equalOps(got, "cover", "pipette") {
		t.Fatalf("ops = %v", got)
	}
}

func TestSpinLidSelection(t *testing.T) {
	p := newSession(t)
	flat := mustRef(t, p, "flat", "96-flat")
	if err := p.Spin(flat, spinG, oneMin, protocol.SpinOptions{}); err != nil {
		t.Fatalf("Spin: %v", err)
	}
	if got := flat.Closure().String(); got != "cover:universal" {
		t.Fatalf("closure = %s", got)
	}

	low := mustRef(t, p, "low", "96-flat")
	if err := p.Cover(low, "low_evaporation"); err != nil {
		t.Fatalf("Cover: %v", err)
	}
	if err := p.Spin(low, spinG, oneMin, protocol.SpinOptions{}); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error for low evaporation lid, got %v", err)
	}
}

func TestOutwardSpinRemovesAutoSeal(t *testing.T) {
	p := newSession(t)
	c := mustRef(t, p, "plate", "96-pcr")
	if err := p.Thermocycle(c, pcrSteps, protocol.ThermocycleOptions{LidTemperature: quantity.Must("105:celsius")}); err != nil {
		t.Fatalf("Thermocycle: %v", err)
	}
	if err := p.Spin(c, spinG, oneMin, protocol.SpinOptions{FlowDirection: "outward"}); err != nil {
		t.Fatalf("Spin: %v", err)
	}
	if got := ops(p); !equalOps(got, "seal", "thermocycle", "unseal", "spin") {
		t.Fatalf("ops = %v", got)
	}
	spin := p.Instructions()[3].Data.(protocol.SpinData)
	if len(spin.SpinDirection) != 2 {
		t.Fatalf("outward spin directions = %v", spin.SpinDirection)
	}
}

func TestSpinKeepsItsOwnDirections(t *testing.T) {
	p := newSession(t)
	c := mustRef(t, p, "plate", "96-flat")
	dirs := []string{"cw"}
	if err := p.Spin(c, spinG, oneMin, protocol.SpinOptions{SpinDirection: dirs}); err != nil {
		t.Fatalf("Spin: %v", err)
	}
	before, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	dirs[0] = "ccw"
	after, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("instruction changed after append:\n%s\n%s", before, after)
	}
	if !bytes.Contains(after, []byte(`"spin_direction":["cw"]`)) {
		t.Fatalf("document = %s", after)
	}
}

func TestExplicitClosureTransitions(t *testing.T) {
	p := newSession(t)
	c := mustRef(t, p, "plate", "96-pcr")

	if err := p.Uncover(c); err != nil {
		t.Fatalf("Uncover on open container: %v", err)
	}
	if err := p.Seal(c, "foil"); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := p.Seal(c, "foil"); err != nil {
		t.Fatalf("repeat Seal: %v", err)
	}
	if err := p.Seal(c, "ultra-clear"); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error resealing, got %v", err)
	}
	if err := p.Cover(c, "universal"); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error covering a seal, got %v", err)
	}
	if err := p.Uncover(c); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error uncovering a seal, got %v", err)
	}
	if err := p.Cover(c, "standard"); !errors.Is(err, faults.ErrType) {
		t.Fatalf("expected type error for unsupported lid, got %v", err)
	}
	if got := ops(p); !equalOps(got, "seal") {
		t.Fatalf("ops = %v", got)
	}
}

func TestAutoClosureAdoptedByRequest(t *testing.T) {
	p := newSession(t)
	c := mustRef(t, p, "plate", "96-pcr")
	if err := p.Thermocycle(c, pcrSteps, protocol.ThermocycleOptions{}); err != nil {
		t.Fatalf("Thermocycle: %v", err)
	}
	if err := p.Seal(c, "ultra-clear"); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if c.Closure().Origin != labware.OriginExplicit {
		t.Fatalf("origin = %v", c.Closure().Origin)
	}
	w := mustWell(t, p, "plate/A1")
	if err := p.Mix(labware.WellGroup{w}, tenUL, 3); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error mixing a requested seal, got %v", err)
	}
}

func TestTubesSkipClosureManagement(t *testing.T) {
	p := newSession(t)
	tube := mustRef(t, p, "tube", "micro-1.5")
	if err := p.Spin(tube, spinG, oneMin, protocol.SpinOptions{}); err != nil {
		t.Fatalf("Spin: %v", err)
	}
	if err := p.Incubate(tube, "warm_37", oneMin, protocol.IncubateOptions{}); err != nil {
		t.Fatalf("Incubate: %v", err)
	}
	if got := ops(p); !equalOps(got, "spin", "incubate") {
		t.Fatalf("ops = %v", got)
	}
	if err := p.Seal(tube, "ultra-clear"); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("expected usage error sealing a tube, got %v", err)
	}
}

func TestLidTemperatureRange(t *testing.T) {
	p := newSession(t)
	c := mustRef(t, p, "plate", "96-pcr")
	for _, lid := range []string{"20:celsius", "120:celsius"} {
		err := p.Thermocycle(c, pcrSteps, protocol.ThermocycleOptions{LidTemperature: quantity.Must(lid)})
		if !errors.Is(err, faults.ErrUsage) {
			t.Fatalf("lid %s: expected usage error, got %v", lid, err)
		}
	}
	err := p.Thermocycle(c, pcrSteps, protocol.ThermocycleOptions{LidTemperature: quantity.Must("5:minute")})
	if !errors.Is(err, faults.ErrDimension) {
		t.Fatalf("expected dimension error, got %v", err)
	}
	if len(p.Instructions()) != 0 {
		t.Fatalf("unexpected instructions %v", ops(p))
	}
}
