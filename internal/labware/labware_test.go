package labware

import (
	"errors"
	"testing"

	"platewright/internal/faults"
	"platewright/internal/quantity"
)

func plate96() ContainerType {
	return ContainerType{
		Name:         "96-well flat-bottom plate",
		Shortname:    "96-flat",
		WellCount:    96,
		ColCount:     12,
		WellVolume:   quantity.Must("340:microliter"),
		CoverTypes:   []string{"low_evaporation", "standard", "universal"},
		Capabilities: []string{CapCover, CapSpin, CapIncubate},
	}
}

func plate384() ContainerType {
	return ContainerType{
		Name:         "384-well PCR plate",
		Shortname:    "384-pcr",
		WellCount:    384,
		ColCount:     24,
		WellVolume:   quantity.Must("40:microliter"),
		CoverTypes:   []string{"universal"},
		SealTypes:    []string{"ultra-clear", "foil"},
		Capabilities: []string{CapCover, CapSeal, CapThermocycle},
	}
}

func mustContainer(t *testing.T, name string, ct ContainerType) *Container {
	t.Helper()
	c, err := NewContainer(name, "", ct)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	return c
}

func TestRobotizeAndHumanize(t *testing.T) {
	ct := plate384()
	cases := map[string]int{
		"0":   0,
		"A1":  0,
		"a2":  1,
		"B1":  24,
		"P24": 383,
		"383": 383,
	}
	for ref, want := range cases {
		got, err := ct.Robotize(ref)
		if err != nil {
			t.Fatalf("Robotize(%q): %v", ref, err)
		}
		if got != want {
			t.Fatalf("Robotize(%q) = %d, want %d", ref, got, want)
		}
	}

	label, err := ct.Humanize(383)
	if err != nil || label != "P24" {
		t.Fatalf("Humanize(383) = %q, %v", label, err)
	}

	tall := ContainerType{Shortname: "tall", WellCount: 30 * 2, ColCount: 2}
	idx, err := tall.Robotize("AB2")
	if err != nil {
		t.Fatalf("Robotize(AB2): %v", err)
	}
	if idx != 27*2+1 {
		t.Fatalf("Robotize(AB2) = %d", idx)
	}
	if label, _ := tall.Humanize(idx); label != "AB2" {
		t.Fatalf("Humanize(%d) = %q", idx, label)
	}
}

func TestRobotizeErrors(t *testing.T) {
	ct := plate96()
	for _, ref := range []string{"96", "-1", "I1", "A13", "A0"} {
		if _, err := ct.Robotize(ref); !errors.Is(err, faults.ErrIndex) {
			t.Fatalf("Robotize(%q) = %v, want index error", ref, err)
		}
	}
	for _, ref := range []string{"", "A", "1A", "A-1", "ABC1"} {
		if _, err := ct.Robotize(ref); !errors.Is(err, faults.ErrFormat) {
			t.Fatalf("Robotize(%q) = %v, want format error", ref, err)
		}
	}
}

func TestWellsFromRowAndColumnWise(t *testing.T) {
	c := mustContainer(t, "plate", plate96())

	rows, err := c.WellsFrom("A11", 4, false)
	if err != nil {
		t.Fatalf("WellsFrom: %v", err)
	}
	if got := rows.Indices(); !equalInts(got, []int{10, 11, 12, 13}) {
		t.Fatalf("row-wise indices = %v", got)
	}

	cols, err := c.WellsFrom("G1", 4, true)
	if err != nil {
		t.Fatalf("WellsFrom columnwise: %v", err)
	}
	if got := cols.Indices(); !equalInts(got, []int{72, 84, 1, 13}) {
		t.Fatalf("column-wise indices = %v", got)
	}

	if _, err := c.WellsFrom("H12", 2, false); !errors.Is(err, faults.ErrIndex) {
		t.Fatalf("expected index error past the end, got %v", err)
	}
	if _, err := c.WellsFrom("H12", 2, true); !errors.Is(err, faults.ErrIndex) {
		t.Fatalf("expected index error past the end column-wise, got %v", err)
	}
}

func TestAllWellsOrdering(t *testing.T) {
	c := mustContainer(t, "plate", plate96())
	rowWise := c.AllWells(false)
	colWise := c.AllWells(true)
	if len(rowWise) != 96 || len(colWise) != 96 {
		t.Fatalf("lengths = %d, %d", len(rowWise), len(colWise))
	}
	if colWise[1].Index() != 12 || colWise[8].Index() != 1 {
		t.Fatalf("unexpected column-wise order %v", colWise[:9].Indices())
	}
}

func TestInnerWellsAndQuadrants(t *testing.T) {
	c := mustContainer(t, "plate", plate96())
	inner := c.InnerWells(false)
	if len(inner) != 60 {
		t.Fatalf("inner wells = %d, want 60", len(inner))
	}
	if inner[0].Humanize() != "B2" {
		t.Fatalf("first inner well = %s", inner[0].Humanize())
	}

	p := mustContainer(t, "p384", plate384())
	for q := 0; q < 4; q++ {
		wells, err := p.Quadrant(q)
		if err != nil {
			t.Fatalf("Quadrant(%d): %v", q, err)
		}
		if len(wells) != 96 {
			t.Fatalf("quadrant %d has %d wells", q, len(wells))
		}
	}
	q3, _ := p.Quadrant(3)
	if q3[0].Humanize() != "B2" {
		t.Fatalf("quadrant 3 starts at %s", q3[0].Humanize())
	}
	if _, err := p.Quadrant(4); !errors.Is(err, faults.ErrIndex) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestWellsFromShape(t *testing.T) {
	p := mustContainer(t, "p384", plate384())
	column, err := p.WellsFromShape("A1", 8, 1)
	if err != nil {
		t.Fatalf("WellsFromShape: %v", err)
	}
	if column[1].Humanize() != "C1" || column[7].Humanize() != "O1" {
		t.Fatalf("unexpected stride: %s %s", column[1].Humanize(), column[7].Humanize())
	}
	if _, err := p.WellsFromShape("C1", 8, 1); !errors.Is(err, faults.ErrIndex) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestVolumeBookkeeping(t *testing.T) {
	c := mustContainer(t, "plate", plate96())
	w, err := c.Well("A1")
	if err != nil {
		t.Fatalf("Well: %v", err)
	}
	if !w.Volume().IsZero() {
		t.Fatal("expected unset volume")
	}
	if err := w.AddVolume(quantity.Must("-5:microliter")); err != nil {
		t.Fatalf("AddVolume: %v", err)
	}
	if w.Volume().String() != "-5:microliter" {
		t.Fatalf("volume = %s", w.Volume())
	}
	if err := w.SetVolume(quantity.Must("500:microliter")); err != nil {
		t.Fatalf("overfill should not fail: %v", err)
	}
	if !w.ExceedsCapacity() {
		t.Fatal("expected overfill to be reported")
	}
	if err := w.SetVolume(quantity.Must("5:second")); !errors.Is(err, faults.ErrDimension) {
		t.Fatalf("expected dimension error, got %v", err)
	}

	group, _ := c.WellsFrom("0", 3, false)
	if err := group.SetVolume(quantity.Must("10:microliter")); err != nil {
		t.Fatalf("group SetVolume: %v", err)
	}
	again, _ := c.WellAt(2)
	if again.Volume().String() != "10:microliter" {
		t.Fatalf("handle does not see shared state: %s", again.Volume())
	}
}

func TestZeroWellHandle(t *testing.T) {
	var w Well
	if !w.IsZero() {
		t.Fatal("expected zero handle")
	}
	if err := w.SetVolume(quantity.Must("5:microliter")); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("SetVolume: expected usage error, got %v", err)
	}
	if err := w.AddVolume(quantity.Must("5:microliter")); !errors.Is(err, faults.ErrUsage) {
		t.Fatalf("AddVolume: expected usage error, got %v", err)
	}
	if !w.Volume().IsZero() || w.ExceedsCapacity() {
		t.Fatalf("zero handle reports volume %s", w.Volume())
	}
	w.SetName("buffer")
	w.SetProperty("lot", "7")
	if w.Name() != "" || w.Properties() != nil || w.Humanize() != "" || w.String() != "" {
		t.Fatalf("zero handle carries metadata: %q %v %q", w.Name(), w.Properties(), w.Humanize())
	}
}

func TestWellMetadataAndReferences(t *testing.T) {
	c := mustContainer(t, "src", plate96())
	w, _ := c.Well("B3")
	w.SetName(" buffer ")
	w.SetProperty("lot", "42")
	if w.Name() != "buffer" || w.Properties()["lot"] != "42" {
		t.Fatalf("metadata = %q %v", w.Name(), w.Properties())
	}
	if w.String() != "src/14" {
		t.Fatalf("String() = %q", w.String())
	}

	name, addr, err := SplitReference("my/plate/A1")
	if err != nil || name != "my/plate" || addr != "A1" {
		t.Fatalf("SplitReference = %q %q %v", name, addr, err)
	}
	for _, bad := range []string{"plate", "/A1", "plate/"} {
		if _, _, err := SplitReference(bad); !errors.Is(err, faults.ErrFormat) {
			t.Fatalf("SplitReference(%q) = %v", bad, err)
		}
	}
}

func TestClosureString(t *testing.T) {
	cases := map[string]Closure{
		"open":             {},
		"cover:universal":  {Kind: Covered, Type: "universal", Origin: OriginAuto},
		"seal:ultra-clear": {Kind: Sealed, Type: "ultra-clear", Origin: OriginExplicit},
	}
	for want, closure := range cases {
		if closure.String() != want {
			t.Fatalf("String() = %q, want %q", closure.String(), want)
		}
	}
}

func TestContainerTypeValidate(t *testing.T) {
	bad := plate96()
	bad.ColCount = 7
	if err := bad.Validate(); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	bad = plate96()
	bad.SealTypes = []string{"duct-tape"}
	if err := bad.Validate(); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWellGroupOperations(t *testing.T) {
	c := mustContainer(t, "plate", plate96())
	first, _ := c.WellsFrom("A1", 3, false)
	second, _ := c.WellsFrom("B1", 2, false)

	joined := first.Extend(second)
	if joined.Len() != 5 || first.Len() != 3 {
		t.Fatalf("lengths = %d, %d", joined.Len(), first.Len())
	}
	w, err := joined.At(3)
	if err != nil || w.Humanize() != "B1" {
		t.Fatalf("At(3) = %s, %v", w.Humanize(), err)
	}
	if _, err := joined.At(5); !errors.Is(err, faults.ErrIndex) {
		t.Fatalf("expected index error, got %v", err)
	}

	part, err := joined.Slice(1, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if got := part.Indices(); !equalInts(got, []int{1, 2, 12}) {
		t.Fatalf("slice indices = %v", got)
	}
	if _, err := joined.Slice(4, 2); !errors.Is(err, faults.ErrIndex) {
		t.Fatalf("expected index error for reversed range, got %v", err)
	}

	extra, _ := c.WellAt(95)
	grown := part.Append(extra)
	if grown.Len() != 4 || part.Len() != 3 {
		t.Fatalf("Append changed receiver: %d %d", grown.Len(), part.Len())
	}
	if got := grown.Strings(); got[3] != "plate/95" {
		t.Fatalf("strings = %v", got)
	}
}
