package labware

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"platewright/internal/faults"
	"platewright/internal/quantity"
)

// Closure kinds understood by the engine.
var (
	CoverKinds = []string{"standard", "low_evaporation", "universal", "ultra-clear"}
	SealKinds  = []string{"ultra-clear", "foil", "breathable"}
)

// Capabilities referenced by the builder.
const (
	CapCover        = "cover"
	CapSeal         = "seal"
	CapSpin         = "spin"
	CapIncubate     = "incubate"
	CapThermocycle  = "thermocycle"
	CapLiquidHandle = "liquid_handle"
	CapAbsorbance   = "absorbance"
	CapFluorescence = "fluorescence"
	CapLuminescence = "luminescence"
)

// ContainerType is the static geometry and capability description of a
// vessel. Values come from a catalog and are never mutated.
type ContainerType struct {
	Name                  string            `toml:"name" yaml:"name" json:"name"`
	Shortname             string            `toml:"shortname" yaml:"shortname" json:"shortname"`
	WellCount             int               `toml:"well_count" yaml:"well_count" json:"well_count"`
	ColCount              int               `toml:"col_count" yaml:"col_count" json:"col_count"`
	WellVolume            quantity.Quantity `toml:"well_volume" yaml:"well_volume" json:"well_volume"`
	DeadVolume            quantity.Quantity `toml:"dead_volume" yaml:"dead_volume" json:"dead_volume"`
	SafeMinVolume         quantity.Quantity `toml:"safe_min_volume" yaml:"safe_min_volume" json:"safe_min_volume"`
	CoverTypes            []string          `toml:"cover_types" yaml:"cover_types" json:"cover_types,omitempty"`
	SealTypes             []string          `toml:"seal_types" yaml:"seal_types" json:"seal_types,omitempty"`
	Capabilities          []string          `toml:"capabilities" yaml:"capabilities" json:"capabilities"`
	IsTube                bool              `toml:"is_tube" yaml:"is_tube" json:"is_tube"`
	PrioritizeSealOrCover string            `toml:"prioritize_seal_or_cover" yaml:"prioritize_seal_or_cover" json:"prioritize_seal_or_cover"`
	Vendor                string            `toml:"vendor" yaml:"vendor" json:"vendor,omitempty"`
	CatalogNo             string            `toml:"cat_no" yaml:"cat_no" json:"cat_no,omitempty"`
}

// Validate checks the descriptor is internally consistent.
func (t ContainerType) Validate() error {
	if strings.TrimSpace(t.Shortname) == "" {
		return faults.Wrapf(faults.ErrConfiguration, "labware", "container type", "shortname is required")
	}
	if t.WellCount <= 0 || t.ColCount <= 0 {
		return faults.Wrapf(faults.ErrConfiguration, "labware", t.Shortname, "well_count and col_count must be positive")
	}
	if t.WellCount%t.ColCount != 0 {
		return faults.Wrapf(faults.ErrConfiguration, "labware", t.Shortname,
			"well_count %d is not divisible by col_count %d", t.WellCount, t.ColCount)
	}
	if !t.WellVolume.IsZero() && t.WellVolume.Dimension() != quantity.Volume {
		return faults.Wrapf(faults.ErrConfiguration, "labware", t.Shortname, "well_volume %s is not a volume", t.WellVolume)
	}
	for _, kind := range t.CoverTypes {
		if !slices.Contains(CoverKinds, kind) {
			return faults.Wrapf(faults.ErrConfiguration, "labware", t.Shortname, "unknown cover type %q", kind)
		}
	}
	for _, kind := range t.SealTypes {
		if !slices.Contains(SealKinds, kind) {
			return faults.Wrapf(faults.ErrConfiguration, "labware", t.Shortname, "unknown seal type %q", kind)
		}
	}
	switch t.PrioritizeSealOrCover {
	case "", "seal", "cover":
	default:
		return faults.Wrapf(faults.ErrConfiguration, "labware", t.Shortname,
			"prioritize_seal_or_cover must be seal or cover, got %q", t.PrioritizeSealOrCover)
	}
	return nil
}

// RowCount is the number of rows implied by the well and column counts.
func (t ContainerType) RowCount() int {
	if t.ColCount == 0 {
		return 0
	}
	return t.WellCount / t.ColCount
}

// HasCapability reports whether the type lists capability.
func (t ContainerType) HasCapability(capability string) bool {
	return slices.Contains(t.Capabilities, capability)
}

// SupportsCover reports whether lid kind can be placed on this type.
func (t ContainerType) SupportsCover(kind string) bool {
	return t.HasCapability(CapCover) && slices.Contains(t.CoverTypes, kind)
}

// SupportsSeal reports whether seal kind can be applied to this type.
func (t ContainerType) SupportsSeal(kind string) bool {
	return t.HasCapability(CapSeal) && slices.Contains(t.SealTypes, kind)
}

// SealFirst reports whether the closing pass prefers a seal over a lid.
func (t ContainerType) SealFirst() bool {
	return t.PrioritizeSealOrCover != "cover"
}

var wellLabelPattern = regexp.MustCompile(`^([A-Za-z])([A-Za-z]?)(\d+)$`)

// Robotize converts a well reference (decimal index or row/column label such
// as "A1" or "AB12") into a zero-based index.
func (t ContainerType) Robotize(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, faults.Wrapf(faults.ErrFormat, "labware", "robotize", "empty well reference")
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		return t.checkIndex(idx)
	}
	m := wellLabelPattern.FindStringSubmatch(ref)
	if m == nil {
		return 0, faults.Wrapf(faults.ErrFormat, "labware", "robotize", "%q is not a well index or label", ref)
	}
	row := int(strings.ToUpper(m[1])[0] - 'A')
	if m[2] != "" {
		row = 26*(row+1) + int(strings.ToUpper(m[2])[0]-'A')
	}
	col, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, faults.Wrap(faults.ErrFormat, "labware", "robotize", ref, err)
	}
	col--
	if row >= t.RowCount() || col < 0 || col >= t.ColCount {
		return 0, faults.Wrapf(faults.ErrIndex, "labware", "robotize",
			"well %s is outside a %d-row by %d-column %s", ref, t.RowCount(), t.ColCount, t.Shortname)
	}
	return row*t.ColCount + col, nil
}

func (t ContainerType) checkIndex(idx int) (int, error) {
	if idx < 0 || idx >= t.WellCount {
		return 0, faults.Wrapf(faults.ErrIndex, "labware", "robotize",
			"well index %d is outside %s with %d wells", idx, t.Shortname, t.WellCount)
	}
	return idx, nil
}

// Humanize renders a zero-based index as a row/column label.
func (t ContainerType) Humanize(idx int) (string, error) {
	if _, err := t.checkIndex(idx); err != nil {
		return "", err
	}
	row, col := t.Decompose(idx)
	return rowLabel(row) + strconv.Itoa(col+1), nil
}

// Decompose splits an index into zero-based row and column.
func (t ContainerType) Decompose(idx int) (row, col int) {
	return idx / t.ColCount, idx % t.ColCount
}

func rowLabel(row int) string {
	if row < 26 {
		return string(rune('A' + row))
	}
	return fmt.Sprintf("%c%c", rune('A'+row/26-1), rune('A'+row%26))
}
