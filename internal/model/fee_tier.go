package model

import "fmt"

// FeeTier is a V3 pool fee tier code in hundredths of a basis point.
type FeeTier uint32

const (
	FeeTier100   FeeTier = 100
	FeeTier500   FeeTier = 500
	FeeTier3000  FeeTier = 3000
	FeeTier10000 FeeTier = 10000
)

// AllFeeTiers returns the supported tiers in ascending fee order. The set
// is closed; adding a tier is a code change.
func AllFeeTiers() []FeeTier {
	return []FeeTier{FeeTier100, FeeTier500, FeeTier3000, FeeTier10000}
}

// Percent renders the tier as a display percentage, e.g. "0.30%".
func (f FeeTier) Percent() string {
	whole := uint32(f) / 10000
	frac := uint32(f) % 10000 / 100
	return fmt.Sprintf("%d.%02d%%", whole, frac)
}
