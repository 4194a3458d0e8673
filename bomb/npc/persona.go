package npc

import "strings"

// StanceWeights is the numeric vector behind the opponent's chat posture.
// Every variant is a point in this space; there are no per-personality code
// paths.
type StanceWeights struct {
	Honest  float64 `json:"honest"`
	Bluff   float64 `json:"bluff"`
	Deflect float64 `json:"deflect"`
}

// Variant is the difficulty-facing opponent personality from the original
// game: truthful, always lying, or a coin flip.
type Variant byte

const (
	VariantHonest    Variant = 1
	VariantDeceptive Variant = 2
	VariantChaotic   Variant = 3
)

var VariantDictionary = map[Variant]string{
	VariantHonest:    "honest",
	VariantDeceptive: "deceptive",
	VariantChaotic:   "50-50",
}

// BaseWeights returns the variant's stance vector before profile and
// weakness modifiers are applied.
func (v Variant) BaseWeights() StanceWeights {
	switch v {
	case VariantHonest:
		return StanceWeights{Honest: 1}
	case VariantDeceptive:
		return StanceWeights{Bluff: 1}
	case VariantChaotic:
		return StanceWeights{Honest: 0.5, Bluff: 0.5}
	}
	return StanceWeights{Honest: 1}
}

// ParseVariant maps a config string to a variant, defaulting to 50-50.
func ParseVariant(s string) Variant {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "honest":
		return VariantHonest
	case "deceptive":
		return VariantDeceptive
	default:
		return VariantChaotic
	}
}
