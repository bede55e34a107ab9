package combat

import "math"

// EffectiveDamage applies armour to a base hit: base² / (base + defense).
// Non-positive base deals nothing and negative defense counts as zero.
func EffectiveDamage(base, defense float64) float64 {
	if !(base > 0) {
		return 0
	}
	if !(defense > 0) {
		defense = 0
	}
	damage := base * base / (base + defense)
	if math.IsNaN(damage) {
		return 0
	}
	return math.Max(damage, 0)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
