package mathutil

import "math"

// LogZero represents log(0), used as negative infinity in log-domain
// arithmetic. It stays finite so costs derived from it still compare and add.
const LogZero = -1e30

// FromLog10 converts a base-10 log probability to natural log.
func FromLog10(x float64) float64 { return x * math.Ln10 }

// ToCost turns a natural-log probability into a non-negative cost, scaled.
func ToCost(logProb, scale float64) float32 { return float32(-scale * logProb) }
