package priority

import "github.com/ryanluriea/blaidtrades/internal/fleet/lifecycle"

// Bucket is the letter grade derived from a bot's priority score. The
// string values are stable keys consumed by the dashboard.
type Bucket string

const (
	BucketAPlus Bucket = "A+"
	BucketA     Bucket = "A"
	BucketB     Bucket = "B"
	BucketC     Bucket = "C"
	BucketD     Bucket = "D"
	BucketF     Bucket = "F"
)

// BucketFor grades a score. DEGRADED or FROZEN health forces F regardless of
// the numeric score: an unhealthy bot must never look allocatable.
func BucketFor(score float64, health lifecycle.HealthState) Bucket {
	if health.Unhealthy() {
		return BucketF
	}
	switch {
	case score >= 85:
		return BucketAPlus
	case score >= 75:
		return BucketA
	case score >= 60:
		return BucketB
	case score >= 45:
		return BucketC
	case score >= 30:
		return BucketD
	default:
		return BucketF
	}
}
