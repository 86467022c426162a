package scoring

// Zone is the risk band a 0-100 average falls into.
type Zone string

const (
	ZoneCritical Zone = "critical"
	ZoneModerate Zone = "moderate"
	ZoneAdequate Zone = "adequate"
)

// Zone thresholds. Each lower edge belongs to the higher band.
const (
	ModerateThreshold = 40.0
	AdequateThreshold = 75.0
)

// Classify maps an average to its zone:
//
//	avg < 40        critical
//	40 <= avg < 75  moderate
//	avg >= 75       adequate
func Classify(avg float64) Zone {
	switch {
	case avg < ModerateThreshold:
		return ZoneCritical
	case avg < AdequateThreshold:
		return ZoneModerate
	default:
		return ZoneAdequate
	}
}

func (z Zone) Label() string {
	switch z {
	case ZoneCritical:
		return "Critical"
	case ZoneModerate:
		return "Moderate"
	case ZoneAdequate:
		return "Adequate"
	}
	return ""
}

func (z Zone) Valid() bool {
	switch z {
	case ZoneCritical, ZoneModerate, ZoneAdequate:
		return true
	}
	return false
}

// Band is the per-response counterpart of Zone used in distributions.
type Band string

const (
	BandUnfavorable Band = "unfavorable"
	BandNeutral     Band = "neutral"
	BandFavorable   Band = "favorable"
)

// BandOf classifies a single scored value with the same thresholds as Classify.
func BandOf(scored float64) Band {
	switch Classify(scored) {
	case ZoneCritical:
		return BandUnfavorable
	case ZoneModerate:
		return BandNeutral
	default:
		return BandFavorable
	}
}
