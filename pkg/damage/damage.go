package damage

import (
	"fmt"

	"github.com/rs/zerolog"

	"pitwallrelay/pkg/telemetry"
)

// Severity buckets for a damage estimate.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityModerate Severity = "MODERATE"
	SeveritySevere   Severity = "SEVERE"
)

// Corner speed classes whose handling the damage affects.
type Corner string

const (
	CornerHighSpeed   Corner = "high_speed"
	CornerMediumSpeed Corner = "medium_speed"
	CornerLowSpeed    Corner = "low_speed"
)

// Estimate is the per-call damage assessment. Not persisted.
type Estimate struct {
	AeroDamagePct       float64  `json:"aeroDamagePct"`
	SuspensionDamagePct float64  `json:"suspensionDamagePct"`
	EstimatedLapDelta   float64  `json:"estimatedLapDelta"` // seconds per lap
	AffectedCorners     []Corner `json:"affectedCorners"`
	Severity            Severity `json:"severity"`
}

// Estimator derives aero and suspension damage percentages from a snapshot.
// The sim exposes no direct damage fields, so the default is a coarse model
// scaled off the incident counter; swap in a speed-baseline model here when
// one exists.
type Estimator func(snap *telemetry.Snapshot) (aeroPct, suspensionPct float64)

func defaultEstimator(snap *telemetry.Snapshot) (float64, float64) {
	aero := float64(snap.IncidentCount) * 3.0
	susp := float64(snap.IncidentCount) * 1.5
	if aero > 100 {
		aero = 100
	}
	if susp > 100 {
		susp = 100
	}
	return aero, susp
}

// Analyzer estimates the performance cost of accumulated damage.
type Analyzer struct {
	log      zerolog.Logger
	estimate Estimator
}

func NewAnalyzer(log zerolog.Logger, estimator Estimator) *Analyzer {
	if estimator == nil {
		estimator = defaultEstimator
	}
	return &Analyzer{
		log:      log.With().Str("component", "damage").Logger(),
		estimate: estimator,
	}
}

// Analyze returns nil when the car is clean: no incidents, or an estimator
// that reports zero damage on both axes.
func (a *Analyzer) Analyze(snap *telemetry.Snapshot) *Estimate {
	if snap.IncidentCount == 0 {
		return nil
	}
	aero, susp := a.estimate(snap)
	if aero == 0 && susp == 0 {
		return nil
	}
	return Assess(aero, susp)
}

// Assess applies the lap-delta and severity model to a damage pair.
func Assess(aeroPct, suspensionPct float64) *Estimate {
	est := &Estimate{
		AeroDamagePct:       aeroPct,
		SuspensionDamagePct: suspensionPct,
		EstimatedLapDelta:   (aeroPct/10)*0.3 + (suspensionPct/10)*0.2,
	}

	total := aeroPct + suspensionPct
	switch {
	case total < 10:
		est.Severity = SeverityMinor
	case total < 30:
		est.Severity = SeverityModerate
	default:
		est.Severity = SeveritySevere
	}

	if aeroPct > 5 {
		est.AffectedCorners = append(est.AffectedCorners, CornerHighSpeed)
	}
	if suspensionPct > 5 {
		est.AffectedCorners = append(est.AffectedCorners, CornerMediumSpeed, CornerLowSpeed)
	}
	return est
}

// VoiceAlert renders the estimate as a spoken-style summary, always carrying
// the lap delta to one decimal place.
func VoiceAlert(est *Estimate) string {
	switch est.Severity {
	case SeveritySevere:
		return fmt.Sprintf("Heavy damage, you're losing %.1f seconds a lap. Box for repairs.",
			est.EstimatedLapDelta)
	case SeverityModerate:
		return fmt.Sprintf("Moderate damage, costing about %.1f seconds a lap. Manage the car.",
			est.EstimatedLapDelta)
	default:
		return fmt.Sprintf("Minor damage, around %.1f seconds a lap. Carry on.",
			est.EstimatedLapDelta)
	}
}
