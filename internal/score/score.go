// Package score derives the computed numeric and temporal fields of canonical
// records. All functions are pure per-record transforms; scores are clamped to
// [0,100] regardless of input.
package score

import (
	"math"
	"strings"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
	"github.com/Ashfaaq98/threat-aggregator/internal/normalize"
)

// ActorConfidence computes an actor's confidence score from the richness of
// the reported evidence. Base 50, capped at 100.
func ActorConfidence(a *model.ThreatActor) int {
	c := 50
	if len(a.TTPs) > 0 {
		c += 10
		if len(a.TTPs) > 3 {
			c += 5
		}
		if len(a.TTPs) > 5 {
			c += 5
		}
	}
	if len(a.MalwareUsed) > 0 {
		c += 10
		if len(a.MalwareUsed) > 2 {
			c += 5
		}
	}
	if len(a.Infrastructure) > 0 {
		c += 10
	}
	if a.HealthcareTargets > 0 {
		c += 10
		if a.HealthcareTargets > 5 {
			c += 5
		}
		if a.HealthcareTargets > 10 {
			c += 5
		}
	}
	if len(a.Aliases) > 0 {
		c += 5
	}
	if a.Motivation != "" {
		c += 5
	}
	if a.Origin != "" {
		c += 5
	}
	return clamp(c)
}

// financialBands maps financial impact thresholds (USD) to score contributions.
var financialBands = []struct {
	threshold int64
	points    int
}{
	{100_000_000, 40},
	{50_000_000, 37},
	{10_000_000, 35},
	{5_000_000, 30},
	{1_000_000, 25},
	{500_000, 20},
	{100_000, 15},
	{50_000, 10},
	{10_000, 5},
}

// IncidentImpact computes an incident's impact score as the sum of four
// independently capped components: financial (0-40), operational (0-30),
// patient care (0-30), and records compromised (0-10).
func IncidentImpact(in *model.Incident) int {
	total := financialComponent(in.FinancialImpact) +
		operationalComponent(in.OperationalImpact) +
		careComponent(in.PatientCareImpact) +
		recordsComponent(in.RecordsCompromised)
	return clamp(total)
}

func financialComponent(amount int64) int {
	for _, band := range financialBands {
		if amount >= band.threshold {
			return band.points
		}
	}
	return 0
}

func operationalComponent(op model.OperationalImpact) int {
	score := 0
	switch {
	case op.DowntimeHours >= 720: // 30 days
		score += 20
	case op.DowntimeHours >= 168: // 1 week
		score += 16
	case op.DowntimeHours >= 72:
		score += 12
	case op.DowntimeHours >= 48:
		score += 8
	case op.DowntimeHours >= 24:
		score += 5
	case op.DowntimeHours >= 8:
		score += 3
	}
	switch {
	case op.SystemsAffected >= 1000:
		score += 10
	case op.SystemsAffected >= 500:
		score += 8
	case op.SystemsAffected >= 100:
		score += 6
	case op.SystemsAffected >= 50:
		score += 4
	case op.SystemsAffected >= 10:
		score += 2
	}
	if score > 30 {
		score = 30
	}
	return score
}

func careComponent(impact model.CareImpact) int {
	switch impact {
	case model.CareImpactCritical:
		return 30
	case model.CareImpactSevere:
		return 25
	case model.CareImpactModerate:
		return 15
	case model.CareImpactMinimal:
		return 5
	default:
		return 0
	}
}

func recordsComponent(records int64) int {
	switch {
	case records >= 10_000_000:
		return 10
	case records >= 1_000_000:
		return 8
	case records >= 100_000:
		return 6
	case records >= 10_000:
		return 4
	case records >= 1_000:
		return 2
	default:
		return 0
	}
}

// IncidentDuration computes the incident duration in whole hours, preferring
// discovery->containment, then incident->containment, then incident->resolution.
// Returns nil when no pair yields a positive duration.
func IncidentDuration(in *model.Incident) *int {
	pairs := [][2]string{
		{in.DiscoveryDate, in.ContainmentDate},
		{in.IncidentDate, in.ContainmentDate},
		{in.IncidentDate, in.ResolutionDate},
	}
	for _, pair := range pairs {
		start, okStart := normalize.ParseTime(pair[0])
		end, okEnd := normalize.ParseTime(pair[1])
		if !okStart || !okEnd {
			continue
		}
		hours := int(math.Round(end.Sub(start).Hours()))
		if hours <= 0 {
			return nil
		}
		return &hours
	}
	return nil
}

// criticalAssetKeywords mark targeted assets whose compromise carries the
// highest risk weighting.
var criticalAssetKeywords = []string{
	"ehr",
	"medical device",
	"phi",
	"backup",
	"domain controller",
	"active directory",
	"payment",
	"billing",
}

// VectorRisk computes an attack vector's risk score from severity, observed
// frequency, actor adoption, and targeted-asset criticality.
func VectorRisk(v *model.AttackVector) int {
	score := 0

	switch v.Severity {
	case model.SeverityCritical:
		score += 40
	case model.SeverityHigh:
		score += 30
	case model.SeverityMedium:
		score += 20
	case model.SeverityLow:
		score += 10
	default:
		score += 20
	}

	switch {
	case v.Frequency >= 100:
		score += 30
	case v.Frequency >= 50:
		score += 25
	case v.Frequency >= 20:
		score += 20
	case v.Frequency >= 10:
		score += 15
	case v.Frequency >= 5:
		score += 10
	default:
		score += 5
	}

	switch n := len(v.ActorsUsing); {
	case n >= 20:
		score += 20
	case n >= 10:
		score += 15
	case n >= 5:
		score += 10
	case n >= 2:
		score += 5
	default:
		score += 2
	}

	score += assetComponent(v.TargetedAssets)

	return clamp(score)
}

func assetComponent(assets []string) int {
	if len(assets) == 0 {
		return 0
	}
	for _, asset := range assets {
		lower := strings.ToLower(asset)
		for _, kw := range criticalAssetKeywords {
			if strings.Contains(lower, kw) {
				return 10
			}
		}
	}
	return 5
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
