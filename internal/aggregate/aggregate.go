// Package aggregate buckets deduplicated records into reporting periods and
// computes the period and entity level statistics for the emitted dataset.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
	"github.com/Ashfaaq98/threat-aggregator/internal/normalize"
)

// Period is the reporting-period granularity for one run.
type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// ParsePeriod returns the period for raw input, defaulting to monthly.
func ParsePeriod(raw string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	case PeriodMonthly, "":
		return PeriodMonthly, nil
	case PeriodQuarterly:
		return PeriodQuarterly, nil
	case PeriodYearly:
		return PeriodYearly, nil
	default:
		return PeriodMonthly, fmt.Errorf("unknown aggregation period %q", raw)
	}
}

// PeriodKey derives the bucket key for a timestamp under the given period.
// Weekly buckets follow ISO-8601 week numbering. Unparseable input yields
// "unknown".
func PeriodKey(timestamp string, period Period) string {
	t, ok := normalize.ParseTime(timestamp)
	if !ok {
		return "unknown"
	}
	switch period {
	case PeriodDaily:
		return t.Format("2006-01-02")
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodQuarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case PeriodYearly:
		return fmt.Sprintf("%d", t.Year())
	default:
		return t.Format("2006-01")
	}
}

// Aggregator annotates entity collections with periods and statistics.
type Aggregator struct {
	period Period
}

// New constructs an Aggregator for the given period.
func New(period Period) *Aggregator {
	return &Aggregator{period: period}
}

// Period returns the configured period.
func (ag *Aggregator) Period() Period { return ag.period }

// bucketDate picks the timestamp a record is bucketed by: telemetry date
// first, last-seen as fallback.
func bucketDate(telemetry, lastSeen string) string {
	if telemetry != "" {
		return telemetry
	}
	return lastSeen
}

// Actors annotates actors with their period and sorts them descending by
// healthcare targeting, then confidence, then observation count.
func (ag *Aggregator) Actors(actors []*model.ThreatActor) []*model.ThreatActor {
	for _, a := range actors {
		a.Period = PeriodKey(bucketDate(a.TelemetryDate, a.LastSeen), ag.period)
	}
	sort.SliceStable(actors, func(i, j int) bool {
		if actors[i].HealthcareTargets != actors[j].HealthcareTargets {
			return actors[i].HealthcareTargets > actors[j].HealthcareTargets
		}
		if actors[i].Confidence != actors[j].Confidence {
			return actors[i].Confidence > actors[j].Confidence
		}
		return actors[i].ObservationCount > actors[j].ObservationCount
	})
	return actors
}

// Malware annotates malware with period and prevalence (share of same-name
// records among all malware records, as a percentage).
func (ag *Aggregator) Malware(records []*model.Malware) []*model.Malware {
	nameCounts := make(map[string]int)
	for _, m := range records {
		nameCounts[strings.ToLower(m.Name)]++
	}
	total := len(records)
	for _, m := range records {
		m.Period = PeriodKey(bucketDate(m.TelemetryDate, m.LastSeen), ag.period)
		if total > 0 {
			m.Prevalence = float64(nameCounts[strings.ToLower(m.Name)]) / float64(total) * 100
		}
	}
	return records
}

// Techniques annotates techniques with period and prevalence score, sorted
// descending by aggregated frequency.
func (ag *Aggregator) Techniques(records []*model.Technique) []*model.Technique {
	total := len(records)
	for _, t := range records {
		t.Period = PeriodKey(t.TelemetryDate, ag.period)
		if total > 0 {
			t.PrevalenceScore = float64(t.AggregatedFrequency) / float64(total) * 100
			if t.PrevalenceScore > 100 {
				t.PrevalenceScore = 100
			}
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AggregatedFrequency > records[j].AggregatedFrequency
	})
	return records
}

// severityBand classifies an impact score into the reporting severity bands.
func severityBand(impactScore int) string {
	switch {
	case impactScore >= 75:
		return string(model.SeverityCritical)
	case impactScore >= 50:
		return string(model.SeverityHigh)
	case impactScore >= 25:
		return string(model.SeverityMedium)
	default:
		return string(model.SeverityLow)
	}
}

// Incidents groups incidents by period and computes per-period statistics.
// Groups are returned in ascending period order ("unknown" last).
func (ag *Aggregator) Incidents(records []*model.Incident) []*model.IncidentPeriodGroup {
	groups := make(map[string]*model.IncidentPeriodGroup)
	downtimeCounts := make(map[string]int)

	for _, in := range records {
		key := PeriodKey(in.IncidentDate, ag.period)
		g, ok := groups[key]
		if !ok {
			g = &model.IncidentPeriodGroup{
				Period:       key,
				ByAttackType: make(map[string]int),
				BySector:     make(map[string]int),
				BySeverity:   make(map[string]int),
			}
			groups[key] = g
		}
		g.TotalIncidents++
		g.ByAttackType[string(in.AttackType)]++
		g.BySector[string(in.Sector)]++
		g.BySeverity[severityBand(in.ImpactScore)]++
		g.TotalRecordsCompromised += in.RecordsCompromised
		g.TotalFinancialImpact += in.FinancialImpact
		if in.OperationalImpact.DowntimeHours > 0 {
			g.AvgDowntimeHours += in.OperationalImpact.DowntimeHours
			downtimeCounts[key]++
		}
		if in.PatientCareImpact == model.CareImpactCritical {
			g.CriticalPatientCareCount++
		}
		g.Incidents = append(g.Incidents, in)
	}

	out := make([]*model.IncidentPeriodGroup, 0, len(groups))
	for key, g := range groups {
		if n := downtimeCounts[key]; n > 0 {
			g.AvgDowntimeHours /= float64(n)
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		// "unknown" sorts after any real period.
		if out[i].Period == "unknown" {
			return false
		}
		if out[j].Period == "unknown" {
			return true
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// Vectors annotates attack vectors with period and prevalence score (share of
// total observed frequency), sorted descending by risk score.
func (ag *Aggregator) Vectors(records []*model.AttackVector) []*model.AttackVector {
	var totalFreq int
	typeFreq := make(map[string]int)
	for _, v := range records {
		totalFreq += v.Frequency
		typeFreq[v.VectorType] += v.Frequency
	}
	for _, v := range records {
		v.Period = PeriodKey(v.TelemetryDate, ag.period)
		if totalFreq > 0 {
			v.PrevalenceScore = float64(typeFreq[v.VectorType]) / float64(totalFreq) * 100
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RiskScore > records[j].RiskScore
	})
	return records
}
