// Package dedupe collapses records that describe the same real-world entity
// across contributing organizations. Identity is by exact normalized key;
// field-level merging follows the per-entity rule tables in rules.go.
package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
	"github.com/Ashfaaq98/threat-aggregator/internal/normalize"
)

// Strategy selects how same-key records collapse.
type Strategy string

const (
	// StrategyMerge keeps the first-seen record and merges fields in.
	StrategyMerge Strategy = "merge"
	// StrategyLatest keeps the record with the most recent telemetryDate.
	StrategyLatest Strategy = "latest"
	// StrategyAggregate merges and additionally accumulates counts.
	StrategyAggregate Strategy = "aggregate"
)

// ParseStrategy returns the strategy for raw input, defaulting to merge.
func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyMerge, "":
		return StrategyMerge, nil
	case StrategyLatest:
		return StrategyLatest, nil
	case StrategyAggregate:
		return StrategyAggregate, nil
	default:
		return StrategyMerge, fmt.Errorf("unknown deduplication strategy %q", raw)
	}
}

// ActorKey derives the primary identity key for a threat actor. Aliases
// participate in identity through the deduper's alias index, so two records
// sharing a name merge even when their alias sets differ.
func ActorKey(a *model.ThreatActor) string {
	return strings.ToLower(strings.TrimSpace(a.Name))
}

// actorAliasKeys returns the secondary identity keys an actor is known under.
func actorAliasKeys(a *model.ThreatActor) []string {
	keys := make([]string, 0, len(a.Aliases))
	for _, al := range a.Aliases {
		keys = append(keys, strings.ToLower(strings.TrimSpace(al)))
	}
	sort.Strings(keys)
	return keys
}

// MalwareKey derives the identity key for a malware record.
func MalwareKey(m *model.Malware) string {
	return strings.ToLower(m.Name) + "-" + strings.ToLower(m.Family)
}

// Deduper applies one strategy uniformly across entity kinds. Techniques and
// attack vectors always aggregate frequencies regardless of the strategy.
type Deduper struct {
	strategy Strategy
}

// New constructs a Deduper for the given strategy.
func New(strategy Strategy) *Deduper {
	return &Deduper{strategy: strategy}
}

// Strategy returns the configured strategy.
func (d *Deduper) Strategy() Strategy { return d.strategy }

// Actors collapses same-identity actors. A candidate matches an existing
// record when its name matches that record's name or one of its aliases.
// Output preserves first-seen order.
func (d *Deduper) Actors(actors []*model.ThreatActor) []*model.ThreatActor {
	var out []*model.ThreatActor
	index := make(map[string]int)
	register := func(a *model.ThreatActor, i int) {
		if _, taken := index[ActorKey(a)]; !taken {
			index[ActorKey(a)] = i
		}
		for _, k := range actorAliasKeys(a) {
			if _, taken := index[k]; !taken {
				index[k] = i
			}
		}
	}
	for _, a := range actors {
		i, seen := index[ActorKey(a)]
		if !seen {
			register(a, len(out))
			out = append(out, a)
			continue
		}
		switch d.strategy {
		case StrategyLatest:
			if laterTelemetry(a.TelemetryDate, out[i].TelemetryDate) {
				a.OrgsReporting = normalize.Union(out[i].OrgsReporting, a.OrgsReporting)
				out[i] = a
			} else {
				out[i].OrgsReporting = normalize.Union(out[i].OrgsReporting, a.OrgsReporting)
			}
		default:
			mergeActor(out[i], a, d.strategy == StrategyAggregate)
		}
		register(out[i], i)
	}
	return out
}

// mergeActor folds src into dst following ActorMergeRules.
func mergeActor(dst, src *model.ThreatActor, aggregate bool) {
	for _, rule := range ActorMergeRules {
		switch rule.Field {
		case "aliases":
			dst.Aliases = normalize.Union(dst.Aliases, src.Aliases)
		case "ttps":
			dst.TTPs = normalize.Union(dst.TTPs, src.TTPs)
		case "malwareUsed":
			dst.MalwareUsed = normalize.Union(dst.MalwareUsed, src.MalwareUsed)
		case "infrastructure":
			dst.Infrastructure = normalize.Union(dst.Infrastructure, src.Infrastructure)
		case "healthcareTargets":
			if rule.effective(aggregate) == RuleSum {
				dst.HealthcareTargets += src.HealthcareTargets
			} else if src.HealthcareTargets > dst.HealthcareTargets {
				dst.HealthcareTargets = src.HealthcareTargets
			}
		case "confidence":
			if src.Confidence > dst.Confidence {
				dst.Confidence = src.Confidence
			}
		case "firstSeen":
			dst.FirstSeen = earliest(dst.FirstSeen, src.FirstSeen)
		case "lastSeen":
			dst.LastSeen = latest(dst.LastSeen, src.LastSeen)
		case "orgsReporting":
			dst.OrgsReporting = normalize.Union(dst.OrgsReporting, src.OrgsReporting)
		case "observationCount":
			if rule.effective(aggregate) == RuleSum {
				dst.ObservationCount += src.ObservationCount
			}
		}
	}
	// Fill gaps the first record left empty.
	if dst.Motivation == "" {
		dst.Motivation = src.Motivation
	}
	if dst.Origin == "" {
		dst.Origin = src.Origin
	}
	if dst.Type == model.ActorTypeUnknown {
		dst.Type = src.Type
	}
}

// Malware collapses same-key malware records.
func (d *Deduper) Malware(records []*model.Malware) []*model.Malware {
	var out []*model.Malware
	index := make(map[string]int)
	for _, m := range records {
		key := MalwareKey(m)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, m)
			continue
		}
		switch d.strategy {
		case StrategyLatest:
			if laterTelemetry(m.TelemetryDate, out[i].TelemetryDate) {
				m.OrgsReporting = normalize.Union(out[i].OrgsReporting, m.OrgsReporting)
				out[i] = m
			} else {
				out[i].OrgsReporting = normalize.Union(out[i].OrgsReporting, m.OrgsReporting)
			}
		default:
			mergeMalware(out[i], m)
		}
	}
	return out
}

func mergeMalware(dst, src *model.Malware) {
	for _, rule := range MalwareMergeRules {
		switch rule.Field {
		case "capabilities":
			dst.Capabilities = normalize.Union(dst.Capabilities, src.Capabilities)
		case "iocs":
			dst.IOCs = model.IOCSet{
				Hashes:  normalize.Union(dst.IOCs.Hashes, src.IOCs.Hashes),
				Domains: normalize.Union(dst.IOCs.Domains, src.IOCs.Domains),
				IPs:     normalize.Union(dst.IOCs.IPs, src.IOCs.IPs),
				URLs:    normalize.Union(dst.IOCs.URLs, src.IOCs.URLs),
			}
		case "associatedActors":
			dst.AssociatedActors = normalize.Union(dst.AssociatedActors, src.AssociatedActors)
		case "firstSeen":
			dst.FirstSeen = earliest(dst.FirstSeen, src.FirstSeen)
		case "lastSeen":
			dst.LastSeen = latest(dst.LastSeen, src.LastSeen)
		case "orgsReporting":
			dst.OrgsReporting = normalize.Union(dst.OrgsReporting, src.OrgsReporting)
		}
	}
	if dst.Type == model.MalwareTypeUnknown {
		dst.Type = src.Type
	}
}

// Techniques collapses techniques by id, always additively. Records without a
// recognized technique id are kept as distinct entries.
func (d *Deduper) Techniques(records []*model.Technique) []*model.Technique {
	var out []*model.Technique
	index := make(map[string]int)
	for _, t := range records {
		if t.TechniqueID == "" {
			out = append(out, t)
			continue
		}
		i, seen := index[t.TechniqueID]
		if !seen {
			index[t.TechniqueID] = len(out)
			out = append(out, t)
			continue
		}
		mergeTechnique(out[i], t)
	}
	return out
}

func mergeTechnique(dst, src *model.Technique) {
	for _, rule := range TechniqueMergeRules {
		switch rule.Field {
		case "tactics":
			dst.Tactics = normalize.Union(dst.Tactics, src.Tactics)
		case "severity":
			dst.Severity = higherSeverity(dst.Severity, src.Severity)
		case "aggregatedFrequency":
			dst.AggregatedFrequency += src.AggregatedFrequency
		case "detectionMethods":
			dst.DetectionMethods = normalize.Union(dst.DetectionMethods, src.DetectionMethods)
		case "mitigationStrategies":
			dst.MitigationStrategies = normalize.Union(dst.MitigationStrategies, src.MitigationStrategies)
		case "orgsReporting":
			dst.OrgsReporting = normalize.Union(dst.OrgsReporting, src.OrgsReporting)
		}
	}
	if dst.Name == "Unknown" && src.Name != "" {
		dst.Name = src.Name
	}
}

// Incidents collapses incidents by declared id.
func (d *Deduper) Incidents(records []*model.Incident) []*model.Incident {
	var out []*model.Incident
	index := make(map[string]int)
	for _, in := range records {
		if in.ID == "" {
			out = append(out, in)
			continue
		}
		i, seen := index[in.ID]
		if !seen {
			index[in.ID] = len(out)
			out = append(out, in)
			continue
		}
		switch d.strategy {
		case StrategyLatest:
			if laterTelemetry(in.TelemetryDate, out[i].TelemetryDate) {
				in.OrgsReporting = normalize.Union(out[i].OrgsReporting, in.OrgsReporting)
				out[i] = in
			} else {
				out[i].OrgsReporting = normalize.Union(out[i].OrgsReporting, in.OrgsReporting)
			}
		default:
			mergeIncident(out[i], in)
		}
	}
	return out
}

func mergeIncident(dst, src *model.Incident) {
	for _, rule := range IncidentMergeRules {
		switch rule.Field {
		case "financialImpact":
			if src.FinancialImpact > dst.FinancialImpact {
				dst.FinancialImpact = src.FinancialImpact
			}
		case "recordsCompromised":
			if src.RecordsCompromised > dst.RecordsCompromised {
				dst.RecordsCompromised = src.RecordsCompromised
			}
		case "operationalImpact":
			if src.OperationalImpact.DowntimeHours > dst.OperationalImpact.DowntimeHours {
				dst.OperationalImpact.DowntimeHours = src.OperationalImpact.DowntimeHours
			}
			if src.OperationalImpact.SystemsAffected > dst.OperationalImpact.SystemsAffected {
				dst.OperationalImpact.SystemsAffected = src.OperationalImpact.SystemsAffected
			}
		case "impactScore":
			if src.ImpactScore > dst.ImpactScore {
				dst.ImpactScore = src.ImpactScore
			}
		case "incidentDate":
			dst.IncidentDate = earliest(dst.IncidentDate, src.IncidentDate)
		case "resolutionDate":
			dst.ResolutionDate = latest(dst.ResolutionDate, src.ResolutionDate)
		case "orgsReporting":
			dst.OrgsReporting = normalize.Union(dst.OrgsReporting, src.OrgsReporting)
		}
	}
}

// Vectors collapses attack vectors by type, always additively.
func (d *Deduper) Vectors(records []*model.AttackVector) []*model.AttackVector {
	var out []*model.AttackVector
	index := make(map[string]int)
	for _, v := range records {
		i, seen := index[v.VectorType]
		if !seen {
			index[v.VectorType] = len(out)
			out = append(out, v)
			continue
		}
		mergeVector(out[i], v)
	}
	return out
}

func mergeVector(dst, src *model.AttackVector) {
	for _, rule := range VectorMergeRules {
		switch rule.Field {
		case "severity":
			dst.Severity = higherSeverity(dst.Severity, src.Severity)
		case "frequency":
			dst.Frequency += src.Frequency
		case "methods":
			dst.Methods = normalize.Union(dst.Methods, src.Methods)
		case "actorsUsing":
			dst.ActorsUsing = normalize.Union(dst.ActorsUsing, src.ActorsUsing)
		case "targetedAssets":
			dst.TargetedAssets = normalize.Union(dst.TargetedAssets, src.TargetedAssets)
		case "orgsReporting":
			dst.OrgsReporting = normalize.Union(dst.OrgsReporting, src.OrgsReporting)
		}
	}
}

var severityRank = map[model.Severity]int{
	model.SeverityLow:      1,
	model.SeverityMedium:   2,
	model.SeverityHigh:     3,
	model.SeverityCritical: 4,
}

func higherSeverity(a, b model.Severity) model.Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// laterTelemetry reports whether candidate has a strictly more recent
// telemetry date than current. A missing or unparseable date never wins.
func laterTelemetry(candidate, current string) bool {
	ct, ok := normalize.ParseTime(candidate)
	if !ok {
		return false
	}
	cur, ok := normalize.ParseTime(current)
	if !ok {
		return true
	}
	return ct.After(cur)
}

// earliest returns whichever of a/b parses to the earlier instant, preferring
// a parseable value over an unparseable one.
func earliest(a, b string) string {
	ta, okA := normalize.ParseTime(a)
	tb, okB := normalize.ParseTime(b)
	switch {
	case okA && okB:
		if tb.Before(ta) {
			return b
		}
		return a
	case okB:
		return b
	default:
		return a
	}
}

func latest(a, b string) string {
	ta, okA := normalize.ParseTime(a)
	tb, okB := normalize.ParseTime(b)
	switch {
	case okA && okB:
		if tb.After(ta) {
			return b
		}
		return a
	case okB:
		return b
	default:
		return a
	}
}
