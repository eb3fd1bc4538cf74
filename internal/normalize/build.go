package normalize

import (
	"github.com/Ashfaaq98/threat-aggregator/internal/model"
)

// Record builders construct canonical entities from validated raw records.
// Every field degrades to its family fallback on bad input; builders never fail.

// BuildActor constructs a ThreatActor from a raw record submitted by org.
func BuildActor(raw map[string]interface{}, org string) *model.ThreatActor {
	a := &model.ThreatActor{
		ID:                AsString(raw["id"]),
		Name:              Name(AsString(raw["name"])),
		Type:              ActorType(AsString(raw["type"])),
		Aliases:           StringSet(AsStringSlice(raw["aliases"])),
		TTPs:              normalizeTTPs(AsStringSlice(raw["ttps"])),
		MalwareUsed:       StringSet(AsStringSlice(raw["malwareUsed"])),
		Infrastructure:    StringSet(AsStringSlice(raw["infrastructure"])),
		Motivation:        AsString(raw["motivation"]),
		Origin:            AsString(raw["origin"]),
		HealthcareTargets: nonNegative(AsInt(raw["healthcareTargets"])),
		FirstSeen:         AsString(raw["firstSeen"]),
		LastSeen:          AsString(raw["lastSeen"]),
		TelemetryDate:     AsString(raw["telemetryDate"]),
		ObservationCount:  1,
		OrgsReporting:     []string{org},
		Extra:             extraFields(raw, actorKnownFields),
	}
	return a
}

// normalizeTTPs uppercases recognizable technique ids and keeps free text as-is.
func normalizeTTPs(values []string) []string {
	var out []string
	for _, v := range values {
		if id := TechniqueID(v); id != "" {
			out = append(out, id)
		} else {
			out = append(out, v)
		}
	}
	return StringSet(out)
}

// BuildMalware constructs a Malware record from a raw record submitted by org.
func BuildMalware(raw map[string]interface{}, org string) *model.Malware {
	m := &model.Malware{
		Name:             Name(AsString(raw["name"])),
		Family:           Name(AsString(raw["family"])),
		Type:             MalwareType(AsString(raw["type"])),
		Capabilities:     StringSet(AsStringSlice(raw["capabilities"])),
		IOCs:             buildIOCs(AsMap(raw["iocs"])),
		AssociatedActors: StringSet(AsStringSlice(raw["associatedActors"])),
		FirstSeen:        AsString(raw["firstSeen"]),
		LastSeen:         AsString(raw["lastSeen"]),
		TelemetryDate:    AsString(raw["telemetryDate"]),
		OrgsReporting:    []string{org},
		Extra:            extraFields(raw, malwareKnownFields),
	}
	return m
}

func buildIOCs(raw map[string]interface{}) model.IOCSet {
	if raw == nil {
		return model.IOCSet{}
	}
	refang := func(values []string) []string {
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, Refang(v))
		}
		return out
	}
	return model.IOCSet{
		Hashes:  StringSet(AsStringSlice(raw["hashes"])),
		Domains: StringSet(refang(AsStringSlice(raw["domains"]))),
		IPs:     StringSet(AsStringSlice(raw["ips"])),
		URLs:    StringSet(refang(AsStringSlice(raw["urls"]))),
	}
}

// BuildTechnique constructs a Technique from a raw record submitted by org.
// A frequency below 1 counts as a single observation.
func BuildTechnique(raw map[string]interface{}, org string) *model.Technique {
	freq := AsInt(raw["frequency"])
	if freq < 1 {
		freq = 1
	}
	t := &model.Technique{
		TechniqueID:          TechniqueID(AsString(raw["techniqueId"])),
		Name:                 Name(AsString(raw["name"])),
		Tactics:              buildTactics(raw["tactic"], raw["tactics"]),
		Severity:             Severity(AsString(raw["severity"])),
		Frequency:            freq,
		ActorID:              AsString(raw["actorId"]),
		DetectionMethods:     StringSet(AsStringSlice(raw["detectionMethods"])),
		MitigationStrategies: StringSet(AsStringSlice(raw["mitigationStrategies"])),
		TelemetryDate:        AsString(raw["telemetryDate"]),
		AggregatedFrequency:  freq,
		OrgsReporting:        []string{org},
		Extra:                extraFields(raw, techniqueKnownFields),
	}
	return t
}

// buildTactics accepts either a delimited string or a list under tactic/tactics.
func buildTactics(single, list interface{}) []string {
	var out []string
	if s := AsString(single); s != "" {
		out = append(out, TacticList(s)...)
	}
	for _, v := range AsStringSlice(list) {
		out = append(out, TacticList(v)...)
	}
	return StringSet(out)
}

// BuildIncident constructs an Incident from a raw record submitted by org.
func BuildIncident(raw map[string]interface{}, org string) *model.Incident {
	op := AsMap(raw["operationalImpact"])
	in := &model.Incident{
		ID:              AsString(raw["id"]),
		Sector:          Sector(AsString(raw["sector"])),
		AttackType:      AttackType(AsString(raw["attackType"])),
		IncidentDate:    AsString(raw["incidentDate"]),
		DiscoveryDate:   AsString(raw["discoveryDate"]),
		ContainmentDate: AsString(raw["containmentDate"]),
		ResolutionDate:  AsString(raw["resolutionDate"]),
		FinancialImpact: nonNegative64(AsInt64(raw["financialImpact"])),
		OperationalImpact: model.OperationalImpact{
			DowntimeHours:   AsFloat(opField(op, "downtime")),
			SystemsAffected: nonNegative(AsInt(opField(op, "systemsAffected"))),
		},
		RecordsCompromised: nonNegative64(AsInt64(raw["recordsCompromised"])),
		PatientCareImpact:  CareImpact(AsString(raw["patientCareImpact"])),
		ActorID:            AsString(raw["actorId"]),
		Actor:              AsString(raw["actor"]),
		TelemetryDate:      AsString(raw["telemetryDate"]),
		OrgsReporting:      []string{org},
		Extra:              extraFields(raw, incidentKnownFields),
	}
	if in.OperationalImpact.DowntimeHours < 0 {
		in.OperationalImpact.DowntimeHours = 0
	}
	return in
}

func opField(op map[string]interface{}, key string) interface{} {
	if op == nil {
		return nil
	}
	return op[key]
}

// BuildVector constructs an AttackVector from a raw record submitted by org.
func BuildVector(raw map[string]interface{}, org string) *model.AttackVector {
	v := &model.AttackVector{
		VectorType:     VectorType(AsString(raw["vectorType"])),
		Frequency:      nonNegative(AsInt(raw["frequency"])),
		Severity:       Severity(AsString(raw["severity"])),
		Methods:        StringSet(AsStringSlice(raw["methods"])),
		ActorsUsing:    StringSet(AsStringSlice(raw["actorsUsing"])),
		TargetedAssets: StringSet(AsStringSlice(raw["targetedAssets"])),
		TelemetryDate:  AsString(raw["telemetryDate"]),
		OrgsReporting:  []string{org},
		Extra:          extraFields(raw, vectorKnownFields),
	}
	return v
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func nonNegative64(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

var actorKnownFields = fieldSet("id", "name", "type", "aliases", "ttps", "malwareUsed",
	"infrastructure", "motivation", "origin", "healthcareTargets", "firstSeen",
	"lastSeen", "telemetryDate")

var malwareKnownFields = fieldSet("name", "family", "type", "capabilities", "iocs",
	"associatedActors", "firstSeen", "lastSeen", "telemetryDate")

var techniqueKnownFields = fieldSet("techniqueId", "name", "tactic", "tactics",
	"severity", "frequency", "actorId", "detectionMethods", "mitigationStrategies",
	"telemetryDate")

var incidentKnownFields = fieldSet("id", "sector", "attackType", "incidentDate",
	"discoveryDate", "containmentDate", "resolutionDate", "financialImpact",
	"operationalImpact", "recordsCompromised", "patientCareImpact", "actorId",
	"actor", "telemetryDate")

var vectorKnownFields = fieldSet("vectorType", "frequency", "severity", "methods",
	"actorsUsing", "targetedAssets", "telemetryDate")

func fieldSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// extraFields collects submitted fields outside the shared contract so they
// survive the pipeline without being conflated with validated fields.
func extraFields(raw map[string]interface{}, known map[string]bool) map[string]interface{} {
	var extra map[string]interface{}
	for k, v := range raw {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]interface{})
		}
		extra[k] = v
	}
	return extra
}
