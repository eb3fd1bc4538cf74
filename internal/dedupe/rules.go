package dedupe

// Merge rules are declared as explicit per-entity tables so the merge
// behavior of every field is inspectable and testable on its own, instead of
// being buried in ad hoc per-field code.

// RuleKind names how a field combines when two same-key records merge.
type RuleKind string

const (
	RuleUnion          RuleKind = "union"
	RuleMax            RuleKind = "max"
	RuleSum            RuleKind = "sum"
	RuleEarliest       RuleKind = "earliest"
	RuleLatest         RuleKind = "latest"
	RuleKeepExisting   RuleKind = "keepExisting"
	RuleHigherSeverity RuleKind = "higherSeverity"
)

// FieldRule binds one entity field to its merge behavior.
type FieldRule struct {
	Field string
	Kind  RuleKind
	// AggregateKind overrides Kind under the aggregate strategy, when set.
	AggregateKind RuleKind
}

// ActorMergeRules is the merge specification for threat actors.
var ActorMergeRules = []FieldRule{
	{Field: "name", Kind: RuleKeepExisting},
	{Field: "type", Kind: RuleKeepExisting},
	{Field: "aliases", Kind: RuleUnion},
	{Field: "ttps", Kind: RuleUnion},
	{Field: "malwareUsed", Kind: RuleUnion},
	{Field: "infrastructure", Kind: RuleUnion},
	{Field: "healthcareTargets", Kind: RuleMax, AggregateKind: RuleSum},
	{Field: "confidence", Kind: RuleMax},
	{Field: "firstSeen", Kind: RuleEarliest},
	{Field: "lastSeen", Kind: RuleLatest},
	{Field: "orgsReporting", Kind: RuleUnion},
	{Field: "observationCount", Kind: RuleKeepExisting, AggregateKind: RuleSum},
}

// MalwareMergeRules is the merge specification for malware records.
var MalwareMergeRules = []FieldRule{
	{Field: "name", Kind: RuleKeepExisting},
	{Field: "family", Kind: RuleKeepExisting},
	{Field: "type", Kind: RuleKeepExisting},
	{Field: "capabilities", Kind: RuleUnion},
	{Field: "iocs", Kind: RuleUnion},
	{Field: "associatedActors", Kind: RuleUnion},
	{Field: "firstSeen", Kind: RuleEarliest},
	{Field: "lastSeen", Kind: RuleLatest},
	{Field: "orgsReporting", Kind: RuleUnion},
}

// TechniqueMergeRules is the merge specification for techniques. Techniques
// always aggregate frequency regardless of the configured strategy.
var TechniqueMergeRules = []FieldRule{
	{Field: "techniqueId", Kind: RuleKeepExisting},
	{Field: "name", Kind: RuleKeepExisting},
	{Field: "tactics", Kind: RuleUnion},
	{Field: "severity", Kind: RuleHigherSeverity},
	{Field: "aggregatedFrequency", Kind: RuleSum},
	{Field: "detectionMethods", Kind: RuleUnion},
	{Field: "mitigationStrategies", Kind: RuleUnion},
	{Field: "orgsReporting", Kind: RuleUnion},
}

// IncidentMergeRules is the merge specification for incidents.
var IncidentMergeRules = []FieldRule{
	{Field: "id", Kind: RuleKeepExisting},
	{Field: "sector", Kind: RuleKeepExisting},
	{Field: "attackType", Kind: RuleKeepExisting},
	{Field: "financialImpact", Kind: RuleMax},
	{Field: "recordsCompromised", Kind: RuleMax},
	{Field: "operationalImpact", Kind: RuleMax},
	{Field: "impactScore", Kind: RuleMax},
	{Field: "incidentDate", Kind: RuleEarliest},
	{Field: "resolutionDate", Kind: RuleLatest},
	{Field: "orgsReporting", Kind: RuleUnion},
}

// VectorMergeRules is the merge specification for attack vectors. Vectors
// always aggregate frequency regardless of the configured strategy.
var VectorMergeRules = []FieldRule{
	{Field: "vectorType", Kind: RuleKeepExisting},
	{Field: "severity", Kind: RuleHigherSeverity},
	{Field: "frequency", Kind: RuleSum},
	{Field: "methods", Kind: RuleUnion},
	{Field: "actorsUsing", Kind: RuleUnion},
	{Field: "targetedAssets", Kind: RuleUnion},
	{Field: "orgsReporting", Kind: RuleUnion},
}

// ruleFor returns the effective rule kind for a field under the strategy.
func (r FieldRule) effective(aggregate bool) RuleKind {
	if aggregate && r.AggregateKind != "" {
		return r.AggregateKind
	}
	return r.Kind
}
