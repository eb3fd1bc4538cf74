package model

// DataType identifies which entity pipeline a submission's records run through.
type DataType string

const (
	DataTypeThreatActors  DataType = "threat-actors"
	DataTypeMalware       DataType = "malware"
	DataTypeTechniques    DataType = "techniques"
	DataTypeIncidents     DataType = "incidents"
	DataTypeAttackVectors DataType = "attack-vectors"
)

// KnownDataTypes lists the valid submission data types in dispatch order.
var KnownDataTypes = []DataType{
	DataTypeThreatActors,
	DataTypeMalware,
	DataTypeTechniques,
	DataTypeIncidents,
	DataTypeAttackVectors,
}

// IsKnown reports whether dt is a recognized data type.
func (dt DataType) IsKnown() bool {
	for _, k := range KnownDataTypes {
		if dt == k {
			return true
		}
	}
	return false
}

// ActorType classifies a threat actor.
type ActorType string

const (
	ActorTypeAPT          ActorType = "apt"
	ActorTypeRansomware   ActorType = "ransomware"
	ActorTypeCybercrime   ActorType = "cybercrime"
	ActorTypeHacktivist   ActorType = "hacktivist"
	ActorTypeInsider      ActorType = "insider"
	ActorTypeScriptKiddie ActorType = "script-kiddie"
	ActorTypeUnknown      ActorType = "unknown"
)

// MalwareType classifies a malware family.
type MalwareType string

const (
	MalwareTypeRansomware  MalwareType = "ransomware"
	MalwareTypeTrojan      MalwareType = "trojan"
	MalwareTypeBackdoor    MalwareType = "backdoor"
	MalwareTypeInfostealer MalwareType = "infostealer"
	MalwareTypeWiper       MalwareType = "wiper"
	MalwareTypeWorm        MalwareType = "worm"
	MalwareTypeLoader      MalwareType = "loader"
	MalwareTypeRAT         MalwareType = "rat"
	MalwareTypeUnknown     MalwareType = "unknown"
)

// Sector is the healthcare sub-sector an incident targeted.
type Sector string

const (
	SectorHospital      Sector = "hospital"
	SectorClinic        Sector = "clinic"
	SectorPharma        Sector = "pharmaceutical"
	SectorInsurance     Sector = "health-insurance"
	SectorMedicalDevice Sector = "medical-device"
	SectorLaboratory    Sector = "laboratory"
	SectorPublicHealth  Sector = "public-health"
	SectorOther         Sector = "other"
)

// AttackType classifies the nature of an incident.
type AttackType string

const (
	AttackTypeRansomware  AttackType = "ransomware"
	AttackTypePhishing    AttackType = "phishing"
	AttackTypeDataBreach  AttackType = "data-breach"
	AttackTypeDDoS        AttackType = "ddos"
	AttackTypeSupplyChain AttackType = "supply-chain"
	AttackTypeInsider     AttackType = "insider"
	AttackTypeMalware     AttackType = "malware"
	AttackTypeOther       AttackType = "other"
)

// Severity is the shared four-level severity scale.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// CareImpact describes the effect of an incident on patient care.
type CareImpact string

const (
	CareImpactCritical CareImpact = "critical"
	CareImpactSevere   CareImpact = "severe"
	CareImpactModerate CareImpact = "moderate"
	CareImpactMinimal  CareImpact = "minimal"
	CareImpactNone     CareImpact = "none"
	CareImpactUnknown  CareImpact = "unknown"
)

// Tactics holds the twelve canonical MITRE ATT&CK enterprise tactic names.
var Tactics = []string{
	"initial-access",
	"execution",
	"persistence",
	"privilege-escalation",
	"defense-evasion",
	"credential-access",
	"discovery",
	"lateral-movement",
	"collection",
	"command-and-control",
	"exfiltration",
	"impact",
}

// Submission is the per-file envelope an organization submits.
type Submission struct {
	Metadata SubmissionMetadata       `json:"metadata"`
	DataType DataType                 `json:"dataType"`
	Data     []map[string]interface{} `json:"data"`
}

// SubmissionMetadata carries provenance for a submission file.
type SubmissionMetadata struct {
	Version         string `json:"version"`
	Org             string `json:"org"`
	SubmissionDate  string `json:"submissionDate"`
	ReportingPeriod string `json:"reportingPeriod,omitempty"`
	Classification  string `json:"classification,omitempty"`
	RecordCount     *int   `json:"recordCount,omitempty"`
}

// ThreatActor is a normalized threat-actor record.
type ThreatActor struct {
	ID                string    `json:"id,omitempty"`
	Name              string    `json:"name"`
	Type              ActorType `json:"type"`
	Aliases           []string  `json:"aliases"`
	TTPs              []string  `json:"ttps"`
	MalwareUsed       []string  `json:"malwareUsed"`
	Infrastructure    []string  `json:"infrastructure,omitempty"`
	Motivation        string    `json:"motivation,omitempty"`
	Origin            string    `json:"origin,omitempty"`
	HealthcareTargets int       `json:"healthcareTargets"`
	FirstSeen         string    `json:"firstSeen,omitempty"`
	LastSeen          string    `json:"lastSeen,omitempty"`
	TelemetryDate     string    `json:"telemetryDate,omitempty"`

	Confidence       int      `json:"confidence"`
	ObservationCount int      `json:"observationCount"`
	OrgsReporting    []string `json:"orgsReporting"`
	Period           string   `json:"period,omitempty"`

	// Fields present in the submission but outside the shared contract.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// IOCSet groups indicators of compromise by kind.
type IOCSet struct {
	Hashes  []string `json:"hashes,omitempty"`
	Domains []string `json:"domains,omitempty"`
	IPs     []string `json:"ips,omitempty"`
	URLs    []string `json:"urls,omitempty"`
}

// Malware is a normalized malware record.
type Malware struct {
	Name             string      `json:"name"`
	Family           string      `json:"family"`
	Type             MalwareType `json:"type"`
	Capabilities     []string    `json:"capabilities"`
	IOCs             IOCSet      `json:"iocs"`
	AssociatedActors []string    `json:"associatedActors"`
	FirstSeen        string      `json:"firstSeen,omitempty"`
	LastSeen         string      `json:"lastSeen,omitempty"`
	TelemetryDate    string      `json:"telemetryDate,omitempty"`

	Prevalence    float64  `json:"prevalence"`
	OrgsReporting []string `json:"orgsReporting"`
	Period        string   `json:"period,omitempty"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Technique is a normalized ATT&CK technique observation.
// TechniqueID is empty when the submitted id did not match T####(.###).
type Technique struct {
	TechniqueID          string   `json:"techniqueId,omitempty"`
	Name                 string   `json:"name"`
	Tactics              []string `json:"tactics"`
	Severity             Severity `json:"severity"`
	Frequency            int      `json:"frequency"`
	ActorID              string   `json:"actorId,omitempty"`
	DetectionMethods     []string `json:"detectionMethods,omitempty"`
	MitigationStrategies []string `json:"mitigationStrategies,omitempty"`
	TelemetryDate        string   `json:"telemetryDate,omitempty"`

	AggregatedFrequency int      `json:"aggregatedFrequency"`
	PrevalenceScore     float64  `json:"prevalenceScore"`
	OrgsReporting       []string `json:"orgsReporting"`
	Period              string   `json:"period,omitempty"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// OperationalImpact quantifies the operational disruption of an incident.
type OperationalImpact struct {
	DowntimeHours   float64 `json:"downtime"`
	SystemsAffected int     `json:"systemsAffected"`
}

// Incident is a normalized incident record.
type Incident struct {
	ID                 string            `json:"id"`
	Sector             Sector            `json:"sector"`
	AttackType         AttackType        `json:"attackType"`
	IncidentDate       string            `json:"incidentDate,omitempty"`
	DiscoveryDate      string            `json:"discoveryDate,omitempty"`
	ContainmentDate    string            `json:"containmentDate,omitempty"`
	ResolutionDate     string            `json:"resolutionDate,omitempty"`
	FinancialImpact    int64             `json:"financialImpact"`
	OperationalImpact  OperationalImpact `json:"operationalImpact"`
	RecordsCompromised int64             `json:"recordsCompromised"`
	PatientCareImpact  CareImpact        `json:"patientCareImpact"`
	ActorID            string            `json:"actorId,omitempty"`
	Actor              string            `json:"actor,omitempty"`
	TelemetryDate      string            `json:"telemetryDate,omitempty"`

	ImpactScore   int      `json:"impactScore"`
	DurationHours *int     `json:"duration"`
	OrgsReporting []string `json:"orgsReporting"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// AttackVector is a normalized attack-vector record keyed by its snake-case type.
type AttackVector struct {
	VectorType     string   `json:"vectorType"`
	Frequency      int      `json:"frequency"`
	Severity       Severity `json:"severity"`
	Methods        []string `json:"methods"`
	ActorsUsing    []string `json:"actorsUsing"`
	TargetedAssets []string `json:"targetedAssets"`
	TelemetryDate  string   `json:"telemetryDate,omitempty"`

	RiskScore       int      `json:"riskScore"`
	PrevalenceScore float64  `json:"prevalenceScore"`
	OrgsReporting   []string `json:"orgsReporting"`
	Period          string   `json:"period,omitempty"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// IncidentPeriodGroup is the aggregated incident output for one reporting period.
type IncidentPeriodGroup struct {
	Period                   string         `json:"period"`
	TotalIncidents           int            `json:"totalIncidents"`
	ByAttackType             map[string]int `json:"byAttackType"`
	BySector                 map[string]int `json:"bySector"`
	BySeverity               map[string]int `json:"bySeverity"`
	TotalRecordsCompromised  int64          `json:"totalRecordsCompromised"`
	TotalFinancialImpact     int64          `json:"totalFinancialImpact"`
	AvgDowntimeHours         float64        `json:"avgDowntimeHours"`
	CriticalPatientCareCount int            `json:"criticalPatientCareCount"`
	Incidents                []*Incident    `json:"incidents"`
}

// ActorMapping links a threat actor to its related entities.
type ActorMapping struct {
	ActorID    string   `json:"actorId,omitempty"`
	ActorName  string   `json:"actorName"`
	Malware    []string `json:"malware"`
	Techniques []string `json:"techniques"`
	Incidents  []string `json:"incidents"`
}

// Dataset holds the finalized entity collections for one pipeline run.
type Dataset struct {
	Actors     []*ThreatActor
	Malware    []*Malware
	Techniques []*Technique
	Incidents  []*Incident
	Vectors    []*AttackVector
}

// Counts returns per-entity record counts keyed by data type.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		string(DataTypeThreatActors):  len(d.Actors),
		string(DataTypeMalware):       len(d.Malware),
		string(DataTypeTechniques):    len(d.Techniques),
		string(DataTypeIncidents):     len(d.Incidents),
		string(DataTypeAttackVectors): len(d.Vectors),
	}
}
