package normalize

import (
	"regexp"
	"strings"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
)

// Synonym tables map the free-form values organizations submit onto the shared
// vocabulary. Lookup is case-insensitive; unmatched input falls back to the
// field's default value, never to the raw input.

var actorTypeSynonyms = map[string]model.ActorType{
	"apt":                        model.ActorTypeAPT,
	"nation-state":               model.ActorTypeAPT,
	"nation state":               model.ActorTypeAPT,
	"state-sponsored":            model.ActorTypeAPT,
	"state sponsored":            model.ActorTypeAPT,
	"advanced persistent threat": model.ActorTypeAPT,
	"ransomware":                 model.ActorTypeRansomware,
	"ransomware group":           model.ActorTypeRansomware,
	"ransomware gang":            model.ActorTypeRansomware,
	"raas":                       model.ActorTypeRansomware,
	"cybercrime":                 model.ActorTypeCybercrime,
	"cybercriminal":              model.ActorTypeCybercrime,
	"criminal":                   model.ActorTypeCybercrime,
	"ecrime":                     model.ActorTypeCybercrime,
	"financially motivated":      model.ActorTypeCybercrime,
	"hacktivist":                 model.ActorTypeHacktivist,
	"hacktivism":                 model.ActorTypeHacktivist,
	"insider":                    model.ActorTypeInsider,
	"insider threat":             model.ActorTypeInsider,
	"script-kiddie":              model.ActorTypeScriptKiddie,
	"script kiddie":              model.ActorTypeScriptKiddie,
	"opportunistic":              model.ActorTypeScriptKiddie,
}

var malwareTypeSynonyms = map[string]model.MalwareType{
	"ransomware":           model.MalwareTypeRansomware,
	"raas":                 model.MalwareTypeRansomware,
	"crypto-locker":        model.MalwareTypeRansomware,
	"trojan":               model.MalwareTypeTrojan,
	"banking trojan":       model.MalwareTypeTrojan,
	"backdoor":             model.MalwareTypeBackdoor,
	"implant":              model.MalwareTypeBackdoor,
	"infostealer":          model.MalwareTypeInfostealer,
	"info-stealer":         model.MalwareTypeInfostealer,
	"stealer":              model.MalwareTypeInfostealer,
	"credential stealer":   model.MalwareTypeInfostealer,
	"wiper":                model.MalwareTypeWiper,
	"worm":                 model.MalwareTypeWorm,
	"loader":               model.MalwareTypeLoader,
	"dropper":              model.MalwareTypeLoader,
	"downloader":           model.MalwareTypeLoader,
	"rat":                  model.MalwareTypeRAT,
	"remote access trojan": model.MalwareTypeRAT,
}

var sectorSynonyms = map[string]model.Sector{
	"hospital":         model.SectorHospital,
	"hospitals":        model.SectorHospital,
	"hospital system":  model.SectorHospital,
	"health system":    model.SectorHospital,
	"clinic":           model.SectorClinic,
	"clinics":          model.SectorClinic,
	"outpatient":       model.SectorClinic,
	"pharmaceutical":   model.SectorPharma,
	"pharma":           model.SectorPharma,
	"pharmacy":         model.SectorPharma,
	"health-insurance": model.SectorInsurance,
	"health insurance": model.SectorInsurance,
	"insurance":        model.SectorInsurance,
	"payer":            model.SectorInsurance,
	"medical-device":   model.SectorMedicalDevice,
	"medical device":   model.SectorMedicalDevice,
	"medical devices":  model.SectorMedicalDevice,
	"medtech":          model.SectorMedicalDevice,
	"laboratory":       model.SectorLaboratory,
	"lab":              model.SectorLaboratory,
	"diagnostics":      model.SectorLaboratory,
	"public-health":    model.SectorPublicHealth,
	"public health":    model.SectorPublicHealth,
}

var attackTypeSynonyms = map[string]model.AttackType{
	"ransomware":        model.AttackTypeRansomware,
	"ransomware attack": model.AttackTypeRansomware,
	"extortion":         model.AttackTypeRansomware,
	"phishing":          model.AttackTypePhishing,
	"spearphishing":     model.AttackTypePhishing,
	"spear-phishing":    model.AttackTypePhishing,
	"bec":               model.AttackTypePhishing,
	"data-breach":       model.AttackTypeDataBreach,
	"data breach":       model.AttackTypeDataBreach,
	"breach":            model.AttackTypeDataBreach,
	"exfiltration":      model.AttackTypeDataBreach,
	"ddos":              model.AttackTypeDDoS,
	"dos":               model.AttackTypeDDoS,
	"denial of service": model.AttackTypeDDoS,
	"supply-chain":      model.AttackTypeSupplyChain,
	"supply chain":      model.AttackTypeSupplyChain,
	"third-party":       model.AttackTypeSupplyChain,
	"third party":       model.AttackTypeSupplyChain,
	"vendor compromise": model.AttackTypeSupplyChain,
	"insider":           model.AttackTypeInsider,
	"insider threat":    model.AttackTypeInsider,
	"malware":           model.AttackTypeMalware,
	"malware infection": model.AttackTypeMalware,
}

var severitySynonyms = map[string]model.Severity{
	"critical": model.SeverityCritical,
	"crit":     model.SeverityCritical,
	"severe":   model.SeverityCritical,
	"high":     model.SeverityHigh,
	"major":    model.SeverityHigh,
	"medium":   model.SeverityMedium,
	"moderate": model.SeverityMedium,
	"med":      model.SeverityMedium,
	"low":      model.SeverityLow,
	"minor":    model.SeverityLow,
	"info":     model.SeverityLow,
}

var careImpactSynonyms = map[string]model.CareImpact{
	"critical":  model.CareImpactCritical,
	"severe":    model.CareImpactSevere,
	"moderate":  model.CareImpactModerate,
	"minimal":   model.CareImpactMinimal,
	"minor":     model.CareImpactMinimal,
	"none":      model.CareImpactNone,
	"no impact": model.CareImpactNone,
}

// ActorType maps raw input to the actor-type vocabulary, defaulting to unknown.
func ActorType(raw string) model.ActorType {
	if t, ok := actorTypeSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return model.ActorTypeUnknown
}

// MalwareType maps raw input to the malware-type vocabulary, defaulting to unknown.
func MalwareType(raw string) model.MalwareType {
	if t, ok := malwareTypeSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return model.MalwareTypeUnknown
}

// Sector maps raw input to the sector vocabulary, defaulting to other.
func Sector(raw string) model.Sector {
	if s, ok := sectorSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return model.SectorOther
}

// AttackType maps raw input to the attack-type vocabulary, defaulting to other.
func AttackType(raw string) model.AttackType {
	if t, ok := attackTypeSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return model.AttackTypeOther
}

// Severity maps raw input to the severity scale, defaulting to medium.
func Severity(raw string) model.Severity {
	if s, ok := severitySynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return model.SeverityMedium
}

// CareImpact maps raw input to the patient-care impact scale, defaulting to unknown.
func CareImpact(raw string) model.CareImpact {
	if c, ok := careImpactSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return model.CareImpactUnknown
}

var (
	nameStripRe    = regexp.MustCompile(`[^\w\s.\-]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	techniqueIDRe  = regexp.MustCompile(`T\d{4}(\.\d{3})?`)
	vectorCleanRe  = regexp.MustCompile(`[^a-z0-9]+`)
	defangReplacer = strings.NewReplacer("[.]", ".", "(.)", ".", "[:]", ":")
)

// Name cleans a display name: trim, collapse whitespace runs, strip characters
// outside word/whitespace/hyphen/period. An empty result becomes "Unknown".
func Name(raw string) string {
	s := nameStripRe.ReplaceAllString(raw, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return s
}

// TechniqueID extracts the first ATT&CK technique id (T#### or T####.###)
// from raw input, uppercased. Returns "" when none is present.
func TechniqueID(raw string) string {
	return techniqueIDRe.FindString(strings.ToUpper(strings.TrimSpace(raw)))
}

// Tactic matches a single token against the canonical tactic names.
// Returns "" for unrecognized tokens.
func Tactic(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.ReplaceAll(token, " ", "-")
	token = strings.ReplaceAll(token, "_", "-")
	for _, t := range model.Tactics {
		if token == t {
			return t
		}
	}
	return ""
}

// TacticList splits raw on comma/semicolon and keeps the canonical matches,
// de-duplicated. Unrecognized tokens are dropped.
func TacticList(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		if t := Tactic(tok); t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// VectorType normalizes an attack-vector type to snake_case.
func VectorType(raw string) string {
	s := vectorCleanRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// Refang restores defanged bracket notation in an indicator
// (e.g. example[.]com -> example.com).
func Refang(raw string) string {
	return defangReplacer.Replace(raw)
}

// StringSet trims entries, drops empties, and de-duplicates case-insensitively
// while preserving first-seen order and casing.
func StringSet(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// Union merges b into a with set semantics (case-insensitive).
func Union(a, b []string) []string {
	return StringSet(append(append([]string{}, a...), b...))
}

// ContainsFold reports whether set contains value, comparing case-insensitively.
func ContainsFold(set []string, value string) bool {
	for _, v := range set {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}
