package normalize

import (
	"reflect"
	"testing"
	"time"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
)

func TestActorTypeSynonyms(t *testing.T) {
	cases := []struct {
		in   string
		want model.ActorType
	}{
		{"APT", model.ActorTypeAPT},
		{"Nation-State", model.ActorTypeAPT},
		{"  state sponsored  ", model.ActorTypeAPT},
		{"RaaS", model.ActorTypeRansomware},
		{"ransomware gang", model.ActorTypeRansomware},
		{"eCrime", model.ActorTypeCybercrime},
		{"hacktivism", model.ActorTypeHacktivist},
		{"insider threat", model.ActorTypeInsider},
		{"opportunistic", model.ActorTypeScriptKiddie},
		{"martian", model.ActorTypeUnknown},
		{"", model.ActorTypeUnknown},
	}
	for _, c := range cases {
		if got := ActorType(c.in); got != c.want {
			t.Errorf("ActorType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSeverityDefaultsToMedium(t *testing.T) {
	if got := Severity("catastrophic"); got != model.SeverityMedium {
		t.Errorf("Severity fallback = %q, want medium", got)
	}
	if got := Severity("Crit"); got != model.SeverityCritical {
		t.Errorf("Severity(Crit) = %q, want critical", got)
	}
}

func TestSectorDefaultsToOther(t *testing.T) {
	if got := Sector("veterinary"); got != model.SectorOther {
		t.Errorf("Sector fallback = %q, want other", got)
	}
	if got := Sector("Health System"); got != model.SectorHospital {
		t.Errorf("Sector(Health System) = %q, want hospital", got)
	}
}

func TestName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  LockBit   3.0  ", "LockBit 3.0"},
		{"APT-41", "APT-41"},
		{"Evil<Corp>!", "EvilCorp"},
		{"", "Unknown"},
		{"@#$%", "Unknown"},
	}
	for _, c := range cases {
		if got := Name(c.in); got != c.want {
			t.Errorf("Name(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTechniqueID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"t1566.001", "T1566.001"},
		{"T1486", "T1486"},
		{"ATT&CK T1078 valid accounts", "T1078"},
		{"phishing", ""},
		{"T15", ""},
	}
	for _, c := range cases {
		if got := TechniqueID(c.in); got != c.want {
			t.Errorf("TechniqueID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTacticList(t *testing.T) {
	got := TacticList("Initial Access; lateral_movement, impact, warp-drive, impact")
	want := []string{"initial-access", "lateral-movement", "impact"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TacticList = %v, want %v", got, want)
	}
}

func TestVectorType(t *testing.T) {
	if got := VectorType("Phishing Email"); got != "phishing_email" {
		t.Errorf("VectorType = %q", got)
	}
	if got := VectorType("  "); got != "unknown" {
		t.Errorf("VectorType empty = %q, want unknown", got)
	}
}

func TestRefang(t *testing.T) {
	if got := Refang("evil[.]example[.]com"); got != "evil.example.com" {
		t.Errorf("Refang = %q", got)
	}
	if got := Refang("hxxp[:]//bad(.)site"); got != "hxxp://bad.site" {
		t.Errorf("Refang = %q", got)
	}
}

func TestStringSet(t *testing.T) {
	got := StringSet([]string{"LockBit", " lockbit ", "", "BlackCat", "LOCKBIT"})
	want := []string{"LockBit", "BlackCat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StringSet = %v, want %v", got, want)
	}
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want string
	}{
		{"2025-01-15T10:30:00Z", true, "2025-01-15"},
		{"2025-01-15", true, "2025-01-15"},
		{"2025/01/15", true, "2025-01-15"},
		{"1736937000", true, "2025-01-15"},
		{"1736937000000", true, "2025-01-15"},
		{"not-a-date", false, ""},
		{"", false, ""},
	}
	for _, c := range cases {
		got, ok := ParseTime(c.in)
		if ok != c.ok {
			t.Errorf("ParseTime(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && got.UTC().Format("2006-01-02") != c.want {
			t.Errorf("ParseTime(%q) = %s, want %s", c.in, got.UTC().Format("2006-01-02"), c.want)
		}
	}
}

func TestParseTimeRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got, ok := ParseTime(now.Format(time.RFC3339))
	if !ok || !got.Equal(now) {
		t.Errorf("ParseTime round trip = %v ok=%v", got, ok)
	}
}

func TestBuildActor(t *testing.T) {
	raw := map[string]interface{}{
		"name":              "  LockBit  ",
		"type":              "RaaS",
		"aliases":           []interface{}{"LockBit 3.0", "lockbit 3.0"},
		"ttps":              []interface{}{"t1486", "living off the land"},
		"healthcareTargets": float64(12),
		"firstSeen":         "2023-01-01",
		"customNotes":       "seen on forum",
	}
	a := BuildActor(raw, "org-alpha")
	if a.Name != "LockBit" {
		t.Errorf("Name = %q", a.Name)
	}
	if a.Type != model.ActorTypeRansomware {
		t.Errorf("Type = %q", a.Type)
	}
	if !reflect.DeepEqual(a.Aliases, []string{"LockBit 3.0"}) {
		t.Errorf("Aliases = %v", a.Aliases)
	}
	if !reflect.DeepEqual(a.TTPs, []string{"T1486", "living off the land"}) {
		t.Errorf("TTPs = %v", a.TTPs)
	}
	if a.HealthcareTargets != 12 {
		t.Errorf("HealthcareTargets = %d", a.HealthcareTargets)
	}
	if a.ObservationCount != 1 || !reflect.DeepEqual(a.OrgsReporting, []string{"org-alpha"}) {
		t.Errorf("observation bookkeeping wrong: count=%d orgs=%v", a.ObservationCount, a.OrgsReporting)
	}
	if a.Extra["customNotes"] != "seen on forum" {
		t.Errorf("Extra = %v", a.Extra)
	}
}

func TestBuildTechniqueFrequencyFloor(t *testing.T) {
	tech := BuildTechnique(map[string]interface{}{
		"techniqueId": "t1566.001",
		"name":        "Spearphishing Attachment",
	}, "org-a")
	if tech.Frequency != 1 || tech.AggregatedFrequency != 1 {
		t.Errorf("frequency floor = %d/%d, want 1/1", tech.Frequency, tech.AggregatedFrequency)
	}
	if tech.TechniqueID != "T1566.001" {
		t.Errorf("TechniqueID = %q", tech.TechniqueID)
	}
}

func TestBuildIncidentClampsNegatives(t *testing.T) {
	in := BuildIncident(map[string]interface{}{
		"id":              "INC-1",
		"financialImpact": float64(-500),
		"operationalImpact": map[string]interface{}{
			"downtime":        float64(-4),
			"systemsAffected": float64(-2),
		},
	}, "org-a")
	if in.FinancialImpact != 0 {
		t.Errorf("FinancialImpact = %d", in.FinancialImpact)
	}
	if in.OperationalImpact.DowntimeHours != 0 || in.OperationalImpact.SystemsAffected != 0 {
		t.Errorf("OperationalImpact = %+v", in.OperationalImpact)
	}
}

func TestBuildMalwareRefangsIOCs(t *testing.T) {
	m := BuildMalware(map[string]interface{}{
		"name":   "Ryuk",
		"family": "Ryuk",
		"type":   "crypto-locker",
		"iocs": map[string]interface{}{
			"domains": []interface{}{"payload[.]evil[.]net"},
			"hashes":  []interface{}{"abc123"},
		},
	}, "org-b")
	if m.Type != model.MalwareTypeRansomware {
		t.Errorf("Type = %q", m.Type)
	}
	if !reflect.DeepEqual(m.IOCs.Domains, []string{"payload.evil.net"}) {
		t.Errorf("Domains = %v", m.IOCs.Domains)
	}
}
