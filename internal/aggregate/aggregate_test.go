package aggregate

import (
	"testing"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	if err != nil || p != PeriodMonthly {
		t.Errorf("default period = %q err=%v, want monthly", p, err)
	}
	p, err = ParsePeriod(" Weekly ")
	if err != nil || p != PeriodWeekly {
		t.Errorf("ParsePeriod(Weekly) = %q err=%v", p, err)
	}
	if _, err = ParsePeriod("fortnightly"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestPeriodKey(t *testing.T) {
	cases := []struct {
		ts     string
		period Period
		want   string
	}{
		{"2025-01-05T10:00:00Z", PeriodDaily, "2025-01-05"},
		{"2025-01-05", PeriodMonthly, "2025-01"},
		{"2025-01-05", PeriodQuarterly, "2025-Q1"},
		{"2025-11-20", PeriodQuarterly, "2025-Q4"},
		{"2025-06-15", PeriodYearly, "2025"},
		// ISO week edges: Jan 1 2025 is a Wednesday in week 1;
		// Dec 29 2024 is a Sunday still in 2024-W52.
		{"2025-01-01", PeriodWeekly, "2025-W01"},
		{"2024-12-29", PeriodWeekly, "2024-W52"},
		{"2024-12-30", PeriodWeekly, "2025-W01"},
		{"garbage", PeriodMonthly, "unknown"},
		{"", PeriodDaily, "unknown"},
	}
	for _, c := range cases {
		if got := PeriodKey(c.ts, c.period); got != c.want {
			t.Errorf("PeriodKey(%q, %s) = %q, want %q", c.ts, c.period, got, c.want)
		}
	}
}

func TestPeriodKeyIsPure(t *testing.T) {
	a := PeriodKey("2025-03-14", PeriodWeekly)
	b := PeriodKey("2025-03-14", PeriodWeekly)
	if a != b {
		t.Errorf("PeriodKey not deterministic: %q vs %q", a, b)
	}
}

func TestActorsSortAndPeriod(t *testing.T) {
	actors := []*model.ThreatActor{
		{Name: "B", HealthcareTargets: 2, Confidence: 90, TelemetryDate: "2025-01-10"},
		{Name: "A", HealthcareTargets: 9, Confidence: 60, TelemetryDate: "2025-01-12"},
		{Name: "C", HealthcareTargets: 2, Confidence: 95, LastSeen: "2025-02-01"},
	}
	out := New(PeriodMonthly).Actors(actors)
	if out[0].Name != "A" || out[1].Name != "C" || out[2].Name != "B" {
		t.Errorf("sort order = %s,%s,%s", out[0].Name, out[1].Name, out[2].Name)
	}
	if out[0].Period != "2025-01" {
		t.Errorf("period = %q", out[0].Period)
	}
	// telemetry absent: lastSeen drives the bucket
	if out[1].Period != "2025-02" {
		t.Errorf("lastSeen fallback period = %q", out[1].Period)
	}
}

func TestMalwarePrevalence(t *testing.T) {
	records := []*model.Malware{
		{Name: "LockBit 3.0", Family: "LockBit"},
		{Name: "LockBit 3.0", Family: "LockBit Green"},
		{Name: "Ryuk", Family: "Ryuk"},
		{Name: "Qakbot", Family: "Qakbot"},
	}
	out := New(PeriodMonthly).Malware(records)
	if out[0].Prevalence != 50 {
		t.Errorf("LockBit prevalence = %v, want 50", out[0].Prevalence)
	}
	if out[2].Prevalence != 25 {
		t.Errorf("Ryuk prevalence = %v, want 25", out[2].Prevalence)
	}
}

func TestTechniquesPrevalenceAndSort(t *testing.T) {
	records := []*model.Technique{
		{TechniqueID: "T1078", AggregatedFrequency: 1},
		{TechniqueID: "T1566.001", AggregatedFrequency: 3},
	}
	out := New(PeriodMonthly).Techniques(records)
	if out[0].TechniqueID != "T1566.001" {
		t.Errorf("sort order wrong: first = %s", out[0].TechniqueID)
	}
	if out[0].PrevalenceScore != 100 {
		t.Errorf("prevalence = %v, want 100 (clamped)", out[0].PrevalenceScore)
	}
	if out[1].PrevalenceScore != 50 {
		t.Errorf("prevalence = %v, want 50", out[1].PrevalenceScore)
	}
}

func TestIncidentsMonthlyGrouping(t *testing.T) {
	records := []*model.Incident{
		{
			ID: "INC-1", IncidentDate: "2025-01-05",
			Sector: model.SectorHospital, AttackType: model.AttackTypeRansomware,
			ImpactScore:        80,
			RecordsCompromised: 1000,
			FinancialImpact:    500_000,
			OperationalImpact:  model.OperationalImpact{DowntimeHours: 48},
			PatientCareImpact:  model.CareImpactCritical,
		},
		{
			ID: "INC-2", IncidentDate: "2025-01-28",
			Sector: model.SectorClinic, AttackType: model.AttackTypePhishing,
			ImpactScore:       40,
			OperationalImpact: model.OperationalImpact{DowntimeHours: 24},
		},
		{ID: "INC-3", IncidentDate: "2025-02-02", ImpactScore: 10},
		{ID: "INC-4", IncidentDate: "whenever", ImpactScore: 10},
	}
	groups := New(PeriodMonthly).Incidents(records)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	jan := groups[0]
	if jan.Period != "2025-01" || jan.TotalIncidents != 2 {
		t.Errorf("jan group = %s/%d, want 2025-01/2", jan.Period, jan.TotalIncidents)
	}
	if jan.ByAttackType["ransomware"] != 1 || jan.BySector["hospital"] != 1 {
		t.Errorf("jan breakdowns = %v / %v", jan.ByAttackType, jan.BySector)
	}
	if jan.BySeverity["critical"] != 1 || jan.BySeverity["medium"] != 1 {
		t.Errorf("jan severity bands = %v", jan.BySeverity)
	}
	if jan.AvgDowntimeHours != 36 {
		t.Errorf("avg downtime = %v, want 36", jan.AvgDowntimeHours)
	}
	if jan.CriticalPatientCareCount != 1 {
		t.Errorf("critical care count = %d", jan.CriticalPatientCareCount)
	}
	if jan.TotalFinancialImpact != 500_000 || jan.TotalRecordsCompromised != 1000 {
		t.Errorf("totals = %d / %d", jan.TotalFinancialImpact, jan.TotalRecordsCompromised)
	}
	// unknown period sorts last
	if groups[2].Period != "unknown" {
		t.Errorf("last group = %q, want unknown", groups[2].Period)
	}
}

func TestIncidentsAvgDowntimeSkipsZero(t *testing.T) {
	records := []*model.Incident{
		{ID: "A", IncidentDate: "2025-03-01", OperationalImpact: model.OperationalImpact{DowntimeHours: 10}},
		{ID: "B", IncidentDate: "2025-03-02"},
	}
	groups := New(PeriodMonthly).Incidents(records)
	if len(groups) != 1 || groups[0].AvgDowntimeHours != 10 {
		t.Errorf("avg downtime = %v, want 10 (zero-downtime incidents excluded)", groups[0].AvgDowntimeHours)
	}
}

func TestVectorsPrevalenceAndSort(t *testing.T) {
	records := []*model.AttackVector{
		{VectorType: "phishing_email", Frequency: 60, RiskScore: 80, TelemetryDate: "2025-01-10"},
		{VectorType: "exposed_rdp", Frequency: 20, RiskScore: 90},
		{VectorType: "usb_dropper", Frequency: 20, RiskScore: 30},
	}
	out := New(PeriodMonthly).Vectors(records)
	if out[0].VectorType != "exposed_rdp" {
		t.Errorf("sort by risk wrong: first = %s", out[0].VectorType)
	}
	for _, v := range out {
		if v.VectorType == "phishing_email" && v.PrevalenceScore != 60 {
			t.Errorf("phishing prevalence = %v, want 60", v.PrevalenceScore)
		}
	}
}
