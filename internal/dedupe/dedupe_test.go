package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
)

func actor(name string, aliases []string, org string) *model.ThreatActor {
	return &model.ThreatActor{
		Name:             name,
		Aliases:          aliases,
		ObservationCount: 1,
		OrgsReporting:    []string{org},
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyMerge, s)

	s, err = ParseStrategy(" Aggregate ")
	require.NoError(t, err)
	assert.Equal(t, StrategyAggregate, s)

	_, err = ParseStrategy("fuzzy")
	assert.Error(t, err)
}

func TestActorsMergeAcrossAliasSets(t *testing.T) {
	a1 := actor("LockBit 3.0", []string{"LockBit"}, "org-alpha")
	a2 := actor("LockBit 3.0", []string{"lockbit black"}, "org-beta")

	out := New(StrategyMerge).Actors([]*model.ThreatActor{a1, a2})
	require.Len(t, out, 1)
	assert.ElementsMatch(t, []string{"LockBit", "lockbit black"}, out[0].Aliases)
	assert.ElementsMatch(t, []string{"org-alpha", "org-beta"}, out[0].OrgsReporting)
}

func TestActorsMergeByAliasTakeover(t *testing.T) {
	// Second record's name matches the first record's alias.
	a1 := actor("ALPHV", []string{"BlackCat"}, "org-alpha")
	a2 := actor("BlackCat", nil, "org-beta")

	out := New(StrategyMerge).Actors([]*model.ThreatActor{a1, a2})
	require.Len(t, out, 1)
	assert.Equal(t, "ALPHV", out[0].Name)
	assert.ElementsMatch(t, []string{"org-alpha", "org-beta"}, out[0].OrgsReporting)
}

func TestActorsMergeIdempotent(t *testing.T) {
	a1 := actor("Vice Society", []string{"DEV-0832"}, "org-alpha")
	a1.TTPs = []string{"T1486", "T1567"}
	a1.HealthcareTargets = 6
	a2 := actor("Vice Society", []string{"DEV-0832"}, "org-beta")
	a2.TTPs = []string{"T1486"}
	a2.HealthcareTargets = 4

	d := New(StrategyMerge)
	once := d.Actors([]*model.ThreatActor{a1, a2})
	require.Len(t, once, 1)

	again := d.Actors(once)
	require.Len(t, again, 1)
	assert.Equal(t, once[0].TTPs, again[0].TTPs)
	assert.Equal(t, 6, again[0].HealthcareTargets)
	assert.Equal(t, once[0].OrgsReporting, again[0].OrgsReporting)
}

func TestActorsAggregateSumsCounts(t *testing.T) {
	a1 := actor("Conti", nil, "org-alpha")
	a1.HealthcareTargets = 3
	a2 := actor("Conti", nil, "org-beta")
	a2.HealthcareTargets = 5

	out := New(StrategyAggregate).Actors([]*model.ThreatActor{a1, a2})
	require.Len(t, out, 1)
	assert.Equal(t, 8, out[0].HealthcareTargets)
	assert.Equal(t, 2, out[0].ObservationCount)
}

func TestActorsLatestStrategy(t *testing.T) {
	a1 := actor("Scattered Spider", nil, "org-alpha")
	a1.TelemetryDate = "2025-02-01"
	a1.Motivation = "financial"
	a2 := actor("Scattered Spider", nil, "org-beta")
	a2.TelemetryDate = "2025-03-15"
	a2.Motivation = "extortion"

	out := New(StrategyLatest).Actors([]*model.ThreatActor{a1, a2})
	require.Len(t, out, 1)
	assert.Equal(t, "extortion", out[0].Motivation)
	assert.ElementsMatch(t, []string{"org-alpha", "org-beta"}, out[0].OrgsReporting)
}

func TestActorsLatestMissingDateNeverWins(t *testing.T) {
	a1 := actor("FIN12", nil, "org-alpha")
	a1.TelemetryDate = "2025-01-01"
	a1.Origin = "keep-me"
	a2 := actor("FIN12", nil, "org-beta")
	a2.Origin = "late-but-undated"

	out := New(StrategyLatest).Actors([]*model.ThreatActor{a1, a2})
	require.Len(t, out, 1)
	assert.Equal(t, "keep-me", out[0].Origin)
	assert.ElementsMatch(t, []string{"org-alpha", "org-beta"}, out[0].OrgsReporting)
}

func TestMalwareMergeKeysOnNameAndFamily(t *testing.T) {
	m1 := &model.Malware{
		Name: "LockBit 3.0", Family: "LockBit",
		IOCs:          model.IOCSet{Domains: []string{"pay.evil.net"}},
		OrgsReporting: []string{"org-alpha"},
	}
	m2 := &model.Malware{
		Name: "lockbit 3.0", Family: "lockbit",
		IOCs:          model.IOCSet{Domains: []string{"pay.evil.net", "drop.evil.net"}},
		OrgsReporting: []string{"org-beta"},
	}
	m3 := &model.Malware{Name: "LockBit 3.0", Family: "Other", OrgsReporting: []string{"org-beta"}}

	out := New(StrategyMerge).Malware([]*model.Malware{m1, m2, m3})
	require.Len(t, out, 2)
	assert.ElementsMatch(t, []string{"pay.evil.net", "drop.evil.net"}, out[0].IOCs.Domains)
	assert.ElementsMatch(t, []string{"org-alpha", "org-beta"}, out[0].OrgsReporting)
}

func TestTechniquesAlwaysAggregate(t *testing.T) {
	t1 := &model.Technique{
		TechniqueID: "T1566.001", Name: "Spearphishing Attachment",
		Frequency: 1, AggregatedFrequency: 1,
		Severity:      model.SeverityMedium,
		OrgsReporting: []string{"org-alpha"},
	}
	t2 := &model.Technique{
		TechniqueID: "T1566.001", Name: "Spearphishing Attachment",
		Frequency: 3, AggregatedFrequency: 3,
		Severity:      model.SeverityHigh,
		OrgsReporting: []string{"org-beta"},
	}

	// merge strategy still sums technique frequency
	out := New(StrategyMerge).Techniques([]*model.Technique{t1, t2})
	require.Len(t, out, 1)
	assert.GreaterOrEqual(t, out[0].AggregatedFrequency, 4)
	assert.Equal(t, model.SeverityHigh, out[0].Severity)
	assert.ElementsMatch(t, []string{"org-alpha", "org-beta"}, out[0].OrgsReporting)
}

func TestTechniquesAggregateAssociative(t *testing.T) {
	make3 := func() []*model.Technique {
		return []*model.Technique{
			{TechniqueID: "T1078", AggregatedFrequency: 2, OrgsReporting: []string{"org-a"}},
			{TechniqueID: "T1078", AggregatedFrequency: 5, OrgsReporting: []string{"org-b"}},
			{TechniqueID: "T1078", AggregatedFrequency: 1, OrgsReporting: []string{"org-c"}},
		}
	}
	d := New(StrategyAggregate)

	abc := d.Techniques(make3())
	rev := make3()
	rev[0], rev[2] = rev[2], rev[0]
	cba := d.Techniques(rev)

	require.Len(t, abc, 1)
	require.Len(t, cba, 1)
	assert.Equal(t, 8, abc[0].AggregatedFrequency)
	assert.Equal(t, abc[0].AggregatedFrequency, cba[0].AggregatedFrequency)
	assert.ElementsMatch(t, abc[0].OrgsReporting, cba[0].OrgsReporting)
}

func TestTechniquesNullIDKeptDistinct(t *testing.T) {
	t1 := &model.Technique{Name: "custom lateral movement", AggregatedFrequency: 1}
	t2 := &model.Technique{Name: "custom lateral movement", AggregatedFrequency: 1}

	out := New(StrategyMerge).Techniques([]*model.Technique{t1, t2})
	assert.Len(t, out, 2)
}

func TestIncidentsMergeTakesMaxima(t *testing.T) {
	i1 := &model.Incident{
		ID: "INC-2025-001", FinancialImpact: 2_000_000,
		IncidentDate:      "2025-01-10",
		OperationalImpact: model.OperationalImpact{DowntimeHours: 24, SystemsAffected: 40},
		OrgsReporting:     []string{"org-alpha"},
	}
	i2 := &model.Incident{
		ID: "INC-2025-001", FinancialImpact: 3_500_000,
		IncidentDate:      "2025-01-08",
		ResolutionDate:    "2025-02-01",
		OperationalImpact: model.OperationalImpact{DowntimeHours: 16, SystemsAffected: 90},
		OrgsReporting:     []string{"org-beta"},
	}

	out := New(StrategyMerge).Incidents([]*model.Incident{i1, i2})
	require.Len(t, out, 1)
	assert.Equal(t, int64(3_500_000), out[0].FinancialImpact)
	assert.Equal(t, float64(24), out[0].OperationalImpact.DowntimeHours)
	assert.Equal(t, 90, out[0].OperationalImpact.SystemsAffected)
	assert.Equal(t, "2025-01-08", out[0].IncidentDate)
	assert.Equal(t, "2025-02-01", out[0].ResolutionDate)
}

func TestIncidentsWithoutIDKeptDistinct(t *testing.T) {
	out := New(StrategyMerge).Incidents([]*model.Incident{{}, {}})
	assert.Len(t, out, 2)
}

func TestVectorsAlwaysAggregate(t *testing.T) {
	v1 := &model.AttackVector{
		VectorType: "phishing_email", Frequency: 40,
		Severity:      model.SeverityMedium,
		Methods:       []string{"credential harvesting"},
		OrgsReporting: []string{"org-alpha"},
	}
	v2 := &model.AttackVector{
		VectorType: "phishing_email", Frequency: 25,
		Severity:      model.SeverityCritical,
		Methods:       []string{"malicious attachment"},
		OrgsReporting: []string{"org-beta"},
	}

	out := New(StrategyLatest).Vectors([]*model.AttackVector{v1, v2})
	require.Len(t, out, 1)
	assert.Equal(t, 65, out[0].Frequency)
	assert.Equal(t, model.SeverityCritical, out[0].Severity)
	assert.ElementsMatch(t, []string{"credential harvesting", "malicious attachment"}, out[0].Methods)
}

func TestHigherSeverity(t *testing.T) {
	assert.Equal(t, model.SeverityCritical, higherSeverity(model.SeverityHigh, model.SeverityCritical))
	assert.Equal(t, model.SeverityHigh, higherSeverity(model.SeverityHigh, model.SeverityLow))
	assert.Equal(t, model.SeverityMedium, higherSeverity(model.SeverityMedium, model.SeverityMedium))
}
