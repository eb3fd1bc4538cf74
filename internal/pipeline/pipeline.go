// Package pipeline orchestrates one aggregation run: extract, validate and
// canonicalize, score, deduplicate, aggregate, map, emit. Individual record
// failures accumulate in the validation statistics; only structural pipeline
// failures (unreadable output, broken collaborators) abort a run.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Ashfaaq98/threat-aggregator/internal/aggregate"
	"github.com/Ashfaaq98/threat-aggregator/internal/bus"
	"github.com/Ashfaaq98/threat-aggregator/internal/dedupe"
	"github.com/Ashfaaq98/threat-aggregator/internal/ingest"
	"github.com/Ashfaaq98/threat-aggregator/internal/mapping"
	"github.com/Ashfaaq98/threat-aggregator/internal/model"
	"github.com/Ashfaaq98/threat-aggregator/internal/normalize"
	"github.com/Ashfaaq98/threat-aggregator/internal/schema"
	"github.com/Ashfaaq98/threat-aggregator/internal/score"
	"github.com/Ashfaaq98/threat-aggregator/internal/store"
)

// Terminal run states.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Options wires the pipeline's collaborators and configuration.
type Options struct {
	InputDir  string
	OutputDir string
	Orgs      []string
	Strategy  dedupe.Strategy
	Period    aggregate.Period
	Schemas   *schema.Provider
	Bus       bus.Bus
	Store     *store.Store // nil disables run archiving
	Logger    *log.Logger
}

// Result summarizes one finished run.
type Result struct {
	RunID     string         `json:"runId"`
	Status    string         `json:"status"`
	Stats     *Stats         `json:"stats"`
	Counts    map[string]int `json:"counts"`
	Mappings  int            `json:"mappings"`
	OutputDir string         `json:"outputDir"`
}

// Pipeline executes aggregation runs.
type Pipeline struct {
	opts   Options
	reader *ingest.Reader
}

// New constructs a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Bus == nil {
		opts.Bus = bus.NewNullBus(log.New(io.Discard, "", 0))
	}
	return &Pipeline{
		opts: opts,
		reader: ingest.NewReader(ingest.Options{
			Dir:    opts.InputDir,
			Logger: opts.Logger,
		}),
	}
}

// Run executes one pipeline run to completion or fatal failure.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	stats := &Stats{}
	started := time.Now()

	p.opts.Logger.Printf("run %s starting: orgs=%v strategy=%s period=%s",
		runID, p.opts.Orgs, p.opts.Strategy, p.opts.Period)

	_ = p.opts.Bus.PublishRun(ctx, bus.RunMessage{
		RunID:     runID,
		Status:    "started",
		Strategy:  string(p.opts.Strategy),
		Period:    string(p.opts.Period),
		Orgs:      p.opts.Orgs,
		Timestamp: started.Unix(),
	})

	if p.opts.Store != nil {
		if err := p.opts.Store.SaveRun(ctx, store.RunRecord{
			ID:        runID,
			Status:    "running",
			Strategy:  string(p.opts.Strategy),
			Period:    string(p.opts.Period),
			Orgs:      p.opts.Orgs,
			StartedAt: started,
		}); err != nil {
			p.opts.Logger.Printf("archive run start failed: %v", err)
		}
	}

	result, err := p.run(ctx, runID, stats)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}

	if p.opts.Store != nil {
		var counts map[string]int
		if result != nil {
			counts = result.Counts
		}
		if cerr := p.opts.Store.CompleteRun(ctx, runID, status, counts); cerr != nil {
			p.opts.Logger.Printf("archive run completion failed: %v", cerr)
		}
		p.archiveReport(ctx, runID, stats)
	}

	msg := bus.RunMessage{
		RunID:     runID,
		Status:    status,
		Strategy:  string(p.opts.Strategy),
		Period:    string(p.opts.Period),
		Orgs:      p.opts.Orgs,
		Timestamp: time.Now().Unix(),
	}
	if result != nil {
		msg.Counts = result.Counts
	}
	_ = p.opts.Bus.PublishRun(ctx, msg)

	if err != nil {
		p.opts.Logger.Printf("run %s failed: %v", runID, err)
		return &Result{RunID: runID, Status: StatusFailed, Stats: stats}, err
	}
	p.opts.Logger.Printf("run %s completed: files=%d/%d records=%d/%d warnings=%d errors=%d",
		runID, stats.ValidFiles, stats.TotalFiles, stats.ValidRecords, stats.TotalRecords,
		len(stats.Warnings), len(stats.Errors))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, stats *Stats) (*Result, error) {
	// Extract: concurrent per-org reads, merged in configured org order.
	batches := p.reader.ReadOrgs(ctx, p.opts.Orgs)
	p.publishStage(ctx, runID, "extract", countFiles(batches))

	// Validate, canonicalize, score.
	ds, err := p.collect(ctx, runID, batches, stats)
	if err != nil {
		return nil, err
	}
	p.publishStage(ctx, runID, "validate", stats.ValidRecords)

	// Deduplicate.
	deduper := dedupe.New(p.opts.Strategy)
	ds.Actors = deduper.Actors(ds.Actors)
	ds.Malware = deduper.Malware(ds.Malware)
	ds.Techniques = deduper.Techniques(ds.Techniques)
	ds.Incidents = deduper.Incidents(ds.Incidents)
	ds.Vectors = deduper.Vectors(ds.Vectors)
	p.publishStage(ctx, runID, "deduplicate", totalRecords(ds))

	// Aggregate.
	agg := aggregate.New(p.opts.Period)
	ds.Actors = agg.Actors(ds.Actors)
	ds.Malware = agg.Malware(ds.Malware)
	ds.Techniques = agg.Techniques(ds.Techniques)
	incidentGroups := agg.Incidents(ds.Incidents)
	ds.Vectors = agg.Vectors(ds.Vectors)
	p.publishStage(ctx, runID, "aggregate", totalRecords(ds))

	// Map relationships.
	mappings := mapping.Build(ds)
	p.publishStage(ctx, runID, "map", len(mappings))

	// Emit.
	if err := p.emit(ds, incidentGroups, mappings, stats); err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}
	p.publishStage(ctx, runID, "emit", totalRecords(ds))

	return &Result{
		RunID:     runID,
		Status:    StatusCompleted,
		Stats:     stats,
		Counts:    ds.Counts(),
		Mappings:  len(mappings),
		OutputDir: p.opts.OutputDir,
	}, nil
}

// ValidateBatches runs only the structural and schema validation stages over
// already-read batches, returning the report. Used by validation-only runs.
func ValidateBatches(batches []ingest.OrgBatch, provider *schema.Provider) (*Stats, error) {
	p := New(Options{Schemas: provider})
	stats := &Stats{}
	if _, err := p.collect(context.Background(), "", batches, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// collect walks every batch in org order, validating and canonicalizing
// records into fresh entity collections.
func (p *Pipeline) collect(ctx context.Context, runID string, batches []ingest.OrgBatch, stats *Stats) (*model.Dataset, error) {
	ds := &model.Dataset{}

	for _, batch := range batches {
		if batch.Err != nil {
			stats.AddError(batch.Org, "", "organization unreadable: %v", batch.Err)
			continue
		}
		for _, file := range batch.Files {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			stats.TotalFiles++
			if file.Err != nil {
				stats.InvalidFiles++
				stats.AddError(batch.Org, file.Name, "%v", file.Err)
				continue
			}
			if ok := p.processFile(batch.Org, file, ds, stats); ok {
				stats.ValidFiles++
			} else {
				stats.InvalidFiles++
			}
			p.archiveSubmission(ctx, runID, batch.Org, file)
		}
	}
	return ds, nil
}

// processFile runs structural checks and per-record validation for one
// submission file. Returns false when the file is rejected wholesale.
func (p *Pipeline) processFile(org string, file ingest.FileResult, ds *model.Dataset, stats *Stats) bool {
	sub := file.Submission

	// Structural checks reject the whole file.
	if sub.Metadata.Org == "" || sub.DataType == "" {
		stats.AddError(org, file.Name, "missing metadata.org or dataType")
		return false
	}
	if !sub.DataType.IsKnown() {
		stats.AddError(org, file.Name, "unrecognized dataType %q", sub.DataType)
		return false
	}
	if len(sub.Data) == 0 {
		stats.AddError(org, file.Name, "data array missing or empty")
		return false
	}

	// Data-quality warnings: record is still processed.
	if sub.Metadata.RecordCount != nil && *sub.Metadata.RecordCount != len(sub.Data) {
		stats.AddWarning("%s/%s: declared recordCount %d but found %d records",
			org, file.Name, *sub.Metadata.RecordCount, len(sub.Data))
	}
	if t, ok := normalize.ParseTime(sub.Metadata.SubmissionDate); ok && t.After(time.Now().Add(24*time.Hour)) {
		stats.AddWarning("%s/%s: submissionDate %s is in the future", org, file.Name, sub.Metadata.SubmissionDate)
	}
	if sub.Metadata.Org != org {
		stats.AddWarning("%s/%s: metadata.org %q does not match directory", org, file.Name, sub.Metadata.Org)
	}

	for _, raw := range sub.Data {
		stats.TotalRecords++
		res, err := p.opts.Schemas.Validate(raw, sub.DataType)
		if err != nil {
			stats.InvalidRecords++
			stats.AddError(org, file.Name, "validator failure: %v", err)
			continue
		}
		if !res.Valid {
			stats.InvalidRecords++
			for _, msg := range res.Errors {
				stats.AddError(org, file.Name, "invalid record: %s", msg)
			}
			continue
		}
		stats.ValidRecords++
		p.appendRecord(ds, sub.DataType, raw, org, sub.Metadata.SubmissionDate)
	}
	return true
}

// appendRecord canonicalizes and scores a validated record into the dataset.
// Records missing a telemetry date inherit the submission date.
func (p *Pipeline) appendRecord(ds *model.Dataset, dt model.DataType, raw map[string]interface{}, org, submissionDate string) {
	switch dt {
	case model.DataTypeThreatActors:
		a := normalize.BuildActor(raw, org)
		if a.TelemetryDate == "" {
			a.TelemetryDate = submissionDate
		}
		a.Confidence = score.ActorConfidence(a)
		ds.Actors = append(ds.Actors, a)
	case model.DataTypeMalware:
		m := normalize.BuildMalware(raw, org)
		if m.TelemetryDate == "" {
			m.TelemetryDate = submissionDate
		}
		ds.Malware = append(ds.Malware, m)
	case model.DataTypeTechniques:
		t := normalize.BuildTechnique(raw, org)
		if t.TelemetryDate == "" {
			t.TelemetryDate = submissionDate
		}
		ds.Techniques = append(ds.Techniques, t)
	case model.DataTypeIncidents:
		in := normalize.BuildIncident(raw, org)
		if in.TelemetryDate == "" {
			in.TelemetryDate = submissionDate
		}
		in.ImpactScore = score.IncidentImpact(in)
		in.DurationHours = score.IncidentDuration(in)
		ds.Incidents = append(ds.Incidents, in)
	case model.DataTypeAttackVectors:
		v := normalize.BuildVector(raw, org)
		if v.TelemetryDate == "" {
			v.TelemetryDate = submissionDate
		}
		v.RiskScore = score.VectorRisk(v)
		ds.Vectors = append(ds.Vectors, v)
	}
}

func (p *Pipeline) publishStage(ctx context.Context, runID, stage string, records int) {
	_ = p.opts.Bus.PublishStage(ctx, bus.StageMessage{
		RunID:     runID,
		Stage:     stage,
		Records:   records,
		Timestamp: time.Now().Unix(),
	})
}

func (p *Pipeline) archiveSubmission(ctx context.Context, runID, org string, file ingest.FileResult) {
	if p.opts.Store == nil || file.Submission == nil {
		return
	}
	raw, err := json.Marshal(file.Submission)
	if err != nil {
		return
	}
	if err := p.opts.Store.ArchiveSubmission(ctx, store.ArchivedSubmission{
		RunID:       runID,
		Org:         org,
		Filename:    file.Name,
		DataType:    string(file.Submission.DataType),
		RecordCount: len(file.Submission.Data),
		RawJSON:     string(raw),
	}); err != nil {
		p.opts.Logger.Printf("archive submission %s/%s failed: %v", org, file.Name, err)
	}
}

func (p *Pipeline) archiveReport(ctx context.Context, runID string, stats *Stats) {
	var entries []store.ReportEntry
	for _, e := range stats.Errors {
		entries = append(entries, store.ReportEntry{
			RunID: runID, Kind: "error", Org: e.Org, File: e.File, Message: e.Reason,
		})
	}
	for _, w := range stats.Warnings {
		entries = append(entries, store.ReportEntry{RunID: runID, Kind: "warning", Message: w})
	}
	if len(entries) == 0 {
		return
	}
	if err := p.opts.Store.SaveReportEntries(ctx, entries); err != nil {
		p.opts.Logger.Printf("archive validation report failed: %v", err)
	}
}

func countFiles(batches []ingest.OrgBatch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Files)
	}
	return n
}

func totalRecords(ds *model.Dataset) int {
	return len(ds.Actors) + len(ds.Malware) + len(ds.Techniques) + len(ds.Incidents) + len(ds.Vectors)
}
