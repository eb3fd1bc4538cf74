package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ashfaaq98/threat-aggregator/internal/model"
)

// outputMetadata describes one emitted dataset for downstream consumers.
type outputMetadata struct {
	ProcessedDate         string         `json:"processedDate"`
	Period                string         `json:"period"`
	Orgs                  []string       `json:"orgs"`
	DeduplicationStrategy string         `json:"deduplicationStrategy"`
	RecordCounts          map[string]int `json:"recordCounts"`
}

// emit writes the aggregated dataset files. Any write failure is fatal for
// the run: partial output is not authoritative.
func (p *Pipeline) emit(ds *model.Dataset, incidents []*model.IncidentPeriodGroup, mappings []*model.ActorMapping, stats *Stats) error {
	if err := os.MkdirAll(p.opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]interface{}{
		"threat-actors.json":  emptyAsList(ds.Actors),
		"malware.json":        emptyAsList(ds.Malware),
		"techniques.json":     emptyAsList(ds.Techniques),
		"incidents.json":      emptyAsList(incidents),
		"attack-vectors.json": emptyAsList(ds.Vectors),
		"mappings.json":       emptyAsList(mappings),
		"metadata.json": outputMetadata{
			ProcessedDate:         time.Now().UTC().Format(time.RFC3339),
			Period:                string(p.opts.Period),
			Orgs:                  p.opts.Orgs,
			DeduplicationStrategy: string(p.opts.Strategy),
			RecordCounts:          ds.Counts(),
		},
	}
	if stats.HasIssues() {
		files["validation-report.json"] = stats
	}

	for name, payload := range files {
		if err := p.writeJSON(name, payload); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) writeJSON(name string, payload interface{}) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(p.opts.OutputDir, name)
	if err := os.WriteFile(path, append(raw, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// emptyAsList keeps emitted arrays as [] rather than null for empty slices.
func emptyAsList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
