package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := RunRecord{
		ID:        "run-1",
		Status:    "running",
		Strategy:  "merge",
		Period:    "monthly",
		Orgs:      []string{"org-alpha", "org-beta"},
		StartedAt: time.Now(),
	}
	require.NoError(t, s.SaveRun(ctx, run))
	require.NoError(t, s.CompleteRun(ctx, "run-1", "completed", map[string]int{
		"threat-actors": 3,
		"incidents":     2,
	}))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, []string{"org-alpha", "org-beta"}, runs[0].Orgs)
	assert.Equal(t, 3, runs[0].RecordCounts["threat-actors"])
	assert.False(t, runs[0].CompletedAt.IsZero())
}

func TestListRunsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run-old", "run-mid", "run-new"} {
		require.NoError(t, s.SaveRun(ctx, RunRecord{
			ID:        id,
			Status:    "completed",
			Strategy:  "merge",
			Period:    "monthly",
			Orgs:      []string{"org-alpha"},
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-mid", runs[1].ID)
}

func TestReportEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, RunRecord{
		ID: "run-1", Status: "running", Strategy: "merge", Period: "monthly",
		Orgs: []string{"org-alpha"}, StartedAt: time.Now(),
	}))
	entries := []ReportEntry{
		{RunID: "run-1", Kind: "error", Org: "org-alpha", File: "bad.json", Message: "missing dataType"},
		{RunID: "run-1", Kind: "warning", Org: "org-alpha", File: "odd.json", Message: "recordCount mismatch"},
	}
	require.NoError(t, s.SaveReportEntries(ctx, entries))

	got, err := s.ListReportEntries(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "error", got[0].Kind)
	assert.Equal(t, "missing dataType", got[0].Message)

	other, err := s.ListReportEntries(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestArchiveSubmission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, RunRecord{
		ID: "run-1", Status: "running", Strategy: "merge", Period: "monthly",
		Orgs: []string{"org-alpha"}, StartedAt: time.Now(),
	}))
	err := s.ArchiveSubmission(ctx, ArchivedSubmission{
		RunID:       "run-1",
		Org:         "org-alpha",
		Filename:    "actors.json",
		DataType:    "threat-actors",
		RecordCount: 2,
		RawJSON:     `{"metadata":{"org":"org-alpha"}}`,
	})
	assert.NoError(t, err)
}
