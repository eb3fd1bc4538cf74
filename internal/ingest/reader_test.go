package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReadOrgsDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "org-beta"), "b.json",
		`{"metadata":{"org":"org-beta"},"dataType":"malware","data":[{"name":"Ryuk"}]}`)
	writeFile(t, filepath.Join(root, "org-alpha"), "z-late.json",
		`{"metadata":{"org":"org-alpha"},"dataType":"threat-actors","data":[{"name":"LockBit"}]}`)
	writeFile(t, filepath.Join(root, "org-alpha"), "a-early.json",
		`{"metadata":{"org":"org-alpha"},"dataType":"incidents","data":[{"id":"INC-1"}]}`)
	writeFile(t, filepath.Join(root, "org-alpha"), "notes.txt", "not a submission")

	r := NewReader(Options{Dir: root})
	batches := r.ReadOrgs(context.Background(), []string{"org-alpha", "org-beta"})

	require.Len(t, batches, 2)
	assert.Equal(t, "org-alpha", batches[0].Org)
	assert.Equal(t, "org-beta", batches[1].Org)

	require.Len(t, batches[0].Files, 2)
	assert.Equal(t, "a-early.json", batches[0].Files[0].Name)
	assert.Equal(t, "z-late.json", batches[0].Files[1].Name)

	sub := batches[0].Files[0].Submission
	require.NotNil(t, sub)
	assert.Equal(t, "incidents", string(sub.DataType))
	require.Len(t, sub.Data, 1)
	assert.Equal(t, "INC-1", sub.Data[0]["id"])
}

func TestReadOrgsBadJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "org-alpha"), "broken.json", `{"metadata":`)
	writeFile(t, filepath.Join(root, "org-alpha"), "good.json",
		`{"metadata":{"org":"org-alpha"},"dataType":"malware","data":[{"name":"Qakbot"}]}`)

	r := NewReader(Options{Dir: root})
	batches := r.ReadOrgs(context.Background(), []string{"org-alpha"})

	require.Len(t, batches, 1)
	require.Len(t, batches[0].Files, 2)
	assert.Error(t, batches[0].Files[0].Err)
	assert.NoError(t, batches[0].Files[1].Err)
}

func TestReadOrgsMissingDirectory(t *testing.T) {
	r := NewReader(Options{Dir: t.TempDir()})
	batches := r.ReadOrgs(context.Background(), []string{"org-missing"})
	require.Len(t, batches, 1)
	assert.Error(t, batches[0].Err)
	assert.Empty(t, batches[0].Files)
}
