package sched

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempBundle(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadPolicyBundle_Valid(t *testing.T) {
	path := writeTempBundle(t, `
engine:
  variant: dmda
  sorted_decision: true
workers:
  - id: cpu0
    arch: cpu
    memory_node: node0
  - id: gpu0
    arch: gpu
    memory_node: node0
priority:
  min: 0
  max: 10
  buckets: 4
`)
	bundle, err := LoadPolicyBundle(path)
	require.NoError(t, err)
	assert.Equal(t, "dmda", bundle.Engine.Variant)
	assert.True(t, bundle.Engine.SortedDecision)
	assert.Len(t, bundle.Workers, 2)
	require.NotNil(t, bundle.Priority)
	assert.Equal(t, 4, bundle.Priority.Buckets)
}

func TestLoadPolicyBundle_RejectsUnknownFields(t *testing.T) {
	path := writeTempBundle(t, `
engine:
  variant: dm
workers: []
typo_field: true
`)
	_, err := LoadPolicyBundle(path)
	assert.Error(t, err)
}

func TestPolicyBundle_Validate_RejectsUnknownVariant(t *testing.T) {
	b := &PolicyBundle{Engine: EngineConfig{Variant: "bogus"}}
	assert.Error(t, b.Validate())
}

func TestPolicyBundle_Validate_RejectsDuplicateWorkerIDs(t *testing.T) {
	b := &PolicyBundle{
		Engine: EngineConfig{Variant: "dm"},
		Workers: []WorkerConfig{
			{ID: "w0", Arch: "cpu"},
			{ID: "w0", Arch: "gpu"},
		},
	}
	assert.Error(t, b.Validate())
}

func TestPolicyBundle_Validate_RejectsInvertedPriorityRange(t *testing.T) {
	b := &PolicyBundle{
		Engine:   EngineConfig{Variant: "dm"},
		Priority: &PriorityConfig{Min: 10, Max: 0, Buckets: 1},
	}
	assert.Error(t, b.Validate())
}

func TestPolicyBundle_ToEngineOptions_DefaultsToDMDA(t *testing.T) {
	b := &PolicyBundle{Engine: EngineConfig{Variant: "", SortedDecision: true}}
	opts := b.ToEngineOptions()
	assert.Equal(t, VariantDMDA, opts.Variant)
	assert.True(t, opts.SortedDecision)
}
