// PolicyBundle: unified scheduler configuration, loadable from a YAML file.
// Used by the cmd/ demo harness and by golden-config regression tests.

package sched

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EngineConfig selects the Decision Engine variant and its orthogonal
// modes.
type EngineConfig struct {
	Variant        string `yaml:"variant"`         // "dm" or "dmda"
	SortedDecision bool   `yaml:"sorted_decision"` // sorted-push mode
	GlobalWindow   bool   `yaml:"global_window"`   // DM heterogeneity-ratio pending list
}

// WorkerConfig describes one worker to attach at startup.
type WorkerConfig struct {
	ID             string `yaml:"id"`
	Arch           string `yaml:"arch"` // "cpu" or "gpu"
	MemoryNode     string `yaml:"memory_node"`
	MasterForChild string `yaml:"master_for_child"`
}

// PriorityConfig declares a finite priority range, enabling per-priority
// bucket accounting. A nil *PriorityConfig (no priority key) disables it;
// a present config must have Buckets >= 1 to pass Validate.
type PriorityConfig struct {
	Min     int `yaml:"min"`
	Max     int `yaml:"max"`
	Buckets int `yaml:"buckets"`
}

// PolicyBundle holds a complete scheduler configuration.
type PolicyBundle struct {
	Engine   EngineConfig    `yaml:"engine"`
	Workers  []WorkerConfig  `yaml:"workers"`
	Priority *PriorityConfig `yaml:"priority"`
}

// validEngineVariants maps accepted engine variant strings.
var validEngineVariants = map[string]bool{"dm": true, "dmda": true}

// validArchKinds maps accepted worker architecture strings.
var validArchKinds = map[string]bool{"cpu": true, "gpu": true}

// LoadPolicyBundle reads and parses a YAML scheduler configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadPolicyBundle(path string) (*PolicyBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy config: %w", err)
	}
	var bundle PolicyBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing policy config: %w", err)
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// Validate checks that the bundle's names and ranges are valid.
func (b *PolicyBundle) Validate() error {
	if !validEngineVariants[b.Engine.Variant] {
		return fmt.Errorf("unknown engine variant %q; valid options: %s", b.Engine.Variant, validNames(validEngineVariants))
	}
	seen := make(map[string]bool, len(b.Workers))
	for _, w := range b.Workers {
		if w.ID == "" {
			return fmt.Errorf("worker config missing id")
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate worker id %q", w.ID)
		}
		seen[w.ID] = true
		if !validArchKinds[w.Arch] {
			return fmt.Errorf("worker %q: unknown arch %q; valid options: %s", w.ID, w.Arch, validNames(validArchKinds))
		}
	}
	if b.Priority != nil {
		if b.Priority.Buckets < 1 {
			return fmt.Errorf("priority.buckets must be >= 1, got %d", b.Priority.Buckets)
		}
		if b.Priority.Max < b.Priority.Min {
			return fmt.Errorf("priority.max (%d) must be >= priority.min (%d)", b.Priority.Max, b.Priority.Min)
		}
	}
	return nil
}

// ToPriorityRange converts the YAML priority config into the runtime
// PriorityRange, or nil if unset.
func (b *PolicyBundle) ToPriorityRange() *PriorityRange {
	if b.Priority == nil {
		return nil
	}
	return &PriorityRange{Min: b.Priority.Min, Max: b.Priority.Max, Buckets: b.Priority.Buckets}
}

// ToWorkerSpecs converts the YAML worker list into WorkerSpecs.
func (b *PolicyBundle) ToWorkerSpecs() []WorkerSpec {
	specs := make([]WorkerSpec, len(b.Workers))
	for i, w := range b.Workers {
		specs[i] = WorkerSpec{
			ID:             WorkerID(w.ID),
			Arch:           ArchKind(w.Arch),
			MemoryNode:     w.MemoryNode,
			MasterForChild: w.MasterForChild,
		}
	}
	return specs
}

// ToEngineOptions converts the YAML engine config into EngineOptions.
func (b *PolicyBundle) ToEngineOptions() EngineOptions {
	variant := VariantDMDA
	if b.Engine.Variant == string(VariantDM) {
		variant = VariantDM
	}
	return EngineOptions{Variant: variant, SortedDecision: b.Engine.SortedDecision}
}

func validNames(m map[string]bool) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
