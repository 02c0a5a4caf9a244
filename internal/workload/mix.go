package workload

import "sort"

// Mix classifies a draw in [0,100) into an operation kind
type Mix struct {
	config     Config
	t0, t1, t2 uint64
}

// NewMix validates cfg and precomputes its cumulative thresholds
func NewMix(cfg Config) (Mix, error) {
	if err := cfg.Validate(); err != nil {
		return Mix{}, err
	}
	t0, t1, t2 := cfg.Thresholds()
	return Mix{
		config: cfg,
		t0:     uint64(t0),
		t1:     uint64(t1),
		t2:     uint64(t2),
	}, nil
}

// Config returns the mix the classifier was built from
func (m Mix) Config() Config {
	return m.config
}

// Classify maps r in [0,100) to read, update, insert or delete
func (m Mix) Classify(r uint64) Op {
	switch {
	case r < m.t0:
		return OpRead
	case r < m.t1:
		return OpUpdate
	case r < m.t2:
		return OpInsert
	default:
		return OpDelete
	}
}

var presets = map[string]Config{
	"read-only":   {Read: 100},
	"read-heavy":  {Read: 80, Update: 20},
	"libcuckoo":   {Read: 80, Insert: 20},
	"balanced":    {Read: 50, Update: 30, Insert: 10, Delete: 10},
	"write-heavy": {Read: 20, Update: 40, Insert: 30, Delete: 10},
	"insert-only": {Insert: 100},
}

// Preset looks up a named mix
func Preset(name string) (Config, bool) {
	cfg, ok := presets[name]
	return cfg, ok
}

// PresetNames lists the named mixes in alphabetical order
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
