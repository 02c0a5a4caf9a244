package workload

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gopkg.in/yaml.v3"

	"kvbench/internal/random"
)

func TestMixClassificationConverges(t *testing.T) {
	mix, err := NewMix(Config{Read: 30, Update: 20, Insert: 10, Delete: 40})
	if err != nil {
		t.Fatalf("NewMix() error = %v", err)
	}

	const draws = 100000
	rng := random.New(12345)
	counts := make(map[Op]int)
	for i := 0; i < draws; i++ {
		counts[mix.Classify(rng.NextInRange(100))]++
	}

	want := map[Op]float64{OpRead: 0.30, OpUpdate: 0.20, OpInsert: 0.10, OpDelete: 0.40}
	for op, expected := range want {
		got := float64(counts[op]) / draws
		if math.Abs(got-expected) > 0.01 {
			t.Errorf("%s fraction = %.4f, want %.2f ± 0.01", op, got, expected)
		}
	}
}

func TestMixClassifyBoundaries(t *testing.T) {
	mix, err := NewMix(Config{Read: 30, Update: 20, Insert: 10, Delete: 40})
	if err != nil {
		t.Fatalf("NewMix() error = %v", err)
	}

	tests := []struct {
		draw uint64
		want Op
	}{
		{0, OpRead},
		{29, OpRead},
		{30, OpUpdate},
		{49, OpUpdate},
		{50, OpInsert},
		{59, OpInsert},
		{60, OpDelete},
		{99, OpDelete},
	}

	for _, tt := range tests {
		if got := mix.Classify(tt.draw); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.draw, got, tt.want)
		}
	}
}

func TestMixEmptyBuckets(t *testing.T) {
	mix, err := NewMix(Config{Insert: 100})
	if err != nil {
		t.Fatalf("NewMix() error = %v", err)
	}
	for r := uint64(0); r < 100; r++ {
		if got := mix.Classify(r); got != OpInsert {
			t.Fatalf("Classify(%d) = %s, want insert", r, got)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"read only", Config{Read: 100}, false},
		{"balanced", Config{50, 30, 10, 10}, false},
		{"shortfall", Config{Read: 50, Update: 20}, true},
		{"overflow", Config{60, 30, 10, 10}, true},
		{"negative", Config{110, -10, 0, 0}, true},
		{"above 100", Config{Read: 200, Update: -100}, true},
		// wraps around to exactly 100
		{"sum overflow", Config{math.MaxInt, math.MaxInt, 102, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewMixRejectsInvalid(t *testing.T) {
	if _, err := NewMix(Config{Read: 10}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewMix() error = %v, want ErrInvalidConfig", err)
	}
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		input   string
		want    Config
		wantErr bool
	}{
		{"80,0,20,0", Config{Read: 80, Insert: 20}, false},
		{" 30, 20 ,10,40 ", Config{30, 20, 10, 40}, false},
		{"libcuckoo", Config{Read: 80, Insert: 20}, false},
		{"read-only", Config{Read: 100}, false},
		{"80,0,20", Config{}, true},
		{"a,b,c,d", Config{}, true},
		{"50,0,0,0", Config{}, true},
		{"nope", Config{}, true},
		{"9223372036854775807,9223372036854775807,102,0", Config{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfig(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfig(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseConfig(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfigYAML(t *testing.T) {
	var doc struct {
		Workloads []Config `yaml:"workloads"`
	}
	input := `
workloads:
  - "80,0,20,0"
  - balanced
  - read: 40
    update: 40
    insert: 10
    delete: 10
`
	if err := yaml.Unmarshal([]byte(input), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := []Config{
		{Read: 80, Insert: 20},
		{50, 30, 10, 10},
		{40, 40, 10, 10},
	}
	if len(doc.Workloads) != len(want) {
		t.Fatalf("got %d workloads, want %d", len(doc.Workloads), len(want))
	}
	for i := range want {
		if doc.Workloads[i] != want[i] {
			t.Errorf("workload %d = %+v, want %+v", i, doc.Workloads[i], want[i])
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := string(out); got == "" {
		t.Error("Marshal() produced empty output")
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg, ok := Preset(name)
		if !ok {
			t.Fatalf("Preset(%q) not found", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
}

func TestMixProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("classification matches cumulative thresholds", prop.ForAll(
		func(read, update, insert int, r uint64) bool {
			cfg := Config{Read: read, Update: update, Insert: insert, Delete: 100 - read - update - insert}
			if cfg.Delete < 0 {
				return true
			}
			mix, err := NewMix(cfg)
			if err != nil {
				return false
			}
			t0, t1, t2 := cfg.Thresholds()
			got := mix.Classify(r)
			switch {
			case r < uint64(t0):
				return got == OpRead
			case r < uint64(t1):
				return got == OpUpdate
			case r < uint64(t2):
				return got == OpInsert
			default:
				return got == OpDelete
			}
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.UInt64Range(0, 99),
	))

	properties.TestingRun(t)
}

func TestConfigPercent(t *testing.T) {
	c := Config{Read: 30, Update: 20, Insert: 10, Delete: 40}
	want := map[Op]int{OpRead: 30, OpUpdate: 20, OpInsert: 10, OpDelete: 40, Op(9): 0}
	for op, p := range want {
		if got := c.Percent(op); got != p {
			t.Errorf("Percent(%v) = %d, want %d", op, got, p)
		}
	}
}
