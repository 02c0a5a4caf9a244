package workload

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for mixes that are negative or do not sum to 100
var ErrInvalidConfig = errors.New("invalid workload config")

// Op is the kind of operation a worker issues against the container
type Op int

const (
	OpRead Op = iota
	OpUpdate
	OpInsert
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Config is the percentage of each operation kind in a trial.
// The field order (read, update, insert, delete) is the classification order.
type Config struct {
	Read   int `yaml:"read" json:"read"`
	Update int `yaml:"update" json:"update"`
	Insert int `yaml:"insert" json:"insert"`
	Delete int `yaml:"delete" json:"delete"`
}

// Validate rejects negative percentages and mixes that do not sum to 100
func (c Config) Validate() error {
	for _, p := range []struct {
		name  string
		value int
	}{
		{"read", c.Read},
		{"update", c.Update},
		{"insert", c.Insert},
		{"delete", c.Delete},
	} {
		if p.value < 0 {
			return fmt.Errorf("%w: %s percentage is negative (%d)", ErrInvalidConfig, p.name, p.value)
		}
		if p.value > 100 {
			return fmt.Errorf("%w: %s percentage exceeds 100 (%d)", ErrInvalidConfig, p.name, p.value)
		}
	}
	if sum := c.Read + c.Update + c.Insert + c.Delete; sum != 100 {
		return fmt.Errorf("%w: percentages sum to %d, want 100", ErrInvalidConfig, sum)
	}
	return nil
}

// Thresholds returns the cumulative bounds of the read, update and insert buckets
func (c Config) Thresholds() (t0, t1, t2 int) {
	t0 = c.Read
	t1 = t0 + c.Update
	t2 = t1 + c.Insert
	return t0, t1, t2
}

// Percent returns the percentage configured for op
func (c Config) Percent(op Op) int {
	switch op {
	case OpRead:
		return c.Read
	case OpUpdate:
		return c.Update
	case OpInsert:
		return c.Insert
	case OpDelete:
		return c.Delete
	default:
		return 0
	}
}

// String renders the compact "read,update,insert,delete" form
func (c Config) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.Read, c.Update, c.Insert, c.Delete)
}

// ParseConfig accepts either a preset name or "read,update,insert,delete".
// The result is validated.
func ParseConfig(s string) (Config, error) {
	s = strings.TrimSpace(s)
	if preset, ok := Preset(s); ok {
		return preset, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Config{}, fmt.Errorf("%w: %q is neither a preset nor read,update,insert,delete", ErrInvalidConfig, s)
	}

	values := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %q: %v", ErrInvalidConfig, s, err)
		}
		values[i] = v
	}

	cfg := Config{Read: values[0], Update: values[1], Insert: values[2], Delete: values[3]}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseList parses a list of mixes, see ParseConfig
func ParseList(items []string) ([]Config, error) {
	out := make([]Config, 0, len(items))
	for _, item := range items {
		cfg, err := ParseConfig(item)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// UnmarshalYAML accepts a scalar ("80,0,20,0" or a preset name) or a mapping
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		cfg, err := ParseConfig(value.Value)
		if err != nil {
			return err
		}
		*c = cfg
		return nil
	}

	type plain Config
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}

// MarshalYAML writes the compact scalar form
func (c Config) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}
