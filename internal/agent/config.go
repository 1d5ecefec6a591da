package agent

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/kazz187/taskforge/pkg/cerr"
)

const ConfigSchemaVersion = 1

// Configuration is a typed key/value map whose allowed keys depend on the
// agent type and the schema version.
type Configuration struct {
	SchemaVersion int               `yaml:"schema_version"`
	Values        map[string]string `yaml:"values"`
}

// Configuration keys.
const (
	ConfigModel          = "model"
	ConfigMaxTurns       = "max_turns"
	ConfigTimeoutSeconds = "timeout_seconds"
	ConfigTemperature    = "temperature"
	ConfigMaxSteps       = "max_steps"
	ConfigLanguage       = "language"
	ConfigStrictness     = "strictness"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindEnum
)

type field struct {
	kind     fieldKind
	min, max float64
	enum     []string
}

var commonFields = map[string]field{
	ConfigModel:          {kind: kindString},
	ConfigMaxTurns:       {kind: kindInt, min: 1, max: 50},
	ConfigTimeoutSeconds: {kind: kindInt, min: 1, max: 3600},
	ConfigTemperature:    {kind: kindFloat, min: 0, max: 2},
}

var typeFields = map[Type]map[string]field{
	TypePlanner: {
		ConfigMaxSteps: {kind: kindInt, min: 3, max: 10},
	},
	TypeGenerator: {
		ConfigLanguage: {kind: kindEnum, enum: []string{"javascript", "typescript", "python", "java", "rust", "go"}},
	},
	TypeReviewer: {
		ConfigStrictness: {kind: kindEnum, enum: []string{"low", "medium", "high"}},
	},
}

func lookupField(t Type, key string) (field, bool) {
	if f, ok := commonFields[key]; ok {
		return f, true
	}
	f, ok := typeFields[t][key]
	return f, ok
}

func (f field) check(v string) string {
	switch f.kind {
	case kindInt:
		n, err := strconv.Atoi(v)
		if err != nil {
			return "must be an integer"
		}
		if float64(n) < f.min || float64(n) > f.max {
			return fmt.Sprintf("must be between %g and %g", f.min, f.max)
		}
	case kindFloat:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "must be a number"
		}
		if n < f.min || n > f.max {
			return fmt.Sprintf("must be between %g and %g", f.min, f.max)
		}
	case kindEnum:
		if !slices.Contains(f.enum, v) {
			return fmt.Sprintf("must be one of %v", f.enum)
		}
	case kindString:
	}
	return ""
}

// Normalize fills in the current schema version for an empty configuration.
func (c Configuration) Normalize() Configuration {
	if c.SchemaVersion == 0 {
		c.SchemaVersion = ConfigSchemaVersion
	}
	if c.Values == nil {
		c.Values = map[string]string{}
	}
	return c
}

// Validate checks c against the schema for agent type t.
func (c Configuration) Validate(t Type) error {
	if c.SchemaVersion != ConfigSchemaVersion {
		return cerr.NewKindError(cerr.InvalidArgument, "configuration.schemaVersion",
			fmt.Sprintf("unsupported configuration schema version %d", c.SchemaVersion), nil)
	}
	keys := make([]string, 0, len(c.Values))
	for k := range c.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var e *cerr.Error
	for _, k := range keys {
		msg := "unknown key"
		if f, ok := lookupField(t, k); ok {
			msg = f.check(c.Values[k])
		}
		if msg == "" {
			continue
		}
		msg = fmt.Sprintf("configuration %q %s", k, msg)
		if e == nil {
			e = cerr.NewError(cerr.InvalidArgument, msg, nil)
		}
		_ = e.AddFieldViolation("configuration."+k, msg)
	}
	if e != nil {
		return e
	}
	return nil
}

func (c Configuration) String(key string) string {
	return c.Values[key]
}

func (c Configuration) Int(key string, def int) int {
	if n, err := strconv.Atoi(c.Values[key]); err == nil {
		return n
	}
	return def
}

func (c Configuration) Float(key string) (float64, bool) {
	n, err := strconv.ParseFloat(c.Values[key], 64)
	return n, err == nil
}
