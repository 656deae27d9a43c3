package format

import (
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/clickops/clickup"
)

// DetailLevel selects response verbosity. Field sets are monotonic:
// minimal ⊆ standard ⊆ detailed.
type DetailLevel string

const (
	Minimal  DetailLevel = "minimal"
	Standard DetailLevel = "standard"
	Detailed DetailLevel = "detailed"
)

// ParseDetailLevel parses a caller-supplied level. Empty defaults to
// standard.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch s {
	case "":
		return Standard, nil
	case "minimal", "standard", "detailed":
		return DetailLevel(s), nil
	default:
		return "", fmt.Errorf("format: unknown detail level %q (use minimal, standard, or detailed)", s)
	}
}

// Config holds the shaping thresholds. The defaults mirror observed
// payload behavior but are deliberately tunable: nothing downstream
// depends on the exact numbers.
type Config struct {
	// UniformThreshold is the fraction of items that must share a
	// field's serialized value for it to be hoisted into "common".
	// Default: 0.8
	UniformThreshold float64

	// CommonFieldMinRatio is the minimum fraction of fields that must
	// qualify as common for normalization to be worth the restructuring.
	// Default: 0.3
	CommonFieldMinRatio float64

	// MinNormalizeItems is the smallest array normalization applies to.
	// Default: 3
	MinNormalizeItems int

	// DetailedMaxItems caps result sets served at detailed level;
	// larger sets are downgraded to standard with a metadata note.
	// Default: 10
	DetailedMaxItems int
}

func (c Config) withDefaults() Config {
	if c.UniformThreshold <= 0 {
		c.UniformThreshold = 0.8
	}
	if c.CommonFieldMinRatio <= 0 {
		c.CommonFieldMinRatio = 0.3
	}
	if c.MinNormalizeItems <= 0 {
		c.MinNormalizeItems = 3
	}
	if c.DetailedMaxItems <= 0 {
		c.DetailedMaxItems = 10
	}
	return c
}

// Options shapes a single Format call.
type Options struct {
	// DetailLevel to apply. Zero value means standard.
	DetailLevel DetailLevel

	// Fields, when non-empty, overrides detail-level projection entirely.
	Fields []string

	// IncludeEmptyFields retains null/empty placeholders instead of
	// eliding them.
	IncludeEmptyFields bool

	// AllCustomFields retains custom fields without a value set. Their
	// verbose configuration metadata is stripped either way.
	AllCustomFields bool

	// WithMetadata attaches a Metadata block to the result.
	WithMetadata bool
}

// Metadata describes how a payload was shaped.
type Metadata struct {
	DetailLevel    DetailLevel `json:"detail_level"`
	RequestedLevel DetailLevel `json:"requested_level,omitempty"`
	Fields         []string    `json:"fields,omitempty"`
	Note           string      `json:"note,omitempty"`
	EstimatedBytes int         `json:"estimated_bytes,omitempty"`
	Page           *Page       `json:"page,omitempty"`
}

// Result is a shaped payload with optional metadata.
type Result struct {
	Data     any       `json:"data"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Formatter shapes raw upstream entities for the tool-call boundary.
// It is a pure transformation over decoded JSON; it performs no I/O.
type Formatter struct {
	cfg Config
}

// New creates a Formatter. Zero-value Config fields use defaults.
func New(cfg Config) *Formatter {
	return &Formatter{cfg: cfg.withDefaults()}
}

// Config returns the effective shaping thresholds.
func (f *Formatter) Config() Config {
	return f.cfg
}

// Entity formats a single entity.
func (f *Formatter) Entity(typ clickup.EntityType, e clickup.Entity, opts Options) Result {
	level := effectiveLevel(opts)
	shaped := f.shapeOne(typ, e, level, opts)

	res := Result{Data: shaped}
	if opts.WithMetadata {
		res.Metadata = f.metadata(level, level, "", opts, res.Data)
	}
	return res
}

// Entities formats an array of entities, applying the detailed-level
// downgrade valve and opportunistic array normalization.
func (f *Formatter) Entities(typ clickup.EntityType, items []clickup.Entity, opts Options) Result {
	requested := effectiveLevel(opts)
	level := requested
	note := ""
	if level == Detailed && len(items) > f.cfg.DetailedMaxItems {
		level = Standard
		note = fmt.Sprintf("detail level downgraded from detailed to standard: %d items exceed the %d-item detailed limit; fetch single entities for full detail",
			len(items), f.cfg.DetailedMaxItems)
	}

	shaped := make([]map[string]any, len(items))
	for i, e := range items {
		shaped[i] = f.shapeOne(typ, e, level, opts)
	}

	var data any = shaped
	if normalized, ok := f.normalize(shaped); ok {
		data = normalized
	}

	res := Result{Data: data}
	if opts.WithMetadata {
		res.Metadata = f.metadata(level, requested, note, opts, data)
	} else if note != "" {
		// The downgrade must stay traceable even without opt-in metadata.
		res.Metadata = &Metadata{DetailLevel: level, RequestedLevel: requested, Note: note}
	}
	return res
}

func effectiveLevel(opts Options) DetailLevel {
	if opts.DetailLevel == "" {
		return Standard
	}
	return opts.DetailLevel
}

func (f *Formatter) shapeOne(typ clickup.EntityType, e clickup.Entity, level DetailLevel, opts Options) map[string]any {
	fields := opts.Fields
	if len(fields) == 0 {
		fields = fieldsFor(typ, level)
	}

	projected := project(e, fields)

	if level != Detailed {
		projected = simplify(projected, opts.AllCustomFields)
		if !opts.IncludeEmptyFields {
			projected = elideEmpty(projected)
		}
	}
	return projected
}

func (f *Formatter) metadata(level, requested DetailLevel, note string, opts Options, data any) *Metadata {
	m := &Metadata{
		DetailLevel: level,
		Note:        note,
		Fields:      opts.Fields,
	}
	if requested != level {
		m.RequestedLevel = requested
	}
	if raw, err := json.Marshal(data); err == nil {
		m.EstimatedBytes = len(raw)
	}
	return m
}

// project keeps only the named fields. A nil field list keeps everything.
func project(e clickup.Entity, fields []string) map[string]any {
	if fields == nil {
		out := make(map[string]any, len(e))
		for k, v := range e {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(fields))
	for _, k := range fields {
		if v, ok := e[k]; ok {
			out[k] = v
		}
	}
	return out
}
