// SPDX-License-Identifier: MPL-2.0

package parts

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/charmpack/charmpack/pkg/bundle"
)

const (
	// PluginNil builds nothing.
	PluginNil = "nil"
	// PluginDump copies the part source verbatim.
	PluginDump = "dump"
	// PluginBundle copies the part source verbatim; a part named "bundle" with
	// this plugin receives the bundle defaults.
	PluginBundle = "bundle"
	// PluginCharm copies the part source verbatim for charm projects.
	PluginCharm = "charm"

	// BundlePartName is the name of the implicit bundle part.
	BundlePartName = "bundle"
	// CharmPartName is the name of the implicit charm part.
	CharmPartName = "charm"
)

// Keys of a raw part definition that map onto Part fields.
const (
	keyPlugin = "plugin"
	keySource = "source"
	keyPrime  = "prime"
)

// ErrInvalidPart is the sentinel wrapped by InvalidPartError.
var ErrInvalidPart = errors.New("invalid part definition")

type (
	// Part is one build part.
	Part struct {
		// Plugin selects how the part is built.
		Plugin string
		// Source is the directory the part pulls from. Empty means unset.
		Source string
		// Prime is the ordered list of prime filters. nil means no filter.
		Prime []string
		// Options holds every other key of the definition (override-build, stage, ...).
		Options map[string]any
	}

	// Plan maps part names to their definitions. The zero value is an empty plan.
	Plan struct {
		parts map[string]Part
	}

	// InvalidPartError reports a declared part whose definition cannot be used.
	InvalidPartError struct {
		Part   string
		Reason string
	}
)

// ParsePart converts a raw part definition (as decoded from YAML) into a Part.
func ParsePart(name string, raw map[string]any) (Part, error) {
	if !ValidPartName(name) {
		return Part{}, &InvalidPartError{Part: name, Reason: "name must be a plain file name"}
	}
	var p Part
	for key, value := range raw {
		switch key {
		case keyPlugin:
			s, ok := value.(string)
			if !ok {
				return Part{}, &InvalidPartError{Part: name, Reason: "'plugin' must be a string"}
			}
			p.Plugin = s
		case keySource:
			s, ok := value.(string)
			if !ok {
				return Part{}, &InvalidPartError{Part: name, Reason: "'source' must be a string"}
			}
			p.Source = s
		case keyPrime:
			list, err := toStringList(value)
			if err != nil {
				return Part{}, &InvalidPartError{Part: name, Reason: "'prime' " + err.Error()}
			}
			p.Prime = list
		default:
			if p.Options == nil {
				p.Options = make(map[string]any)
			}
			p.Options[key] = cloneValue(value)
		}
	}
	return p, nil
}

// ParseParts converts the raw "parts" mapping of a project into Parts.
func ParseParts(raw map[string]map[string]any) (map[string]Part, error) {
	declared := make(map[string]Part, len(raw))
	for name, def := range raw {
		p, err := ParsePart(name, def)
		if err != nil {
			return nil, err
		}
		declared[name] = p
	}
	return declared, nil
}

// NewPlan builds a Plan holding deep copies of parts.
func NewPlan(parts map[string]Part) Plan {
	copied := make(map[string]Part, len(parts))
	for name, p := range parts {
		copied[name] = p.Clone()
	}
	return Plan{parts: copied}
}

// BundlePlan computes the plan for packing a bundle.
//
// Without declared parts a single part named "bundle" using the bundle plugin
// is synthesized. When the plan holds a part named "bundle" whose plugin is
// also "bundle", that part gets the mandatory bundle files appended to its
// prime filters and, if it declares no source, projectDir as source. Any other
// plan is returned as declared. declared is never modified.
func BundlePlan(declared map[string]Part, projectDir string) Plan {
	plan := NewPlan(declared)
	if len(plan.parts) == 0 {
		plan.parts[BundlePartName] = Part{Plugin: PluginBundle}
	}

	special, ok := plan.parts[BundlePartName]
	if !ok || special.Plugin != PluginBundle {
		return plan
	}

	special.Prime = append(special.Prime, bundle.MandatoryFiles()...)
	if special.Source == "" {
		special.Source = projectDir
	}
	plan.parts[BundlePartName] = special
	return plan
}

// CharmPlan computes the plan for building a charm: the declared parts, or a
// single "charm" part dumping projectDir when none are declared.
func CharmPlan(declared map[string]Part, projectDir string) Plan {
	plan := NewPlan(declared)
	if len(plan.parts) == 0 {
		plan.parts[CharmPartName] = Part{Plugin: PluginDump, Source: projectDir}
	}
	return plan
}

// Len returns the number of parts.
func (p Plan) Len() int { return len(p.parts) }

// Names returns the part names in lexical order, the order steps run in.
func (p Plan) Names() []string {
	return slices.Sorted(maps.Keys(p.parts))
}

// Get returns a copy of the named part.
func (p Plan) Get(name string) (Part, bool) {
	part, ok := p.parts[name]
	if !ok {
		return Part{}, false
	}
	return part.Clone(), true
}

// Parts returns a deep copy of the plan's mapping.
func (p Plan) Parts() map[string]Part {
	out := make(map[string]Part, len(p.parts))
	for name, part := range p.parts {
		out[name] = part.Clone()
	}
	return out
}

// HasBundlePart reports whether the plan holds the special bundle part.
func (p Plan) HasBundlePart() bool {
	part, ok := p.parts[BundlePartName]
	return ok && part.Plugin == PluginBundle
}

// String renders the plan for trace logging.
func (p Plan) String() string {
	out := "{"
	for i, name := range p.Names() {
		if i > 0 {
			out += ", "
		}
		part := p.parts[name]
		out += fmt.Sprintf("%s: {plugin: %s", name, part.Plugin)
		if part.Source != "" {
			out += ", source: " + part.Source
		}
		if part.Prime != nil {
			out += fmt.Sprintf(", prime: %v", part.Prime)
		}
		out += "}"
	}
	return out + "}"
}

// Clone returns a deep copy of the part.
func (p Part) Clone() Part {
	out := Part{Plugin: p.Plugin, Source: p.Source}
	if p.Prime != nil {
		out.Prime = slices.Clone(p.Prime)
	}
	if p.Options != nil {
		out.Options = make(map[string]any, len(p.Options))
		for k, v := range p.Options {
			out.Options[k] = cloneValue(v)
		}
	}
	return out
}

// StringOption returns a string-valued option, or "" when absent or not a string.
func (p Part) StringOption(key string) string {
	s, _ := p.Options[key].(string)
	return s
}

// ListOption returns a list-of-strings option.
func (p Part) ListOption(key string) ([]string, error) {
	v, ok := p.Options[key]
	if !ok {
		return nil, nil
	}
	return toStringList(v)
}

// Error implements the error interface.
func (e *InvalidPartError) Error() string {
	return fmt.Sprintf("invalid part %q: %s", e.Part, e.Reason)
}

// Unwrap returns ErrInvalidPart for errors.Is() compatibility.
func (e *InvalidPartError) Unwrap() error { return ErrInvalidPart }

func toStringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return slices.Clone(list), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a list of strings")
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(val)
	default:
		return val
	}
}
