package vocab

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// ErrVocabularyLoad is matched by every *LoadError.
var ErrVocabularyLoad = errors.New("vocabulary load failed")

// LoadError reports a vocabulary source that could not be read or validated.
type LoadError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load vocabulary %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes every LoadError match ErrVocabularyLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrVocabularyLoad
}

// BuiltinPrefix introduces an embedded vocabulary locator.
const BuiltinPrefix = "builtin:"

// DefaultPrefix is bound to the namespace when a source declares none.
const DefaultPrefix = "ex"

//go:embed builtin/*.yaml
var builtinFS embed.FS

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)
	prefixPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\-]*$`)
)

type document struct {
	Namespace        string      `yaml:"namespace"`
	Prefix           string      `yaml:"prefix"`
	Classes          []termEntry `yaml:"classes"`
	ObjectProperties []termEntry `yaml:"object_properties"`
	DataProperties   []termEntry `yaml:"data_properties"`
}

type termEntry struct {
	Name       string   `yaml:"name"`
	Labels     []string `yaml:"labels"`
	PrefLabels []string `yaml:"pref_labels"`
	AltLabels  []string `yaml:"alt_labels"`
	Parents    []string `yaml:"parents"`
	Domain     string   `yaml:"domain"`
	Range      string   `yaml:"range"`
}

// Load reads a vocabulary from a file path or a "builtin:<name>" locator.
func Load(path string) (*Index, error) {
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		return Builtin(name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return Parse(data, path)
}

// Builtin returns an embedded vocabulary by name.
func Builtin(name string) (*Index, error) {
	source := BuiltinPrefix + name
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("unknown builtin vocabulary %q", name)}
	}
	return Parse(data, source)
}

// Parse decodes and validates a YAML or JSON vocabulary document. Unknown
// fields are rejected. source is used in error messages only.
func Parse(data []byte, source string) (*Index, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("decode: %w", err)}
	}
	idx, err := build(doc)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return idx, nil
}

func build(doc document) (*Index, error) {
	ns := strings.TrimSpace(doc.Namespace)
	if ns == "" {
		return nil, errors.New("namespace is required")
	}
	if !strings.HasSuffix(ns, "#") && !strings.HasSuffix(ns, "/") {
		ns += "#"
	}

	prefix := strings.TrimSpace(doc.Prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !prefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("invalid prefix %q", prefix)
	}
	if prefix == "rdf" || prefix == "xsd" {
		return nil, fmt.Errorf("prefix %q is reserved", prefix)
	}

	classes, err := buildEntries(ns, KindClass, doc.Classes)
	if err != nil {
		return nil, err
	}
	objectProps, err := buildEntries(ns, KindObjectProperty, doc.ObjectProperties)
	if err != nil {
		return nil, err
	}
	dataProps, err := buildEntries(ns, KindDataProperty, doc.DataProperties)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(classes))
	for _, c := range classes {
		known[c.Name] = true
	}
	for _, c := range classes {
		for _, p := range c.Parents {
			if !known[p] {
				return nil, fmt.Errorf("class %s: unknown parent %q", c.Name, p)
			}
		}
	}
	for _, p := range objectProps {
		if p.Domain != "" && !known[p.Domain] {
			return nil, fmt.Errorf("object property %s: unknown domain %q", p.Name, p.Domain)
		}
		if p.Range != "" && !known[p.Range] {
			return nil, fmt.Errorf("object property %s: unknown range %q", p.Name, p.Range)
		}
	}
	for _, p := range dataProps {
		if p.Domain != "" && !known[p.Domain] {
			return nil, fmt.Errorf("data property %s: unknown domain %q", p.Name, p.Domain)
		}
	}

	return NewIndex(ns, prefix, classes, objectProps, dataProps), nil
}

func buildEntries(ns string, kind Kind, raw []termEntry) ([]Entry, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]Entry, 0, len(raw))
	for i, t := range raw {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("%s #%d: name is required", kind, i)
		}
		if !namePattern.MatchString(name) {
			return nil, fmt.Errorf("%s #%d: invalid name %q", kind, i, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate %s %q", kind, name)
		}
		seen[name] = true

		labels := make([]string, 0, len(t.Labels)+len(t.PrefLabels)+len(t.AltLabels))
		labels = append(labels, t.Labels...)
		labels = append(labels, t.PrefLabels...)
		labels = append(labels, t.AltLabels...)
		e := NewEntry(ns+name, name, kind, labels...)
		e.Domain = strings.TrimSpace(t.Domain)
		e.Range = strings.TrimSpace(t.Range)

		switch kind {
		case KindClass:
			if e.Domain != "" || e.Range != "" {
				return nil, fmt.Errorf("class %s: domain and range apply to properties only", name)
			}
			e.Parents = t.Parents
		case KindDataProperty:
			if e.Range != "" {
				dt, ok := types.ParseDatatype(e.Range)
				if !ok {
					return nil, fmt.Errorf("data property %s: unsupported range %q", name, e.Range)
				}
				e.Datatype = dt
			}
		}
		if kind != KindClass && len(t.Parents) > 0 {
			return nil, fmt.Errorf("%s %s: parents apply to classes only", kind, name)
		}
		out = append(out, e)
	}
	return out, nil
}
