// Package envutil expands environment references in YAML documents.
package envutil

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExpandYAML replaces $VAR, ${VAR} and ${VAR:-fallback} in string scalars of a YAML
// document. Unquoted scalars are retyped after expansion so "${PORT}" can decode as an int.
// Variables that are unset and have no fallback expand to "" and are returned in missing.
func ExpandYAML(raw []byte) (expanded []byte, missing []string, err error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return raw, nil, nil
	}

	e := expander{lookup: os.LookupEnv, missing: make(map[string]struct{})}
	e.walk(&root)

	out, err := yaml.Marshal(&root)
	if err != nil {
		return nil, nil, fmt.Errorf("encode expanded yaml: %w", err)
	}
	return out, e.missingNames(), nil
}

type expander struct {
	lookup  func(string) (string, bool)
	missing map[string]struct{}
}

func (e *expander) walk(node *yaml.Node) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			e.walk(child)
		}
	case yaml.MappingNode:
		// keys are never expanded
		for i := 1; i < len(node.Content); i += 2 {
			e.walk(node.Content[i])
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			e.walk(node.Alias)
		}
	case yaml.ScalarNode:
		e.scalar(node)
	}
}

func (e *expander) scalar(node *yaml.Node) {
	if node.Tag != "" && node.Tag != "!!str" {
		return
	}
	if !strings.Contains(node.Value, "$") {
		return
	}
	value := os.Expand(node.Value, e.resolve)
	if value == node.Value {
		return
	}
	if node.Style != 0 {
		node.Tag = "!!str"
		node.Value = value
		return
	}
	node.Tag, node.Value = retype(value)
}

func (e *expander) resolve(key string) string {
	name, fallback, hasFallback := strings.Cut(key, ":-")
	if val, ok := e.lookup(name); ok && (val != "" || !hasFallback) {
		return val
	}
	if hasFallback {
		return fallback
	}
	e.missing[name] = struct{}{}
	return ""
}

func (e *expander) missingNames() []string {
	if len(e.missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.missing))
	for name := range e.missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func retype(value string) (tag string, out string) {
	if strings.TrimSpace(value) == "" {
		return "!!str", value
	}
	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		return "!!str", value
	}
	switch v := parsed.(type) {
	case nil:
		return "!!null", "null"
	case bool:
		return "!!bool", strconv.FormatBool(v)
	case int:
		return "!!int", strconv.Itoa(v)
	case float64:
		return "!!float", strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "!!str", value
	}
}
