package decode

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Rule pairs a field-name predicate with a transform producing the
// decoded value from raw bytes.
type Rule struct {
	Match     func(field string) bool
	Transform func(data []byte) (any, error)
}

// Registry is an ordered rule list. Rules are tried in registration
// order and the first match wins. A Registry is configuration state:
// populate it before the run, treat it as read-only during.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a rule. Later registrations only see fields no
// earlier rule matched.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// RegisterExtension registers a transform for fields whose name is ext
// or ends in ".ext". This is the common case: field names are entry-name
// extensions, so the `cls` of `sample.cls` is matched by ext "cls" and
// the `left.png` of `sample.left.png` by ext "png".
func (r *Registry) RegisterExtension(ext string, transform func(data []byte) (any, error)) {
	suffix := "." + ext
	r.Register(Rule{
		Match: func(field string) bool {
			return field == ext || strings.HasSuffix(field, suffix)
		},
		Transform: transform,
	})
}

// Decode runs the first matching rule over data. matched is false when
// no rule claims the field; such fields pass through untouched.
func (r *Registry) Decode(field string, data []byte) (value any, matched bool, err error) {
	for _, rule := range r.rules {
		if !rule.Match(field) {
			continue
		}
		v, err := rule.Transform(data)
		return v, true, err
	}
	return nil, false, nil
}

// Default returns a registry with the conventional text-format rules:
// json (any), txt/text (string), cls (ASCII integer class label). Media
// codecs are the host's business and get registered on top.
func Default() *Registry {
	r := NewRegistry()
	r.RegisterExtension("json", func(data []byte) (any, error) {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	})
	asString := func(data []byte) (any, error) { return string(data), nil }
	r.RegisterExtension("txt", asString)
	r.RegisterExtension("text", asString)
	r.RegisterExtension("cls", func(data []byte) (any, error) {
		return strconv.Atoi(strings.TrimSpace(string(data)))
	})
	return r
}
