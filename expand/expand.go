// Package expand turns brace-range shard patterns into concrete shard
// reference lists.
//
// Two brace forms are supported: numeric ranges `{000..123}` (inclusive,
// zero-padding preserved when both endpoints share a width) and literal
// alternatives `{train,val}`. Only outermost braces expand; nesting is
// rejected. Multiple groups in one pattern expand left-to-right as a
// cross product with the leftmost group varying slowest.
package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shardstream/shardstream/errors"
)

// Expand expands a single pattern into an ordered list of references.
// A pattern without braces passes through as a one-element list.
func Expand(pattern string) ([]string, error) {
	out, err := expand(pattern, pattern)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpandAll expands each pattern independently and concatenates the
// results in order. This is how callers mix shard pools from different
// sources: the expander itself never merges pools.
func ExpandAll(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		refs, err := Expand(p)
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)
	}
	return out, nil
}

// expand does the recursive work; full is the original pattern, kept for
// error reporting.
func expand(s, full string) ([]string, error) {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		if strings.IndexByte(s, '}') >= 0 {
			return nil, errors.MalformedPattern(full, "unbalanced braces")
		}
		return []string{s}, nil
	}

	end := strings.IndexByte(s[open:], '}')
	if end < 0 {
		return nil, errors.MalformedPattern(full, "unbalanced braces")
	}
	end += open

	prefix := s[:open]
	body := s[open+1 : end]
	if strings.IndexByte(body, '{') >= 0 {
		return nil, errors.MalformedPattern(full, "nested braces are not supported")
	}

	alts, err := alternatives(body, full)
	if err != nil {
		return nil, err
	}

	tails, err := expand(s[end+1:], full)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(alts)*len(tails))
	for _, alt := range alts {
		for _, tail := range tails {
			out = append(out, prefix+alt+tail)
		}
	}
	return out, nil
}

// alternatives expands one brace body into its ordered alternatives.
func alternatives(body, full string) ([]string, error) {
	if body == "" {
		return nil, errors.MalformedPattern(full, "empty brace group")
	}
	if lo, hi, ok := strings.Cut(body, ".."); ok {
		return numericRange(lo, hi, full)
	}
	if strings.Contains(body, ",") {
		return strings.Split(body, ","), nil
	}
	return nil, errors.MalformedPattern(full, fmt.Sprintf("brace group %q is neither a range nor a list", body))
}

func numericRange(lo, hi, full string) ([]string, error) {
	a, err := strconv.Atoi(lo)
	if err != nil {
		return nil, errors.MalformedPattern(full, fmt.Sprintf("invalid range start %q", lo))
	}
	b, err := strconv.Atoi(hi)
	if err != nil {
		return nil, errors.MalformedPattern(full, fmt.Sprintf("invalid range end %q", hi))
	}
	if a < 0 || b < 0 {
		return nil, errors.MalformedPattern(full, "negative range bounds")
	}
	if a > b {
		return nil, errors.MalformedPattern(full, fmt.Sprintf("descending range %d..%d", a, b))
	}

	// Zero-padding is preserved when the endpoints are written with the
	// same width, e.g. {000..123}.
	width := 0
	if len(lo) == len(hi) {
		width = len(lo)
	}

	out := make([]string, 0, b-a+1)
	for i := a; i <= b; i++ {
		if width > 0 {
			out = append(out, fmt.Sprintf("%0*d", width, i))
		} else {
			out = append(out, strconv.Itoa(i))
		}
	}
	return out, nil
}
