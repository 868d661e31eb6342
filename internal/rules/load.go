package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk rule set schema:
//
//	rules:
//	  - id: no-fixme
//	    pattern: FIXME
//	  - id: no-debugger
//	    pattern: '\bdebugger;'
//	    type: regex
//	    ignore_case: true
//	    description: stray debugger statement
//
// type defaults to literal. severity may be omitted or set to "blocking".
// JSON documents with the same shape are accepted.
type File struct {
	Rules []Def `yaml:"rules"`
}

// LoadFile reads rule definitions from a YAML (or JSON) file. An empty file
// yields an empty list.
func LoadFile(path string) ([]Def, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read rules file: %v", ErrRuleSet, err)
	}
	return Parse(b)
}

// Parse decodes a rule file body. Unknown keys are rejected so typos like
// "patern" do not silently produce a rule that never matches.
func Parse(b []byte) ([]Def, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: parse rules file: %v", ErrRuleSet, err)
	}
	return f.Rules, nil
}

// ParseInline turns "id=pattern" definitions into Defs of the given kind. The
// pattern is everything after the first '='.
func ParseInline(defs []string, kind Kind) ([]Def, error) {
	out := make([]Def, 0, len(defs))
	for _, s := range defs {
		id, pattern, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(id) == "" || pattern == "" {
			return nil, fmt.Errorf("%w: inline rule %q: want id=pattern", ErrRuleSet, s)
		}
		out = append(out, Def{ID: strings.TrimSpace(id), Pattern: pattern, Type: kind})
	}
	return out, nil
}

// Load combines a rule file (optional, empty path skips it) with inline
// literal and regex rules, in that order, and compiles the result.
func Load(path string, literal, regex []string) (Set, error) {
	var defs []Def
	if path != "" {
		fd, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fd...)
	}
	lit, err := ParseInline(literal, KindLiteral)
	if err != nil {
		return nil, err
	}
	re, err := ParseInline(regex, KindRegex)
	if err != nil {
		return nil, err
	}
	defs = append(defs, lit...)
	defs = append(defs, re...)
	return Compile(defs)
}
