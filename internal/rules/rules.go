package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/accrava/textgate/internal/types"
)

// ErrRuleSet reports a malformed or unreadable rule definition.
var ErrRuleSet = errors.New("rule set error")

type Kind string

const (
	KindLiteral Kind = "literal"
	KindRegex   Kind = "regex"
)

// Def is the declarative form of a rule, as written in a rule file or on the
// command line.
type Def struct {
	ID          string `yaml:"id" json:"id"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Type        Kind   `yaml:"type,omitempty" json:"type,omitempty"`
	IgnoreCase  bool   `yaml:"ignore_case,omitempty" json:"ignore_case,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Severity    string `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// Rule is a compiled Def. Rules are only built by Compile and never change
// afterwards.
type Rule struct {
	def Def
	re  *regexp.Regexp
}

func (r Rule) ID() string               { return r.def.ID }
func (r Rule) Pattern() string          { return r.def.Pattern }
func (r Rule) Kind() Kind               { return r.def.Type }
func (r Rule) Description() string      { return r.def.Description }
func (r Rule) Severity() types.Severity { return types.SevBlocking }

// Find reports the first match of the rule in line. col is the 1-based byte
// column of the match.
func (r Rule) Find(line string) (col int, match string, ok bool) {
	if r.re != nil {
		loc := r.re.FindStringIndex(line)
		if loc == nil {
			return 0, "", false
		}
		return loc[0] + 1, line[loc[0]:loc[1]], true
	}
	i := strings.Index(line, r.def.Pattern)
	if i < 0 {
		return 0, "", false
	}
	return i + 1, r.def.Pattern, true
}

// Set is an ordered rule set. Order decides report order when several rules
// match the same line.
type Set []Rule

func (s Set) IDs() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.ID()
	}
	return out
}

// Compile validates defs and compiles them in order.
func Compile(defs []Def) (Set, error) {
	seen := make(map[string]bool, len(defs))
	out := make(Set, 0, len(defs))
	for i, d := range defs {
		r, err := compile(d)
		if err != nil {
			if d.ID == "" {
				return nil, fmt.Errorf("%w: rule #%d: %v", ErrRuleSet, i+1, err)
			}
			return nil, fmt.Errorf("%w: rule %q: %v", ErrRuleSet, d.ID, err)
		}
		if seen[r.ID()] {
			return nil, fmt.Errorf("%w: duplicate rule id %q", ErrRuleSet, r.ID())
		}
		seen[r.ID()] = true
		out = append(out, r)
	}
	return out, nil
}

func compile(d Def) (Rule, error) {
	d.ID = strings.TrimSpace(d.ID)
	if d.ID == "" {
		return Rule{}, errors.New("missing id")
	}
	if d.Pattern == "" {
		return Rule{}, errors.New("missing pattern")
	}
	switch strings.ToLower(strings.TrimSpace(d.Severity)) {
	case "", string(types.SevBlocking):
	default:
		return Rule{}, fmt.Errorf("unsupported severity %q (only %q)", d.Severity, types.SevBlocking)
	}
	d.Severity = string(types.SevBlocking)

	r := Rule{def: d}
	switch Kind(strings.ToLower(string(d.Type))) {
	case "", KindLiteral:
		r.def.Type = KindLiteral
		if d.IgnoreCase {
			r.re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(d.Pattern))
		}
	case KindRegex:
		r.def.Type = KindRegex
		src := d.Pattern
		if d.IgnoreCase {
			src = "(?i)" + src
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return Rule{}, fmt.Errorf("pattern: %w", err)
		}
		r.re = re
	default:
		return Rule{}, fmt.Errorf("unknown type %q (want %q or %q)", d.Type, KindLiteral, KindRegex)
	}
	return r, nil
}
