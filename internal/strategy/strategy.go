// Package strategy implements the mapping-strategy DSL parser of spec.md
// §4.1: a pure string -> rules transform with no filesystem or sample-table
// access. The grammar:
//
//	strategy   := stage ( "->" stage )*
//	stage      := rule ( "," rule )*
//	rule       := mapper ":" ref | mapper ":" ref ":" label
//	mapper     := "STAR" | "bowtie2"
//	ref        := identifier
//	label      := identifier
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spacemake-project/mapplan/internal/mapper"
)

// Error sentinels, per spec.md §4.1 and §7.
var (
	ErrMalformedStrategy = errors.New("strategy: malformed rule")
	ErrEmptyStrategy     = errors.New("strategy: empty strategy")
	ErrAmbiguousResidue  = errors.New("strategy: ambiguous unmapped residue across parallel rules")
)

// ErrUnknownMapper is re-exported from the mapper package so callers can
// errors.Is against a single package for every strategy-parsing failure.
var ErrUnknownMapper = mapper.ErrUnknownMapper

// ParsedRule is one alignment step as the parser sees it: no sample, no
// path, no reference resolution — those are the plan builder's job.
type ParsedRule struct {
	InputName string
	Mapper    mapper.Mapper
	RefName   string
	OutName   string // <ref_name>.<mapper>
}

// ParsedSymlink is a pure renaming of an existing MapRule's output, as the
// parser sees it.
type ParsedSymlink struct {
	LinkSrc  string // an earlier rule's OutName
	LinkName string // label, with "final" substituted for the caller's final token
}

// Result is the parser's full output for one strategy string.
type Result struct {
	Rules    []ParsedRule
	Symlinks []ParsedSymlink
}

// ResiduePolicy resolves the open question in spec.md §9: what becomes the
// next stage's input when the previous stage ran more than one rule in
// parallel, each producing its own unmapped residue.
type ResiduePolicy int

const (
	// ResidueLastWins takes the last-parsed rule's unmapped output as the
	// next stage's input, silently discarding the other parallel rules'
	// residues. This is the default: it reproduces the source's observed
	// behaviour exactly (see the spec.md §8 scenario table), but it is a
	// footgun — surfaced here as an explicit, named choice rather than an
	// implicit fallthrough, per spec.md §9.
	ResidueLastWins ResiduePolicy = iota

	// ResidueUnion would merge every parallel rule's unmapped residue into
	// one input for the next stage. The core is a pure planner that never
	// streams or merges BAM bytes (spec.md §1), so there is no planner-level
	// operation to describe a merge with; a stage with more than one rule
	// feeding a following stage is rejected with ErrAmbiguousResidue instead
	// of silently picking a residue to ignore.
	ResidueUnion

	// ResidueError rejects any stage that runs more than one rule in
	// parallel and feeds a following stage, regardless of intent. Use this
	// to forbid the ambiguity outright.
	ResidueError
)

type config struct {
	residue ResiduePolicy
}

// Option configures Parse.
type Option func(*config)

// WithResiduePolicy overrides the default ResidueLastWins policy.
func WithResiduePolicy(p ResiduePolicy) Option {
	return func(c *config) { c.residue = p }
}

// Parse converts a strategy string into an ordered list of MapRules and
// SymlinkRules. left names the initial input (the sample's uBAM); final
// names the canonical final artifact token the caller wants registered.
//
// By default (ResidueLastWins) the input of each stage after the first is
// the unmapped output of the LAST rule of the previous stage; the unmapped
// outputs of the other parallel rules in that stage are not carried
// forward. WithResiduePolicy selects ResidueUnion or ResidueError, which
// reject such a stage instead.
func Parse(mapstr, left, final string, opts ...Option) (Result, error) {
	cfg := config{residue: ResidueLastWins}
	for _, opt := range opts {
		opt(&cfg)
	}

	mapstr = strings.TrimSpace(mapstr)
	if mapstr == "" {
		return Result{}, ErrEmptyStrategy
	}

	stages := collapseStages(strings.Split(mapstr, "->"))

	var rules []ParsedRule
	var symlinks []ParsedSymlink
	sawFinal := false
	currentLeft := left
	var lastOutName string

	for i, stageText := range stages {
		isLast := i == len(stages)-1

		ruleTexts := strings.Split(stageText, ",")
		if len(ruleTexts) > 1 && !isLast {
			switch cfg.residue {
			case ResidueUnion, ResidueError:
				return Result{}, fmt.Errorf("%w: stage %q runs %d rules in parallel but feeds a later stage",
					ErrAmbiguousResidue, stageText, len(ruleTexts))
			}
		}

		var stageLastOut string
		for _, ruleText := range ruleTexts {
			pr, sym, hasSym, labelHasFinal, err := parseRule(ruleText, currentLeft, final)
			if err != nil {
				return Result{}, err
			}
			rules = append(rules, pr)
			if hasSym {
				symlinks = append(symlinks, sym)
				if labelHasFinal {
					sawFinal = true
				}
			}
			stageLastOut = pr.OutName
		}

		lastOutName = stageLastOut
		currentLeft = "not_" + stageLastOut
	}

	if len(rules) == 0 {
		return Result{}, ErrEmptyStrategy
	}

	if !sawFinal {
		symlinks = append(symlinks, ParsedSymlink{LinkSrc: lastOutName, LinkName: final})
	}

	return Result{Rules: rules, Symlinks: symlinks}, nil
}

// collapseStages drops a stage whose text is identical to the immediately
// preceding stage's text (spec.md §8 property 6: "No-op collapse").
func collapseStages(raw []string) []string {
	var out []string
	for _, s := range raw {
		if len(out) > 0 && out[len(out)-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}

func parseRule(ruleText, left, final string) (pr ParsedRule, sym ParsedSymlink, hasSym, labelHasFinal bool, err error) {
	if ruleText == "" || strings.ContainsAny(ruleText, " \t") {
		err = fmt.Errorf("%w: rule %q", ErrMalformedStrategy, ruleText)
		return
	}

	parts := strings.Split(ruleText, ":")
	if len(parts) != 2 && len(parts) != 3 {
		err = fmt.Errorf("%w: rule %q must have 2 or 3 colon-separated fields, got %d", ErrMalformedStrategy, ruleText, len(parts))
		return
	}

	if parts[0] == "" {
		err = fmt.Errorf("%w: rule %q has an empty mapper", ErrMalformedStrategy, ruleText)
		return
	}

	m, mErr := mapper.Parse(parts[0])
	if mErr != nil {
		err = mErr
		return
	}

	refName := parts[1]
	if refName == "" {
		err = fmt.Errorf("%w: rule %q has an empty reference name", ErrMalformedStrategy, ruleText)
		return
	}

	outName := refName + "." + string(m)
	pr = ParsedRule{InputName: left, Mapper: m, RefName: refName, OutName: outName}

	if len(parts) == 3 {
		label := parts[2]
		if label == "" {
			err = fmt.Errorf("%w: rule %q has an empty label", ErrMalformedStrategy, ruleText)
			return
		}
		labelHasFinal = strings.Contains(label, "final")
		sym = ParsedSymlink{LinkSrc: outName, LinkName: strings.ReplaceAll(label, "final", final)}
		hasSym = true
	}

	return
}
