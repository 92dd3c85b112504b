package strategy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spacemake-project/mapplan/internal/mapper"
)

const (
	testLeft  = "uBAM"
	testFinal = "final.polyA_adapter_trimmed"
)

func TestParseScenarios(t *testing.T) {
	tests := []struct {
		name         string
		mapstr       string
		wantRules    []ParsedRule
		wantFinalSrc string
		wantSymlinks []ParsedSymlink // in addition to the final symlink; checked by LinkSrc/LinkName pairs
	}{
		{
			name:   "single STAR rule, no final label",
			mapstr: "STAR:genome",
			wantRules: []ParsedRule{
				{InputName: testLeft, Mapper: mapper.STAR, RefName: "genome", OutName: "genome.STAR"},
			},
			wantFinalSrc: "genome.STAR",
		},
		{
			name:   "sequential bowtie2 then STAR, final on last",
			mapstr: "bowtie2:rRNA->STAR:genome:final",
			wantRules: []ParsedRule{
				{InputName: testLeft, Mapper: mapper.Bowtie2, RefName: "rRNA", OutName: "rRNA.bowtie2"},
				{InputName: "not_rRNA.bowtie2", Mapper: mapper.STAR, RefName: "genome", OutName: "genome.STAR"},
			},
			wantFinalSrc: "genome.STAR",
		},
		{
			name:   "parallel stage with a non-final label and a final label",
			mapstr: "bowtie2:rRNA:rRNA,STAR:genome:final",
			wantRules: []ParsedRule{
				{InputName: testLeft, Mapper: mapper.Bowtie2, RefName: "rRNA", OutName: "rRNA.bowtie2"},
				{InputName: testLeft, Mapper: mapper.STAR, RefName: "genome", OutName: "genome.STAR"},
			},
			wantFinalSrc: "genome.STAR",
			wantSymlinks: []ParsedSymlink{{LinkSrc: "rRNA.bowtie2", LinkName: "rRNA"}},
		},
		{
			name:   "no final label anywhere: synthesised from last rule",
			mapstr: "STAR:phiX->STAR:genome",
			wantRules: []ParsedRule{
				{InputName: testLeft, Mapper: mapper.STAR, RefName: "phiX", OutName: "phiX.STAR"},
				{InputName: "not_phiX.STAR", Mapper: mapper.STAR, RefName: "genome", OutName: "genome.STAR"},
			},
			wantFinalSrc: "genome.STAR",
		},
		{
			name:   "final produced directly by bowtie2",
			mapstr: "bowtie2:rRNA:final",
			wantRules: []ParsedRule{
				{InputName: testLeft, Mapper: mapper.Bowtie2, RefName: "rRNA", OutName: "rRNA.bowtie2"},
			},
			wantFinalSrc: "rRNA.bowtie2",
		},
		{
			name:   "final on first of a parallel pair",
			mapstr: "STAR:genome:final,bowtie2:rRNA",
			wantRules: []ParsedRule{
				{InputName: testLeft, Mapper: mapper.STAR, RefName: "genome", OutName: "genome.STAR"},
				{InputName: testLeft, Mapper: mapper.Bowtie2, RefName: "rRNA", OutName: "rRNA.bowtie2"},
			},
			wantFinalSrc: "genome.STAR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.mapstr, testLeft, testFinal)
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error: %v", tt.mapstr, err)
			}
			if !reflect.DeepEqual(result.Rules, tt.wantRules) {
				t.Errorf("rules = %+v, want %+v", result.Rules, tt.wantRules)
			}

			var finalSymlink *ParsedSymlink
			for i := range result.Symlinks {
				if result.Symlinks[i].LinkName == testFinal {
					finalSymlink = &result.Symlinks[i]
				}
			}
			if finalSymlink == nil {
				t.Fatalf("no symlink with LinkName %q found in %+v", testFinal, result.Symlinks)
			}
			if finalSymlink.LinkSrc != tt.wantFinalSrc {
				t.Errorf("final symlink src = %q, want %q", finalSymlink.LinkSrc, tt.wantFinalSrc)
			}

			for _, want := range tt.wantSymlinks {
				found := false
				for _, got := range result.Symlinks {
					if got == want {
						found = true
					}
				}
				if !found {
					t.Errorf("expected symlink %+v in %+v", want, result.Symlinks)
				}
			}
		})
	}
}

func TestParseFinalUniqueness(t *testing.T) {
	// property 2: exactly one symlink carries the final token, even when
	// the strategy never mentions "final" itself.
	result, err := Parse("STAR:genome", testLeft, testFinal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count := 0
	for _, s := range result.Symlinks {
		if s.LinkName == testFinal {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one final symlink, got %d", count)
	}
}

func TestParseIdempotence(t *testing.T) {
	// property 4
	a, err := Parse("bowtie2:rRNA->STAR:genome:final", testLeft, testFinal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Parse("bowtie2:rRNA->STAR:genome:final", testLeft, testFinal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("parsing the same strategy twice produced different results:\n%+v\n%+v", a, b)
	}
}

func TestParseNoOpCollapse(t *testing.T) {
	// property 6: a repeated stage produces no extra rule.
	withDup, err := Parse("STAR:genome->STAR:genome", testLeft, testFinal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	without, err := Parse("STAR:genome", testLeft, testFinal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(withDup.Rules) != len(without.Rules) {
		t.Errorf("collapsed strategy produced %d rules, expected %d", len(withDup.Rules), len(without.Rules))
	}
}

func TestParseMalformedRule(t *testing.T) {
	tests := []string{
		"STAR",
		"STAR:genome:final:extra",
		"STAR:",
		":genome",
		"STAR: genome",
		"",
	}
	for _, mapstr := range tests {
		if _, err := Parse(mapstr, testLeft, testFinal); !errors.Is(err, ErrMalformedStrategy) && !errors.Is(err, ErrEmptyStrategy) {
			t.Errorf("Parse(%q): expected ErrMalformedStrategy or ErrEmptyStrategy, got %v", mapstr, err)
		}
	}
}

func TestParseUnknownMapper(t *testing.T) {
	if _, err := Parse("bwa:genome", testLeft, testFinal); !errors.Is(err, ErrUnknownMapper) {
		t.Errorf("expected ErrUnknownMapper, got %v", err)
	}
}

func TestParseEmptyStrategy(t *testing.T) {
	if _, err := Parse("   ", testLeft, testFinal); !errors.Is(err, ErrEmptyStrategy) {
		t.Errorf("expected ErrEmptyStrategy, got %v", err)
	}
}

func TestParseResidueUnionRejectsParallelFeedingStage(t *testing.T) {
	_, err := Parse("STAR:genome,bowtie2:rRNA->STAR:phiX", testLeft, testFinal, WithResiduePolicy(ResidueUnion))
	if !errors.Is(err, ErrAmbiguousResidue) {
		t.Errorf("expected ErrAmbiguousResidue, got %v", err)
	}
}

func TestParseResidueErrorRejectsParallelFeedingStage(t *testing.T) {
	_, err := Parse("STAR:genome,bowtie2:rRNA->STAR:phiX", testLeft, testFinal, WithResiduePolicy(ResidueError))
	if !errors.Is(err, ErrAmbiguousResidue) {
		t.Errorf("expected ErrAmbiguousResidue, got %v", err)
	}
}

func TestParseResidueUnionAllowsParallelFinalStage(t *testing.T) {
	// A parallel stage that is the LAST stage never feeds anything, so it's
	// not ambiguous even under the stricter policies.
	result, err := Parse("STAR:genome:final,bowtie2:rRNA", testLeft, testFinal, WithResiduePolicy(ResidueUnion))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rules) != 2 {
		t.Errorf("expected 2 rules, got %d", len(result.Rules))
	}
}

func TestParseDuplicateOutNameIsNotRejectedByParser(t *testing.T) {
	// spec.md §9: duplicate out_name across a strategy is elevated to
	// DuplicateArtifact at plan-build time, not rejected by the pure parser.
	result, err := Parse("STAR:genome,STAR:genome", testLeft, testFinal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rules) != 2 {
		t.Errorf("expected 2 rules (duplication caught downstream), got %d", len(result.Rules))
	}
}
