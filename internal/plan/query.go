package plan

import (
	"fmt"

	"github.com/spacemake-project/mapplan/internal/sampletable"
)

// NoRiboLog is the sentinel RiboLog returns when a sample's strategy never
// names an rRNA reference (spec.md §4.4: "a sentinel indicating no rRNA
// index").
const NoRiboLog = "<no-rRNA-index>"

// Inputs is the executor-facing answer to "what do I feed the mapper that
// produces path" (spec.md §4.4).
type Inputs struct {
	BAM           string
	IndexFile     string
	Annotation    string // "" unless HasAnnotation
	HasAnnotation bool
}

// Inputs resolves path against the map-rule table, keyed by out_path.
func (p *Plan) Inputs(path string) (Inputs, error) {
	r, ok := p.mapRulesByOutPath[path]
	if !ok {
		return Inputs{}, fmt.Errorf("%w: %s", ErrUnknownArtifact, path)
	}
	in := Inputs{BAM: r.InputPath, IndexFile: r.MapIndexFile}
	if r.HasAnnotation() {
		in.Annotation = r.AnnFinalCompiledTarget
		in.HasAnnotation = true
	}
	return in, nil
}

// Params is the executor-facing answer to "what do I run the mapper with"
// for path (spec.md §4.4).
type Params struct {
	Flags         string
	Index         string
	Annotation    string // "" unless HasAnnotation
	HasAnnotation bool
	AnnotationCmd AnnotationCommand
}

// Params resolves path against the map-rule table, keyed by out_path.
func (p *Plan) Params(path string) (Params, error) {
	r, ok := p.mapRulesByOutPath[path]
	if !ok {
		return Params{}, fmt.Errorf("%w: %s", ErrUnknownArtifact, path)
	}
	params := Params{Flags: r.MapFlags, Index: r.MapIndexParam, AnnotationCmd: AnnotationCommandFor(r)}
	if r.HasAnnotation() {
		params.Annotation = r.AnnFinal
		params.HasAnnotation = true
	}
	return params, nil
}

// SymlinkSource resolves a link_path to the map rule output it renames.
func (p *Plan) SymlinkSource(path string) (string, error) {
	s, ok := p.symlinksByLinkPath[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownArtifact, path)
	}
	return s.SrcPath, nil
}

// RiboLog returns the log path of the sample's rRNA-targeting rule, or
// NoRiboLog if its strategy never names an rRNA reference.
func (p *Plan) RiboLog(key sampletable.Key) string {
	for _, r := range p.mapRulesBySample[key] {
		if r.RefName == "rRNA" {
			return r.LogPath
		}
	}
	return NoRiboLog
}

// MapRules returns a sample's map rules in declared order. The caller must
// not mutate the returned slice or its elements.
func (p *Plan) MapRules(key sampletable.Key) []*MapRule {
	return p.mapRulesBySample[key]
}

// Symlinks returns a sample's symlinks in declared order. The caller must
// not mutate the returned slice or its elements.
func (p *Plan) Symlinks(key sampletable.Key) []*SymlinkRule {
	return p.symlinksBySample[key]
}

// AllBAMs returns ALL_BAMS for one sample: every mapped, unmapped, and
// symlinked BAM path, sorted.
func (p *Plan) AllBAMs(key sampletable.Key) []string {
	return p.allBAMs[key]
}

// AnnotatedBAMs returns ANNOTATED_BAMS for one sample: the mapped BAM paths
// whose reference carries an annotation, sorted.
func (p *Plan) AnnotatedBAMs(key sampletable.Key) []string {
	return p.annotatedBAMs[key]
}

// STARFinalLogSymlink returns the sample's canonical-STAR-log symlink, and
// whether one was registered (spec.md §9 open question: only registered
// when the sample's final artifact was produced by a STAR rule).
func (p *Plan) STARFinalLogSymlink(key sampletable.Key) (StarFinalLogSymlink, bool) {
	s, ok := p.starFinalLogSymlinks[key]
	return s, ok
}

// IndexEntry returns the index-table entry for a sentinel file, as
// registered by Build.
func (p *Plan) IndexEntry(sentinelFile string) (IndexEntry, error) {
	e, ok := p.indexByFile[sentinelFile]
	if !ok {
		return IndexEntry{}, fmt.Errorf("%w: %s", ErrUnknownArtifact, sentinelFile)
	}
	return *e, nil
}
