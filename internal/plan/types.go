// Package plan is the plan builder, data model, query surface, and command
// synthesiser of spec.md §3–§4.5: it cross-products parsed strategy rules
// with the sample table and reference registry into fully-qualified artifact
// descriptors, then serves a read-only query surface over the result.
package plan

import "github.com/spacemake-project/mapplan/internal/mapper"

// MapRule is one fully-resolved alignment step: every field spec.md §3
// lists for a MapRule, populated once by Build and never mutated again.
type MapRule struct {
	InputName string
	Mapper    mapper.Mapper
	RefName   string
	OutName   string // <ref_name>.<mapper>

	ProjectID string
	SampleID  string

	InputPath    string
	OutPath      string
	UnmappedPath string

	LogPath             string
	SpliceHeaderLogPath string

	MapIndex      string // index directory (map_index)
	MapIndexParam string // mapper-facing index argument (map_index_param)
	MapIndexFile  string // sentinel file proving the index is built (map_index_file)
	MapFlags      string

	AnnPath                string // source annotation path; "" if the reference carries none
	AnnFinal               string
	AnnFinalCompiled       string
	AnnFinalCompiledTarget string

	Threads      int
	NeedsScratch bool
}

// HasAnnotation reports whether this rule's reference carries an
// annotation, per spec.md §3 invariant: "If and only if ann_path is set,
// the rule appears in ANNOTATED_BAMS".
func (r *MapRule) HasAnnotation() bool {
	return r.AnnPath != ""
}

// SymlinkRule is a pure renaming of an existing MapRule's output.
type SymlinkRule struct {
	LinkSrc  string // an earlier rule's OutName in the same sample
	LinkName string
	RefName  string // the referenced MapRule's RefName

	SrcPath  string
	LinkPath string
}

// IndexEntry is one entry in the index table: the declarative description
// of how to build a single mapper+reference index, keyed by its sentinel
// file. It is shared across every sample that maps against the same
// species/reference/mapper triple.
type IndexEntry struct {
	Mapper  mapper.Mapper
	RefName string
	Species string

	SequencePath      string
	SequenceGzipped   bool
	AnnotationPath    string // the reference's annotation, for every mapper; only STAR's genome-generate description uses it
	AnnotationGzipped bool

	IndexDir     string
	IndexParam   string
	SentinelFile string
}

// StarFinalLogSymlink links the canonical per-sample STAR log filename to
// the specific mapper-run log that produced that sample's final artifact.
// Only populated when final was produced by a STAR rule (spec.md §9 open
// question, resolved: see DESIGN.md).
type StarFinalLogSymlink struct {
	CanonicalPath string
	SourcePath    string
}
