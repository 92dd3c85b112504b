package plan

import (
	"fmt"
	"strings"

	"github.com/spacemake-project/mapplan/internal/mapper"
)

// IndexBuild is the declarative description of how to build one index-table
// entry (spec.md §4.5): the planner only ever describes the build, it never
// runs anything.
type IndexBuild struct {
	Mapper      mapper.Mapper
	Description string
}

// IndexBuild describes how to build the index identified by its sentinel
// file.
func (p *Plan) IndexBuild(sentinelFile string) (IndexBuild, error) {
	e, ok := p.indexByFile[sentinelFile]
	if !ok {
		return IndexBuild{}, fmt.Errorf("%w: %s", ErrUnknownArtifact, sentinelFile)
	}
	return IndexBuild{Mapper: e.Mapper, Description: describeIndexBuild(e)}, nil
}

func describeIndexBuild(e *IndexEntry) string {
	sequence := e.SequencePath
	if e.SequenceGzipped {
		sequence = "decompress(" + sequence + ")"
	}

	switch e.Mapper {
	case mapper.STAR:
		if e.AnnotationPath == "" {
			return fmt.Sprintf("STAR --runMode genomeGenerate --genomeDir %s --genomeFastaFiles %s", e.IndexDir, sequence)
		}
		annotation := e.AnnotationPath
		if e.AnnotationGzipped {
			annotation = "decompress(" + annotation + ")"
		}
		return fmt.Sprintf("STAR --runMode genomeGenerate --genomeDir %s --genomeFastaFiles %s --sjdbGTFfile %s", e.IndexDir, sequence, annotation)
	case mapper.Bowtie2:
		return fmt.Sprintf("bowtie2-build %s %s", sequence, e.IndexParam)
	default:
		return fmt.Sprintf("build index for unrecognised mapper %q", e.Mapper)
	}
}

// AnnotationCommand is the declarative description of the gene/feature
// tagging step a rule's output passes through before it counts toward
// ANNOTATED_BAMS (spec.md §4.5). For a rule with no annotation, this is the
// pass-through stage that merely repackages the mapper's stream.
type AnnotationCommand struct {
	HasAnnotation bool
	CompiledTable string // "" when HasAnnotation is false
	LogPath       string // "" when HasAnnotation is false
	Description   string
}

// AnnotationCommandFor describes r's post-alignment stage, annotated or
// pass-through.
func AnnotationCommandFor(r *MapRule) AnnotationCommand {
	if !r.HasAnnotation() {
		return AnnotationCommand{Description: fmt.Sprintf("pass-through: repackage %s mapper stream without tagging", r.Mapper)}
	}
	logPath := strings.TrimSuffix(r.LogPath, ".log") + ".annotate.log"
	return AnnotationCommand{
		HasAnnotation: true,
		CompiledTable: r.AnnFinalCompiledTarget,
		LogPath:       logPath,
		Description:   fmt.Sprintf("tag %s against %s, log to %s", r.OutPath, r.AnnFinalCompiledTarget, logPath),
	}
}

// HeaderSplice is the declarative description of splicing an upstream BAM's
// @PG history with the new mapper's program record (spec.md §4.5).
type HeaderSplice struct {
	UpstreamInputPath string
	NewMapper         mapper.Mapper
	LogPath           string
	Description       string
}

// HeaderSpliceFor describes the header-splice step for r.
func HeaderSpliceFor(r *MapRule) HeaderSplice {
	return HeaderSplice{
		UpstreamInputPath: r.InputPath,
		NewMapper:         r.Mapper,
		LogPath:           r.SpliceHeaderLogPath,
		Description:       fmt.Sprintf("merge @PG history of %s with the %s program record, log to %s", r.InputPath, r.Mapper, r.SpliceHeaderLogPath),
	}
}
