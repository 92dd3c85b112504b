// Package reference implements the reference resolver of spec.md §4.2: given
// a reference name and species, it returns the resolved sequence path,
// optional annotation path, and per-mapper flags and index locations,
// applying the documented defaults when the registry entry doesn't override
// them.
package reference

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spacemake-project/mapplan/internal/mapper"
)

// ErrUnknownReference is returned when species/name is not registered.
var ErrUnknownReference = fmt.Errorf("reference: unknown reference")

// ErrMissingSequence is returned when a registered reference has no
// sequence path.
var ErrMissingSequence = fmt.Errorf("reference: missing sequence path")

// RawEntry is one reference as it appears in the registry, before defaults
// are applied. It matches the YAML shape in spec.md §6 exactly.
type RawEntry struct {
	Sequence   string `yaml:"sequence"`
	Annotation string `yaml:"annotation,omitempty"`
	STARFlags  string `yaml:"STAR_flags,omitempty"`
	IndexDir   string `yaml:"index_dir,omitempty"` // overrides the STAR index directory
	BT2Flags   string `yaml:"BT2_flags,omitempty"`
	BT2Index   string `yaml:"BT2_index,omitempty"` // overrides the bowtie2 index param (basename prefix)
}

// IndexLocation is the resolved on-disk location of one mapper's index for
// one reference: Dir is the index directory (map_index), Param is the value
// passed to the mapper as its index argument (map_index_param — identical to
// Dir for STAR, a basename prefix for bowtie2), and File is the sentinel
// file whose existence proves the index is built (map_index_file).
type IndexLocation struct {
	Dir   string
	Param string
	File  string
}

// Reference is the resolved descriptor returned by Resolve: fully defaulted,
// immutable, ready for the plan builder to attach to a MapRule.
type Reference struct {
	Name       string
	Species    string
	Sequence   string
	Annotation string // "" when the reference carries no annotation

	Flags map[mapper.Mapper]string
	Index map[mapper.Mapper]IndexLocation
}

// HasAnnotation reports whether this reference enables gene tagging.
func (r Reference) HasAnnotation() bool {
	return r.Annotation != ""
}

// SequenceGzipped reports whether the sequence file requires decompression
// before an index build (spec.md §4.5: "mark when the reference inputs are
// gzipped").
func (r Reference) SequenceGzipped() bool {
	return strings.HasSuffix(r.Sequence, ".gz")
}

// AnnotationGzipped reports the same for the annotation file.
func (r Reference) AnnotationGzipped() bool {
	return strings.HasSuffix(r.Annotation, ".gz")
}

// Registry is the immutable, per-species reference table consulted by the
// plan builder. It is built once (via New or LoadRegistry) and never
// mutated afterward.
type Registry struct {
	bySpecies map[string]map[string]RawEntry
}

// New builds a Registry from an in-memory species -> name -> entry map. Use
// this directly in tests; LoadRegistry is the YAML-backed constructor used
// in production.
func New(data map[string]map[string]RawEntry) *Registry {
	return &Registry{bySpecies: data}
}

// Resolve returns the fully-defaulted Reference for name under species,
// applying the defaults from spec.md §4.2 wherever the registry entry
// doesn't override them.
func (r *Registry) Resolve(species, name string) (Reference, error) {
	species_, ok := r.bySpecies[species]
	if !ok {
		return Reference{}, fmt.Errorf("%w: species %q", ErrUnknownReference, species)
	}
	raw, ok := species_[name]
	if !ok {
		return Reference{}, fmt.Errorf("%w: %s/%s", ErrUnknownReference, species, name)
	}
	if raw.Sequence == "" {
		return Reference{}, fmt.Errorf("%w: %s/%s", ErrMissingSequence, species, name)
	}

	starFlags := raw.STARFlags
	if starFlags == "" {
		starFlags = mapper.Describe(mapper.STAR).DefaultFlags
	}
	bt2Flags := raw.BT2Flags
	if bt2Flags == "" {
		bt2Flags = mapper.Describe(mapper.Bowtie2).DefaultFlags
	}

	starDir := raw.IndexDir
	if starDir == "" {
		starDir = defaultIndexDir(species, name, mapper.STAR)
	}
	starFile := filepath.Join(starDir, mapper.Sentinel(mapper.STAR, ""))

	bt2Param := raw.BT2Index
	if bt2Param == "" {
		bt2Param = filepath.Join(defaultIndexDir(species, name, mapper.Bowtie2), name)
	}
	bt2Dir := filepath.Dir(bt2Param)
	bt2File := mapper.Sentinel(mapper.Bowtie2, bt2Param)

	return Reference{
		Name:       name,
		Species:    species,
		Sequence:   raw.Sequence,
		Annotation: raw.Annotation,
		Flags: map[mapper.Mapper]string{
			mapper.STAR:    starFlags,
			mapper.Bowtie2: bt2Flags,
		},
		Index: map[mapper.Mapper]IndexLocation{
			mapper.STAR:    {Dir: starDir, Param: starDir, File: starFile},
			mapper.Bowtie2: {Dir: bt2Dir, Param: bt2Param, File: bt2File},
		},
	}, nil
}

// defaultIndexDir renders species_data/<species>/<ref>/{star_index,bt2_index}
// per spec.md §4.2.
func defaultIndexDir(species, ref string, m mapper.Mapper) string {
	return filepath.Join("species_data", species, ref, mapper.Describe(m).IndexDirTemplate)
}
