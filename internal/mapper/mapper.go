// Package mapper defines the closed set of alignment programs the planner
// knows about, and the per-mapper defaults that drive index layout, command
// flags, and resource advisories.
//
// New mappers are added by extending the descriptor table in this file, not
// by string-matching scattered across the rest of the module.
package mapper

import "fmt"

// Mapper identifies one of the two supported external aligners.
type Mapper string

const (
	STAR    Mapper = "STAR"
	Bowtie2 Mapper = "bowtie2"
)

// Descriptor carries the per-mapper defaults and advisory resource
// attributes described in spec.md §4.2 and §5.
type Descriptor struct {
	Name Mapper

	// DefaultFlags is the baseline flag string used when a Reference does
	// not override it.
	DefaultFlags string

	// IndexDirTemplate and SentinelFile describe the default index layout:
	// IndexDirTemplate is rendered relative to species_data/<species>/<ref>/,
	// SentinelFile is the file within that directory whose existence proves
	// the index is built. bowtie2's sentinel is itself templated on the
	// index parameter (see Sentinel).
	IndexDirTemplate string
	SentinelFile     string

	// Threads and NeedsScratch are advisory only; the planner records them
	// but never schedules or enforces them (§5).
	Threads      int
	NeedsScratch bool
}

var descriptors = map[Mapper]Descriptor{
	STAR: {
		Name: STAR,
		DefaultFlags: "--outSAMunmapped Within --outSAMattributes All " +
			"--outSAMprimaryFlag AllBestScore --outSAMtype BAM Unsorted " +
			"--genomeLoad NoSharedMemory --limitOutSJcollapsed 2000000 " +
			"--readFilesType SAM SE",
		IndexDirTemplate: "star_index",
		SentinelFile:     "SAindex",
		Threads:          16,
		NeedsScratch:     true,
	},
	Bowtie2: {
		Name:             Bowtie2,
		DefaultFlags:     "--local --ignore-quals --score-min L,0,1.5 -L 10 -D 30 -R 30",
		IndexDirTemplate: "bt2_index",
		SentinelFile:     "", // templated per-reference; see Sentinel
		Threads:          32,
		NeedsScratch:     false,
	},
}

// ErrUnknownMapper is returned for a mapper token outside {STAR, bowtie2}.
var ErrUnknownMapper = fmt.Errorf("unknown mapper")

// Parse validates a mapper token from the strategy DSL.
func Parse(token string) (Mapper, error) {
	switch Mapper(token) {
	case STAR:
		return STAR, nil
	case Bowtie2:
		return Bowtie2, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMapper, token)
	}
}

// Describe returns the descriptor for m. m must already be a valid Mapper
// (constructed via Parse or the STAR/Bowtie2 constants); an unrecognised
// value is a programming error, not a runtime condition, so Describe panics.
func Describe(m Mapper) Descriptor {
	d, ok := descriptors[m]
	if !ok {
		panic(fmt.Sprintf("mapper: no descriptor for %q", m))
	}
	return d
}

// Sentinel returns the sentinel filename that proves m's index is built.
// For STAR this is the fixed SentinelFile and indexParam is ignored; for
// bowtie2 it is templated on the index parameter (<indexParam>.1.bt2), per
// spec.md §4.2.
func Sentinel(m Mapper, indexParam string) string {
	d := Describe(m)
	if d.SentinelFile != "" {
		return d.SentinelFile
	}
	return indexParam + ".1.bt2"
}
