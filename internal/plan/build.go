package plan

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spacemake-project/mapplan/internal/mapper"
	"github.com/spacemake-project/mapplan/internal/pathtmpl"
	"github.com/spacemake-project/mapplan/internal/planlog"
	"github.com/spacemake-project/mapplan/internal/reference"
	"github.com/spacemake-project/mapplan/internal/sampletable"
	"github.com/spacemake-project/mapplan/internal/strategy"
)

// Plan is the fully-built, read-only result of Build: the map-rule table,
// the symlink table, the index table, and the derived ALL_BAMS /
// ANNOTATED_BAMS / STAR_FINAL_LOG_SYMLINKS views of spec.md §3.
type Plan struct {
	mapRulesByOutPath  map[string]*MapRule
	symlinksByLinkPath map[string]*SymlinkRule
	indexByFile        map[string]*IndexEntry

	mapRulesBySample map[sampletable.Key][]*MapRule
	symlinksBySample map[sampletable.Key][]*SymlinkRule

	allBAMs              map[sampletable.Key][]string
	annotatedBAMs        map[sampletable.Key][]string
	starFinalLogSymlinks map[sampletable.Key]StarFinalLogSymlink
}

func newPlan() *Plan {
	return &Plan{
		mapRulesByOutPath:    make(map[string]*MapRule),
		symlinksByLinkPath:   make(map[string]*SymlinkRule),
		indexByFile:          make(map[string]*IndexEntry),
		mapRulesBySample:     make(map[sampletable.Key][]*MapRule),
		symlinksBySample:     make(map[sampletable.Key][]*SymlinkRule),
		allBAMs:              make(map[sampletable.Key][]string),
		annotatedBAMs:        make(map[sampletable.Key][]string),
		starFinalLogSymlinks: make(map[sampletable.Key]StarFinalLogSymlink),
	}
}

type config struct {
	residue strategy.ResiduePolicy
}

// Option configures Build.
type Option func(*config)

// WithResiduePolicy forwards a non-default strategy.ResiduePolicy to every
// sample's strategy.Parse call.
func WithResiduePolicy(p strategy.ResiduePolicy) Option {
	return func(c *config) { c.residue = p }
}

// Build cross-products the sample table, the reference registry, and each
// sample's mapping strategy into a Plan (spec.md §4.3). left and final name
// the DSL's initial-input and canonical-final tokens; defaultStrategy is
// used for any row whose map_strategy is empty. logger may be nil.
//
// A sample whose strategy fails to parse, whose reference can't be
// resolved, or whose rules collide is skipped with its error recorded in
// the returned slice — it never poisons another sample's plan.
func Build(table sampletable.Table, refs *reference.Registry, defaultStrategy, left, final string, logger *planlog.BuildLogger, opts ...Option) (*Plan, []error) {
	cfg := config{residue: strategy.ResidueLastWins}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := newPlan()
	var errs []error

	for _, row := range table.Rows() {
		if row.IsMerged {
			logger.SkippedMerged(row.ProjectID, row.SampleID)
			continue
		}

		mapstr := row.MapStrategy
		if mapstr == "" {
			mapstr = defaultStrategy
		}

		if err := p.buildSample(row, mapstr, left, final, refs, cfg); err != nil {
			wrapped := fmt.Errorf("sample %s/%s: %w", row.ProjectID, row.SampleID, err)
			errs = append(errs, wrapped)
			logger.Failed(row.ProjectID, row.SampleID, err)
			continue
		}
		logger.Built(row.ProjectID, row.SampleID)
	}

	return p, errs
}

// sampleArtifacts accumulates one sample's rules during buildSample. Nothing
// here is merged into the Plan's shared tables until the whole sample
// builds cleanly, so a mid-sample failure never leaves a partial plan
// visible to callers.
type sampleArtifacts struct {
	mapRules     []*MapRule
	symlinks     []*SymlinkRule
	byOutName    map[string]*MapRule
	outPaths     map[string]bool
	linkPaths    map[string]bool
	annotated    []string
	allPaths     []string
	indexEntries map[string]*IndexEntry
	finalSymlink *SymlinkRule
}

func (p *Plan) buildSample(row sampletable.Row, mapstr, left, final string, refs *reference.Registry, cfg config) error {
	parsed, err := strategy.Parse(mapstr, left, final, strategy.WithResiduePolicy(cfg.residue))
	if err != nil {
		return err
	}

	root := filepath.Join("projects", row.ProjectID, row.SampleID)
	logDir := filepath.Join(root, "logs")

	sa := &sampleArtifacts{
		byOutName:    make(map[string]*MapRule),
		outPaths:     make(map[string]bool),
		linkPaths:    make(map[string]bool),
		indexEntries: make(map[string]*IndexEntry),
	}

	for _, pr := range parsed.Rules {
		ref, err := refs.Resolve(row.Species, pr.RefName)
		if err != nil {
			return err
		}

		inputPath, err := sa.resolveInputPath(pr, left, root)
		if err != nil {
			return err
		}

		outPath, err := pathtmpl.Render(pathtmpl.MappedBAM, pathtmpl.Fields{Root: root, RefName: pr.RefName, Mapper: string(pr.Mapper)})
		if err != nil {
			return err
		}
		if sa.outPaths[outPath] {
			return fmt.Errorf("%w: %s", ErrDuplicateArtifact, outPath)
		}
		sa.outPaths[outPath] = true

		unmappedPath, err := pathtmpl.Render(pathtmpl.UnmappedBAM, pathtmpl.Fields{Root: root, RefName: pr.RefName, Mapper: string(pr.Mapper)})
		if err != nil {
			return err
		}
		logPath, err := pathtmpl.Render(pathtmpl.MapLog, pathtmpl.Fields{LogDir: logDir, RefName: pr.RefName, Mapper: string(pr.Mapper)})
		if err != nil {
			return err
		}
		spliceLogPath, err := pathtmpl.Render(pathtmpl.SpliceHeaderLog, pathtmpl.Fields{LogDir: logDir, RefName: pr.RefName, Mapper: string(pr.Mapper)})
		if err != nil {
			return err
		}

		idx := ref.Index[pr.Mapper]
		rule := &MapRule{
			InputName: pr.InputName,
			Mapper:    pr.Mapper,
			RefName:   pr.RefName,
			OutName:   pr.OutName,

			ProjectID: row.ProjectID,
			SampleID:  row.SampleID,

			InputPath:    inputPath,
			OutPath:      outPath,
			UnmappedPath: unmappedPath,

			LogPath:             logPath,
			SpliceHeaderLogPath: spliceLogPath,

			MapIndex:      idx.Dir,
			MapIndexParam: idx.Param,
			MapIndexFile:  idx.File,
			MapFlags:      ref.Flags[pr.Mapper],

			Threads:      mapper.Describe(pr.Mapper).Threads,
			NeedsScratch: mapper.Describe(pr.Mapper).NeedsScratch,
		}

		if ref.HasAnnotation() {
			annDir := filepath.Join("species_data", row.Species, pr.RefName, "annotation")
			rule.AnnPath = ref.Annotation
			rule.AnnFinal = filepath.Join(annDir, pr.RefName+".gtf")
			rule.AnnFinalCompiled = filepath.Join(annDir, pr.RefName+".gtf.compiled")
			rule.AnnFinalCompiledTarget = rule.AnnFinalCompiled
			sa.annotated = append(sa.annotated, outPath)
		}

		sa.byOutName[pr.OutName] = rule
		sa.mapRules = append(sa.mapRules, rule)
		sa.allPaths = append(sa.allPaths, outPath, unmappedPath)

		sa.indexEntries[idx.File] = &IndexEntry{
			Mapper:            pr.Mapper,
			RefName:           pr.RefName,
			Species:           row.Species,
			SequencePath:      ref.Sequence,
			SequenceGzipped:   ref.SequenceGzipped(),
			AnnotationPath:    ref.Annotation,
			AnnotationGzipped: ref.AnnotationGzipped(),
			IndexDir:          idx.Dir,
			IndexParam:        idx.Param,
			SentinelFile:      idx.File,
		}
	}

	for _, ps := range parsed.Symlinks {
		srcRule, ok := sa.byOutName[ps.LinkSrc]
		if !ok {
			return fmt.Errorf("%w: %s", ErrDanglingSymlink, ps.LinkSrc)
		}

		linkPath, err := pathtmpl.Render(pathtmpl.LinkedBAM, pathtmpl.Fields{Root: root, LinkName: ps.LinkName})
		if err != nil {
			return err
		}
		if sa.linkPaths[linkPath] {
			return fmt.Errorf("%w: %s", ErrDuplicateArtifact, linkPath)
		}
		sa.linkPaths[linkPath] = true

		sym := &SymlinkRule{
			LinkSrc:  ps.LinkSrc,
			LinkName: ps.LinkName,
			RefName:  srcRule.RefName,
			SrcPath:  srcRule.OutPath,
			LinkPath: linkPath,
		}
		sa.symlinks = append(sa.symlinks, sym)
		sa.allPaths = append(sa.allPaths, linkPath)

		if ps.LinkName == final {
			sa.finalSymlink = sym
		}
	}

	if sa.finalSymlink == nil {
		return fmt.Errorf("%w: no symlink resolved to the final token %q", ErrInvalidChain, final)
	}

	var starLog *StarFinalLogSymlink
	if finalRule := sa.byOutName[sa.finalSymlink.LinkSrc]; finalRule.Mapper == mapper.STAR {
		starLog = &StarFinalLogSymlink{
			CanonicalPath: filepath.Join(logDir, "Log.final.out"),
			SourcePath:    finalRule.LogPath,
		}
	}

	key := row.Key()
	p.mapRulesBySample[key] = sa.mapRules
	p.symlinksBySample[key] = sa.symlinks
	for _, r := range sa.mapRules {
		p.mapRulesByOutPath[r.OutPath] = r
	}
	for _, s := range sa.symlinks {
		p.symlinksByLinkPath[s.LinkPath] = s
	}
	for file, entry := range sa.indexEntries {
		p.indexByFile[file] = entry
	}

	sort.Strings(sa.allPaths)
	sort.Strings(sa.annotated)
	p.allBAMs[key] = sa.allPaths
	p.annotatedBAMs[key] = sa.annotated
	if starLog != nil {
		p.starFinalLogSymlinks[key] = *starLog
	}

	return nil
}

// resolveInputPath resolves a ParsedRule's input_name to an on-disk path:
// either the sample's canonical left artifact, or an earlier rule's
// unmapped output in this same sample (strategy.Parse only ever produces
// one of these two shapes).
func (sa *sampleArtifacts) resolveInputPath(pr strategy.ParsedRule, left, root string) (string, error) {
	if pr.InputName == left {
		return pathtmpl.Render(pathtmpl.LinkedBAM, pathtmpl.Fields{Root: root, LinkName: left})
	}

	const notPrefix = "not_"
	if len(pr.InputName) > len(notPrefix) && pr.InputName[:len(notPrefix)] == notPrefix {
		srcOutName := pr.InputName[len(notPrefix):]
		srcRule, ok := sa.byOutName[srcOutName]
		if !ok {
			return "", fmt.Errorf("%w: rule input %q has no earlier rule %q in this sample", ErrInvalidChain, pr.InputName, srcOutName)
		}
		return srcRule.UnmappedPath, nil
	}

	return "", fmt.Errorf("%w: rule input %q is neither %q nor a not_-prefixed earlier rule", ErrInvalidChain, pr.InputName, left)
}
