package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultComponentsTag = "cc_"
	DefaultRacecarsTag   = "rc_"
)

// ErrOverlappingRoots means a source root lies inside the merge target.
var ErrOverlappingRoots = errors.New("source dataset lies inside the merge target")

// Options configures a merge. Empty Candidates and tags fall back to the
// package defaults.
type Options struct {
	ComponentsRoot string
	RacecarsRoot   string
	MergedRoot     string
	Candidates     []string
	ComponentsTag  string
	RacecarsTag    string

	// Force clears MergedRoot before writing instead of refusing to merge
	// into a non-empty directory.
	Force bool

	// WriteManifest writes merged_data.yaml into MergedRoot.
	WriteManifest bool
}

func (o Options) withDefaults() Options {
	if len(o.Candidates) == 0 {
		o.Candidates = DefaultCandidates
	}
	if o.ComponentsTag == "" {
		o.ComponentsTag = DefaultComponentsTag
	}
	if o.RacecarsTag == "" {
		o.RacecarsTag = DefaultRacecarsTag
	}
	return o
}

func (o Options) validate() error {
	paths := []struct{ name, value string }{
		{"components root", o.ComponentsRoot},
		{"racecars root", o.RacecarsRoot},
		{"merged root", o.MergedRoot},
	}
	for _, p := range paths {
		if p.value == "" {
			return &ConfigError{Err: errors.New("path not set"), Input: p.name}
		}
	}
	if strings.HasPrefix(o.ComponentsTag, o.RacecarsTag) || strings.HasPrefix(o.RacecarsTag, o.ComponentsTag) {
		return &ConfigError{
			Err:   ErrTagCollision,
			Input: fmt.Sprintf("tags %q and %q: neither may be a prefix of the other", o.ComponentsTag, o.RacecarsTag),
		}
	}

	dst, err := filepath.Abs(o.MergedRoot)
	if err != nil {
		return errors.Wrap(err, "failed to resolve merged root")
	}
	for _, src := range []string{o.ComponentsRoot, o.RacecarsRoot} {
		abs, err := filepath.Abs(src)
		if err != nil {
			return errors.Wrap(err, "failed to resolve source root")
		}
		rel, err := filepath.Rel(dst, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return &ConfigError{Err: ErrOverlappingRoots, Input: src}
		}
	}
	return nil
}

// Mapping is the reconciled class taxonomy of a merge.
type Mapping struct {
	Components  *Manifest `json:"components"`
	Racecars    *Manifest `json:"racecars"`
	SourceName  string    `json:"source_name"`
	SourceIndex int       `json:"source_index"`
	TargetIndex int       `json:"target_index"`
	Merged      *Manifest `json:"merged"`
}

// Reconcile loads both class manifests and maps the matched racecars class
// to the index just past the last components class.
func Reconcile(componentsRoot, racecarsRoot string, candidates []string) (*Mapping, error) {
	comp, err := LoadManifest(filepath.Join(componentsRoot, ManifestFile))
	if err != nil {
		return nil, err
	}
	race, err := LoadManifest(filepath.Join(racecarsRoot, ManifestFile))
	if err != nil {
		return nil, err
	}

	idx, name, err := MatchClass(candidates, race.Names)
	if err != nil {
		return nil, err
	}

	merged := make([]string, 0, comp.Len()+1)
	merged = append(merged, comp.Names...)
	merged = append(merged, name)

	return &Mapping{
		Components:  comp,
		Racecars:    race,
		SourceName:  name,
		SourceIndex: idx,
		TargetIndex: comp.Len(),
		Merged:      &Manifest{Names: merged},
	}, nil
}

// SplitCounts tallies what one source contributes to one split. Line
// counters are only tracked for filtered sources.
type SplitCounts struct {
	Images       int `json:"images"`
	LabelFiles   int `json:"label_files"`
	Unlabeled    int `json:"unlabeled"`
	KeptLines    int `json:"kept_lines"`
	DroppedLines int `json:"dropped_lines"`
}

// SourceCounts holds SplitCounts for every split.
type SourceCounts map[Split]*SplitCounts

func newSourceCounts() SourceCounts {
	c := make(SourceCounts, len(Splits))
	for _, s := range Splits {
		c[s] = &SplitCounts{}
	}
	return c
}

// Total sums the counters of all splits.
func (c SourceCounts) Total() SplitCounts {
	var t SplitCounts
	for _, s := range c {
		t.Images += s.Images
		t.LabelFiles += s.LabelFiles
		t.Unlabeled += s.Unlabeled
		t.KeptLines += s.KeptLines
		t.DroppedLines += s.DroppedLines
	}
	return t
}

// Result summarises a merge, or a plan when DryRun is set.
type Result struct {
	RunID        string       `json:"run_id"`
	MergedRoot   string       `json:"merged_root"`
	Mapping      *Mapping     `json:"mapping"`
	ManifestPath string       `json:"manifest_path,omitempty"`
	Components   SourceCounts `json:"components"`
	Racecars     SourceCounts `json:"racecars"`
	DryRun       bool         `json:"dry_run,omitempty"`
}

// fileOp either copies src to dst or, when src is empty, writes data to dst.
// origin names the input the op derives from.
type fileOp struct {
	src    string
	dst    string
	data   []byte
	origin string
}

func (op fileOp) from() string {
	if op.src != "" {
		return op.src
	}
	return op.origin
}

func (op fileOp) apply() error {
	if op.src != "" {
		return copyFile(op.src, op.dst)
	}
	return os.WriteFile(op.dst, op.data, 0o644)
}

// Plan is a fully validated merge: every input has been read and every
// output decided, but nothing has been written.
type Plan struct {
	RunID      string
	Options    Options
	Mapping    *Mapping
	Components SourceCounts
	Racecars   SourceCounts

	componentOps []fileOp
	racecarOps   []fileOp
}

// Operations returns the number of files the plan will write.
func (p *Plan) Operations() int {
	return len(p.componentOps) + len(p.racecarOps)
}

// Summary describes the plan as a dry-run Result.
func (p *Plan) Summary() *Result {
	return &Result{
		RunID:      p.RunID,
		MergedRoot: p.Options.MergedRoot,
		Mapping:    p.Mapping,
		Components: p.Components,
		Racecars:   p.Racecars,
		DryRun:     true,
	}
}

// Merger merges a components dataset and a racecars dataset.
type Merger struct {
	opts   Options
	logger *zap.Logger
}

// NewMerger creates a Merger. A nil logger disables logging.
func NewMerger(opts Options, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{
		opts:   opts.withDefaults(),
		logger: logger.Named("merge"),
	}
}

// Plan validates the inputs and decides every file operation without
// touching the destination.
//
// # Errors
//
//   - *ConfigError wrapping ErrMissingValDir if either source lacks a
//     val/valid directory
//   - *ConfigError wrapping ErrNoMatchingClass if no candidate matches
//   - *ConfigError wrapping ErrDestinationNotEmpty unless Force is set
//   - *ConfigError wrapping ErrTagCollision if one tag is a prefix of the
//     other or two inputs would be written to the same path
//   - *MalformedLabelError for a racecars label line with a non-integer class
func (m *Merger) Plan() (*Plan, error) {
	o := m.opts
	if err := o.validate(); err != nil {
		return nil, err
	}

	compSplits, err := SourceSplits(o.ComponentsRoot)
	if err != nil {
		return nil, err
	}
	raceSplits, err := SourceSplits(o.RacecarsRoot)
	if err != nil {
		return nil, err
	}

	mapping, err := Reconcile(o.ComponentsRoot, o.RacecarsRoot, o.Candidates)
	if err != nil {
		return nil, err
	}

	if !o.Force {
		empty, err := isEmptyDir(o.MergedRoot)
		if err != nil {
			return nil, errors.Wrap(err, "failed to inspect merged root")
		}
		if !empty {
			return nil, &ConfigError{Err: ErrDestinationNotEmpty, Input: o.MergedRoot}
		}
	}

	plan := &Plan{
		RunID:      uuid.NewString(),
		Options:    o,
		Mapping:    mapping,
		Components: newSourceCounts(),
		Racecars:   newSourceCounts(),
	}

	plan.componentOps, err = planPassthrough(o.ComponentsRoot, compSplits, o.MergedRoot, o.ComponentsTag, plan.Components)
	if err != nil {
		return nil, err
	}
	plan.racecarOps, err = planFiltered(o.RacecarsRoot, raceSplits, o.MergedRoot, o.RacecarsTag,
		mapping.SourceIndex, mapping.TargetIndex, plan.Racecars)
	if err != nil {
		return nil, err
	}
	if err := checkCollisions(plan.componentOps, plan.racecarOps); err != nil {
		return nil, err
	}

	return plan, nil
}

// Run plans the merge and executes it.
func (m *Merger) Run() (*Result, error) {
	plan, err := m.Plan()
	if err != nil {
		return nil, err
	}

	mp := plan.Mapping
	m.logger.Info("classes reconciled",
		zap.String("run_id", plan.RunID),
		zap.Strings("components_classes", mp.Components.Names),
		zap.Strings("racecars_classes", mp.Racecars.Names),
		zap.String("source_class", mp.SourceName),
		zap.Int("source_index", mp.SourceIndex),
		zap.Int("target_index", mp.TargetIndex),
	)

	return m.Execute(plan)
}

// Execute performs a plan: the components pass completes before the
// racecars pass starts.
func (m *Merger) Execute(plan *Plan) (*Result, error) {
	o := plan.Options
	log := m.logger.With(zap.String("run_id", plan.RunID))

	if o.Force {
		if err := os.RemoveAll(o.MergedRoot); err != nil {
			return nil, errors.Wrap(err, "failed to clear merged root")
		}
		log.Info("merged root cleared", zap.String("root", o.MergedRoot))
	}
	if err := EnsureSplitDirs(o.MergedRoot); err != nil {
		return nil, err
	}

	passes := []struct {
		name   string
		root   string
		ops    []fileOp
		counts SourceCounts
	}{
		{"components", o.ComponentsRoot, plan.componentOps, plan.Components},
		{"racecars", o.RacecarsRoot, plan.racecarOps, plan.Racecars},
	}
	for _, p := range passes {
		log.Info("copying dataset", zap.String("dataset", p.name), zap.String("root", p.root))
		for _, op := range p.ops {
			if err := op.apply(); err != nil {
				return nil, errors.Wrapf(err, "failed to write %s", op.dst)
			}
		}
		total := p.counts.Total()
		log.Info("dataset copied",
			zap.String("dataset", p.name),
			zap.Int("images", total.Images),
			zap.Int("label_files", total.LabelFiles),
			zap.Int("unlabeled", total.Unlabeled),
			zap.Int("dropped_lines", total.DroppedLines),
		)
	}

	result := &Result{
		RunID:      plan.RunID,
		MergedRoot: o.MergedRoot,
		Mapping:    plan.Mapping,
		Components: plan.Components,
		Racecars:   plan.Racecars,
	}

	if o.WriteManifest {
		path := filepath.Join(o.MergedRoot, MergedManifestFile)
		if err := WriteManifest(path, o.MergedRoot, plan.Mapping.Merged.Names); err != nil {
			return nil, err
		}
		result.ManifestPath = path
	}

	log.Info("merge complete",
		zap.String("root", o.MergedRoot),
		zap.Strings("classes", plan.Mapping.Merged.Names),
		zap.String("manifest", result.ManifestPath),
	)
	return result, nil
}

// checkCollisions fails when two different inputs would be written to the
// same destination.
func checkCollisions(passes ...[]fileOp) error {
	seen := make(map[string]string)
	for _, ops := range passes {
		for _, op := range ops {
			from := op.from()
			if prev, ok := seen[op.dst]; ok {
				// images sharing a stem share one label file
				if prev == from {
					continue
				}
				return &ConfigError{
					Err:   ErrTagCollision,
					Input: fmt.Sprintf("%s and %s both map to %s", prev, from, op.dst),
				}
			}
			seen[op.dst] = from
		}
	}
	return nil
}

// EnsureSplitDirs creates {train,val,test}/{images,labels} under root.
func EnsureSplitDirs(root string) error {
	for _, s := range Splits {
		for _, kind := range []string{ImagesDir, LabelsDir} {
			if err := os.MkdirAll(filepath.Join(root, string(s), kind), 0o755); err != nil {
				return errors.Wrap(err, "failed to create split directory")
			}
		}
	}
	return nil
}

func planPassthrough(root string, splits []SourceSplit, dstRoot, tag string, counts SourceCounts) ([]fileOp, error) {
	var ops []fileOp
	for _, ss := range splits {
		srcImages := filepath.Join(root, ss.Dir, ImagesDir)
		if !dirExists(srcImages) {
			continue
		}
		srcLabels := filepath.Join(root, ss.Dir, LabelsDir)
		dstImages := filepath.Join(dstRoot, string(ss.Split), ImagesDir)
		dstLabels := filepath.Join(dstRoot, string(ss.Split), LabelsDir)

		images, err := ListImages(srcImages)
		if err != nil {
			return nil, err
		}
		c := counts[ss.Split]
		for _, img := range images {
			stem, ext := SplitStem(filepath.Base(img))
			newStem := tag + stem
			ops = append(ops, fileOp{src: img, dst: filepath.Join(dstImages, newStem+ext)})
			c.Images++

			label := filepath.Join(srcLabels, stem+LabelExt)
			if !fileExists(label) {
				c.Unlabeled++
				continue
			}
			ops = append(ops, fileOp{src: label, dst: filepath.Join(dstLabels, newStem+LabelExt)})
			c.LabelFiles++
		}
	}
	return ops, nil
}

func planFiltered(root string, splits []SourceSplit, dstRoot, tag string, source, target int, counts SourceCounts) ([]fileOp, error) {
	var ops []fileOp
	for _, ss := range splits {
		srcImages := filepath.Join(root, ss.Dir, ImagesDir)
		if !dirExists(srcImages) {
			continue
		}
		srcLabels := filepath.Join(root, ss.Dir, LabelsDir)
		dstImages := filepath.Join(dstRoot, string(ss.Split), ImagesDir)
		dstLabels := filepath.Join(dstRoot, string(ss.Split), LabelsDir)

		images, err := ListImages(srcImages)
		if err != nil {
			return nil, err
		}
		c := counts[ss.Split]
		for _, img := range images {
			stem, ext := SplitStem(filepath.Base(img))
			newStem := tag + stem
			ops = append(ops, fileOp{src: img, dst: filepath.Join(dstImages, newStem+ext)})
			c.Images++

			label := filepath.Join(srcLabels, stem+LabelExt)
			if !fileExists(label) {
				c.Unlabeled++
				continue
			}
			records, err := ReadLabels(label)
			if err != nil {
				return nil, err
			}
			kept := FilterRemap(records, source, target)
			c.KeptLines += len(kept)
			c.DroppedLines += len(records) - len(kept)
			if len(kept) == 0 {
				c.Unlabeled++
				continue
			}
			ops = append(ops, fileOp{
				dst:    filepath.Join(dstLabels, newStem+LabelExt),
				data:   []byte(FormatLabels(kept)),
				origin: label,
			})
			c.LabelFiles++
		}
	}
	return ops, nil
}
