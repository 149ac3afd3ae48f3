package compare

import (
	"context"
	"time"

	"github.com/sdejongh/imdidiff/pkg/exclude"
	"github.com/sdejongh/imdidiff/pkg/models"
	"github.com/sdejongh/imdidiff/pkg/normalize"
	"github.com/sdejongh/imdidiff/pkg/storage"
)

// Comparator defines the interface for file pair comparison
type Comparator interface {
	// Compare compares two files and returns the classified result. A
	// returned error means the pair could not be compared at all.
	Compare(ctx context.Context, source, target storage.Backend, sourcePath, targetPath string) (*models.FileResult, error)

	// Name returns the name of the comparison method
	Name() string
}

// Equivalence decides whether a raw difference is semantically harmless.
// *equivalence.Filter implements it.
type Equivalence interface {
	// Explain names the rule that makes d recoverable, or returns ""
	Explain(d models.Difference) string
}

// XMLComparator compares two metadata records semantically: both sides are
// normalized, diffed, then every difference is classified as recoverable,
// suppressed or divergent, in that order of precedence.
type XMLComparator struct {
	normalizer     *normalize.Normalizer
	differ         *Differ
	equivalence    Equivalence
	registry       *exclude.Registry
	keepSuppressed bool
}

// NewXMLComparator creates a comparator. equivalence and registry may be nil.
func NewXMLComparator(n *normalize.Normalizer, eq Equivalence, registry *exclude.Registry) *XMLComparator {
	return &XMLComparator{
		normalizer:  n,
		differ:      NewDiffer(),
		equivalence: eq,
		registry:    registry,
	}
}

// SetKeepSuppressed retains suppressed differences in file results
func (c *XMLComparator) SetKeepSuppressed(keep bool) {
	c.keepSuppressed = keep
}

// Name returns the comparator name
func (c *XMLComparator) Name() string {
	return "xml-semantic"
}

// Compare normalizes and diffs one pair. Read, transformation and parse
// failures are returned as *normalize.Error.
func (c *XMLComparator) Compare(ctx context.Context, source, target storage.Backend, sourcePath, targetPath string) (*models.FileResult, error) {
	start := time.Now()
	srcAbs, tgtAbs := source.Abs(sourcePath), target.Abs(targetPath)
	result := &models.FileResult{
		RelativePath: sourcePath,
		SourcePath:   srcAbs,
		TargetPath:   tgtAbs,
	}

	srcRaw, err := storage.ReadAll(ctx, source, sourcePath)
	if err != nil {
		return nil, &normalize.Error{File: srcAbs, Stage: normalize.StageRead, Err: err}
	}
	tgtRaw, err := storage.ReadAll(ctx, target, targetPath)
	if err != nil {
		return nil, &normalize.Error{File: tgtAbs, Stage: normalize.StageRead, Err: err}
	}
	result.BytesRead = int64(len(srcRaw) + len(tgtRaw))

	srcDoc, _, err := c.normalizer.Normalize(ctx, srcAbs, srcRaw)
	if err != nil {
		return nil, err
	}
	tgtDoc, _, err := c.normalizer.Normalize(ctx, tgtAbs, tgtRaw)
	if err != nil {
		return nil, err
	}

	for _, d := range c.differ.Diff(srcDoc, tgtDoc) {
		result.Add(c.classify(srcAbs, d), c.keepSuppressed)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// classify applies equivalence first, then operator suppression
func (c *XMLComparator) classify(sourceFile string, d models.Difference) models.ClassifiedDifference {
	cd := models.ClassifiedDifference{Difference: d, Classification: models.Divergent}

	if c.equivalence != nil {
		if rule := c.equivalence.Explain(d); rule != "" {
			cd.Classification = models.Recoverable
			cd.Rule = rule
			return cd
		}
	} else if d.Kind.DefaultRecoverable() {
		cd.Classification = models.Recoverable
		cd.Rule = "kind-default"
		return cd
	}

	if entry := c.registry.Match(sourceFile, d); entry != nil {
		cd.Classification = models.Suppressed
		cd.Rule = describeEntry(entry)
	}
	return cd
}

func describeEntry(e exclude.Entry) string {
	switch v := e.(type) {
	case exclude.SkipLocation:
		if v.Code != 0 {
			return "exclude " + v.Code.Code() + ":" + v.Pattern
		}
		return "exclude " + v.Pattern
	default:
		return "exclude " + exclude.Wildcard
	}
}
