// Package cochange measures how often files change together and flags
// files coupled to many others.
package cochange

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/gitpulse/pkg/analyzer"
	"github.com/panbanda/gitpulse/pkg/gitlog"
)

// Compile-time check that Analyzer implements CommitAnalyzer.
var _ analyzer.CommitAnalyzer[*Analysis] = (*Analyzer)(nil)

// Analyzer identifies files that frequently change together.
type Analyzer struct {
	minCochanges      int
	maxFilesPerCommit int
	hotspotMinRels    int
	hotspotStrength   float64
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithMinCochanges sets the co-change count below which pairs are not reported.
func WithMinCochanges(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.minCochanges = n
		}
	}
}

// WithMaxFilesPerCommit skips commits touching more than n files.
// Zero disables the limit.
func WithMaxFilesPerCommit(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.maxFilesPerCommit = n
		}
	}
}

// WithHotspotThresholds sets how many relationships stronger than strength
// make a file a hotspot.
func WithHotspotThresholds(minRelationships int, strength float64) Option {
	return func(a *Analyzer) {
		if minRelationships > 0 {
			a.hotspotMinRels = minRelationships
		}
		if strength >= 0 && strength <= 1 {
			a.hotspotStrength = strength
		}
	}
}

// New creates a new co-change analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		minCochanges:    DefaultMinCochanges,
		hotspotMinRels:  DefaultHotspotMinRelationships,
		hotspotStrength: DefaultHotspotStrength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// filePair is an unordered pair of files, alphabetically ordered.
type filePair struct {
	a, b string
}

// Analyze counts co-changes for every unordered file pair. Each file's set
// of commits is kept as a bitmap of commit indexes, so the Jaccard
// denominator is the cardinality of the union of two sets.
func (a *Analyzer) Analyze(commits []gitlog.Commit) *Analysis {
	cochanges := make(map[filePair]int)
	fileCommits := make(map[string]*roaring.Bitmap)
	var analyzed, skipped int

	for i, c := range commits {
		paths := c.Paths()
		if len(paths) == 0 {
			continue
		}
		if a.maxFilesPerCommit > 0 && len(paths) > a.maxFilesPerCommit {
			skipped++
			continue
		}
		analyzed++
		sort.Strings(paths)

		for _, p := range paths {
			bm, ok := fileCommits[p]
			if !ok {
				bm = roaring.New()
				fileCommits[p] = bm
			}
			bm.Add(uint32(i))
		}

		for x := 0; x < len(paths); x++ {
			for y := x + 1; y < len(paths); y++ {
				cochanges[filePair{a: paths[x], b: paths[y]}]++
			}
		}
	}

	pairs := make([]FilePair, 0)
	for pair, count := range cochanges {
		if count < a.minCochanges {
			continue
		}
		fileA, fileB := pair.a, pair.b
		setA, setB := fileCommits[fileA], fileCommits[fileB]
		totalA, totalB := int(setA.GetCardinality()), int(setB.GetCardinality())
		union := int(setA.OrCardinality(setB))

		strength := 0.0
		if union > 0 {
			strength = min(float64(count)/float64(union), 1.0)
		}

		pairs = append(pairs, FilePair{
			Key:           PairKey(fileA, fileB),
			FileA:         fileA,
			FileB:         fileB,
			CochangeCount: count,
			CommitsA:      totalA,
			CommitsB:      totalB,
			Strength:      strength,
			Percentage:    CalculatePercentage(count, totalA, totalB),
			Category:      CategoryFor(strength),
		})
	}

	// Sort by coupling strength (highest first)
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Strength != pairs[j].Strength {
			return pairs[i].Strength > pairs[j].Strength
		}
		return pairs[i].Key < pairs[j].Key
	})

	analysis := &Analysis{
		MinCochanges: a.minCochanges,
		Pairs:        pairs,
		Hotspots:     a.findHotspots(pairs),
	}
	analysis.CalculateSummary(len(fileCommits), analyzed, skipped)

	return analysis
}

// findHotspots returns files with at least hotspotMinRels reported pairs
// whose strength exceeds hotspotStrength.
func (a *Analyzer) findHotspots(pairs []FilePair) []Hotspot {
	partners := make(map[string][]string)
	for _, p := range pairs {
		if p.Strength <= a.hotspotStrength {
			continue
		}
		partners[p.FileA] = append(partners[p.FileA], p.FileB)
		partners[p.FileB] = append(partners[p.FileB], p.FileA)
	}

	hotspots := make([]Hotspot, 0)
	for path, others := range partners {
		if len(others) < a.hotspotMinRels {
			continue
		}
		sort.Strings(others)
		hotspots = append(hotspots, Hotspot{
			Path:            path,
			StrongCouplings: len(others),
			Partners:        others,
		})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].StrongCouplings != hotspots[j].StrongCouplings {
			return hotspots[i].StrongCouplings > hotspots[j].StrongCouplings
		}
		return hotspots[i].Path < hotspots[j].Path
	})
	return hotspots
}

// Close releases any resources.
func (a *Analyzer) Close() {
	// No resources to release
}
