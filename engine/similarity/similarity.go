// Package similarity flags near-duplicate pages within an audit bucket via
// token-set Jaccard overlap. Pure computation, no I/O.
package similarity

import (
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

// DefaultThreshold is the overlap ratio above which two pages count as
// duplicates.
const DefaultThreshold = 0.7

// Tokens returns the comparable token set of text: lower-cased,
// whitespace-split words longer than three characters.
func Tokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) > 3 {
			set[w] = struct{}{}
		}
	}
	return set
}

// Jaccard computes the token-set overlap of two texts in [0, 1]. Two empty
// token sets count as identical; one empty set makes the pair disjoint.
func Jaccard(a, b string) float64 {
	return jaccardSets(Tokens(a), Tokens(b))
}

func jaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Pair records one near-duplicate page pair.
type Pair struct {
	URLA  string
	URLB  string
	Score float64
}

// Report summarizes content uniqueness across one bucket.
type Report struct {
	Unique bool
	Pairs  []Pair
}

// Analyze compares every pair of pages by body text and reports the pairs
// whose overlap exceeds threshold. A non-positive threshold falls back to
// DefaultThreshold. O(n²) over the bucket, bounded by the crawl page cap.
func Analyze(pages []domain.PageCrawlResult, threshold float64) Report {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	sets := fn.Map(pages, func(p domain.PageCrawlResult) map[string]struct{} {
		return Tokens(p.BodyText)
	})

	rep := Report{Unique: true}
	for i := 0; i < len(pages); i++ {
		for j := i + 1; j < len(pages); j++ {
			score := jaccardSets(sets[i], sets[j])
			if score > threshold {
				rep.Unique = false
				rep.Pairs = append(rep.Pairs, Pair{URLA: pages[i].URL, URLB: pages[j].URL, Score: score})
			}
		}
	}
	return rep
}
