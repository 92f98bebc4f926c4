package ui

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// FilterConfig bundles tuning parameters for the content-type filter.
type FilterConfig struct {
	MinCoverage float64 // minimal share of the query that must match
	MaxSpread   int     // maximal distance between first and last match index
	MaxResults  int     // upper limit of returned results
}

var defaultFilterCfg = FilterConfig{
	MinCoverage: 0.6,
	MaxSpread:   40,
	MaxResults:  20,
}

// filterContentTypes narrows the known content types by a fuzzy query. An
// empty query returns everything; a plain substring hit wins over fuzzy
// matching.
func filterContentTypes(q string, types []string, cfg FilterConfig) []string {
	q = strings.TrimSpace(strings.ToLower(q))
	if q == "" {
		return append([]string(nil), types...)
	}

	sub := make([]string, 0, len(types))
	for _, t := range types {
		if strings.Contains(strings.ToLower(t), q) {
			sub = append(sub, t)
			if len(sub) >= cfg.MaxResults {
				break
			}
		}
	}
	if len(sub) > 0 {
		return sub
	}

	matches := fuzzy.Find(q, types)
	pruned := make([]string, 0, len(matches))
	for _, mt := range matches {
		if matchCoverage(q, mt) < cfg.MinCoverage {
			continue
		}
		if matchSpread(mt) > cfg.MaxSpread {
			continue
		}
		pruned = append(pruned, types[mt.Index])
		if len(pruned) >= cfg.MaxResults {
			break
		}
	}
	if len(pruned) == 0 {
		for i := 0; i < len(matches) && i < cfg.MaxResults; i++ {
			pruned = append(pruned, types[matches[i].Index])
		}
	}
	return pruned
}

// matchCoverage returns the ratio of matched characters to the query length.
func matchCoverage(q string, m fuzzy.Match) float64 {
	if len(q) == 0 {
		return 1
	}
	return float64(len(m.MatchedIndexes)) / float64(len(q))
}

// matchSpread returns the distance between the first and last matched index.
func matchSpread(m fuzzy.Match) int {
	if len(m.MatchedIndexes) == 0 {
		return 0
	}
	return m.MatchedIndexes[len(m.MatchedIndexes)-1] - m.MatchedIndexes[0]
}
