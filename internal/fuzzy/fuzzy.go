// Package fuzzy ranks candidate command names by edit distance for
// "did you mean" suggestions.
package fuzzy

import (
	"sort"
	"strings"
)

// Matcher finds near matches within a maximum edit distance
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a matcher. Inputs shorter than two runes never match.
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{maxDistance: maxDistance, minLength: 2}
}

// Match is one ranked suggestion
type Match struct {
	Value    string
	Distance int
}

// FindBest returns the closest candidate or "" when none is close enough.
func (m *Matcher) FindBest(input string, candidates []string) string {
	matches := m.FindMatches(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// FindMatches returns candidates within the distance bound ordered by
// distance, then by shared prefix length, then by candidate order.
// Exact (case-insensitive) matches are skipped.
func (m *Matcher) FindMatches(input string, candidates []string) []Match {
	in := []rune(strings.ToLower(input))
	if len(in) < m.minLength {
		return nil
	}

	type ranked struct {
		Match
		prefix int
		pos    int
	}
	var found []ranked
	for i, c := range candidates {
		cand := []rune(strings.ToLower(c))
		d := m.distance(in, cand)
		if d == 0 || d > m.maxDistance {
			continue
		}
		found = append(found, ranked{Match{Value: c, Distance: d}, commonPrefix(in, cand), i})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Distance != found[j].Distance {
			return found[i].Distance < found[j].Distance
		}
		if found[i].prefix != found[j].prefix {
			return found[i].prefix > found[j].prefix
		}
		return found[i].pos < found[j].pos
	})

	out := make([]Match, len(found))
	for i := range found {
		out[i] = found[i].Match
	}
	return out
}

// distance is a two-row Levenshtein with early exit past maxDistance.
func (m *Matcher) distance(a, b []rune) int {
	if abs(len(a)-len(b)) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	cur := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(b); j++ {
		cur[0] = j
		rowMin := cur[0]
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[i] = min(prev[i]+1, cur[i-1]+1, prev[i-1]+cost)
			rowMin = min(rowMin, cur[i])
		}
		if rowMin > m.maxDistance {
			return m.maxDistance + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(a)]
}

func commonPrefix(a, b []rune) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
