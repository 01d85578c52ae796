package feedback

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"classifybot/internal/domain"
)

// termWeights maps a term to its TF-IDF weight within one document.
type termWeights map[string]float64

// corpus indexes corrections by the terms of their input and department
// name, so a request that mentions a department also recalls corrections
// filed under it.
type corpus struct {
	entries []domain.FeedbackEntry
	idf     map[string]float64
	docs    []termWeights
}

// SelectRelevant returns up to k corrections that best match query, most
// similar first. A correction whose input equals the query always leads.
// k <= 0 or k >= len(entries) returns entries unchanged.
func SelectRelevant(entries []domain.FeedbackEntry, query string, k int) []domain.FeedbackEntry {
	if k <= 0 || len(entries) <= k {
		return entries
	}
	return newCorpus(entries).top(query, k)
}

// termCounts lowercases s and counts its runs of letters and digits.
func termCounts(s string) map[string]int {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	counts := make(map[string]int, len(fields))
	for _, f := range fields {
		counts[f]++
	}
	return counts
}

func newCorpus(entries []domain.FeedbackEntry) *corpus {
	counts := make([]map[string]int, len(entries))
	df := make(map[string]int)
	for i, e := range entries {
		counts[i] = termCounts(e.Input + " " + e.Department)
		for term := range counts[i] {
			df[term]++
		}
	}

	c := &corpus{entries: entries, idf: make(map[string]float64, len(df))}
	n := float64(len(entries))
	for term, d := range df {
		c.idf[term] = math.Log(n/float64(d)) + 1
	}
	c.docs = make([]termWeights, len(entries))
	for i, tc := range counts {
		c.docs[i] = c.weigh(tc)
	}
	return c
}

// weigh drops terms the corpus has never seen.
func (c *corpus) weigh(counts map[string]int) termWeights {
	w := make(termWeights, len(counts))
	for term, n := range counts {
		if idf, ok := c.idf[term]; ok {
			w[term] = float64(n) * idf
		}
	}
	return w
}

func (c *corpus) top(query string, k int) []domain.FeedbackEntry {
	q := c.weigh(termCounts(query))
	want := strings.TrimSpace(query)

	type match struct {
		index int
		exact bool
		score float64
	}
	var matches []match
	for i, doc := range c.docs {
		m := match{
			index: i,
			exact: strings.TrimSpace(c.entries[i].Input) == want,
			score: similarity(q, doc),
		}
		if m.exact || m.score > 0 {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].exact != matches[b].exact {
			return matches[a].exact
		}
		return matches[a].score > matches[b].score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	out := make([]domain.FeedbackEntry, len(matches))
	for i, m := range matches {
		out[i] = c.entries[m.index]
	}
	return out
}

// similarity is the cosine of the angle between a and b.
func similarity(a, b termWeights) float64 {
	na, nb := magnitude(a), magnitude(b)
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for term, wa := range a {
		dot += wa * b[term]
	}
	return dot / (na * nb)
}

func magnitude(w termWeights) float64 {
	var sum float64
	for _, v := range w {
		sum += v * v
	}
	return math.Sqrt(sum)
}
