// Package search provides a small, deterministic, concurrency-safe in-memory
// index over call transcripts. Each document (one call) is split into
// passages (speaker turns); queries are scored against every passage and the
// best passage per document is returned.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options for passage filtering, stop words and caps
//   - Unicode-aware tokenization
//   - Immutable after construction (safe for concurrent use)
//   - Deterministic ordering for ties
//
// Scoring uses Jaccard similarity between the query token set and each
// passage's token set: score = |Q ∩ P| / |Q ∪ P|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Document is one searchable unit, typically a call transcript.
type Document struct {
	ID   string
	Text string
}

// Result is the best-matching passage of one document.
type Result struct {
	DocID   string
	Snippet string
	Score   float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

// Option configures index construction.
type Option func(*config)

type config struct {
	minPassageRunes int
	stopwords       map[string]struct{}
	maxPassages     int
}

func defaultConfig() config {
	return config{
		minPassageRunes: 3,
		stopwords:       nil,
		maxPassages:     0,
	}
}

// WithMinPassageRunes drops passages shorter than n runes.
func WithMinPassageRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minPassageRunes = n
		}
	}
}

// WithStopwords removes the given words from both queries and passages.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxPassages caps the total number of indexed passages.
func WithMaxPassages(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPassages = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type passage struct {
	docID  string
	text   string
	tokens map[string]struct{}
}

type index struct {
	cfg      config
	passages []passage
}

// NewIndex builds an Index over docs. Document text is split into passages
// with SplitTurns.
func NewIndex(docs []Document, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	idx := &index{cfg: cfg}
	for _, d := range docs {
		for _, raw := range SplitTurns(d.Text) {
			t := strings.TrimSpace(normalizeWhitespace(raw))
			if t == "" {
				continue
			}
			if cfg.minPassageRunes > 0 && utf8.RuneCountInString(t) < cfg.minPassageRunes {
				continue
			}
			toks := tokenize(t, cfg.stopwords)
			if len(toks) == 0 {
				continue
			}
			idx.passages = append(idx.passages, passage{docID: d.ID, text: t, tokens: toks})
			if cfg.maxPassages > 0 && len(idx.passages) >= cfg.maxPassages {
				return idx
			}
		}
	}
	return idx
}

// TopK returns up to k documents ranked by their best passage.
func (i *index) TopK(q string, k int) []Result {
	if len(i.passages) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		Result
		lenRunes int
	}
	best := make(map[string]scored)
	for _, p := range i.passages {
		over := overlap(qTokens, p.tokens)
		if over == 0 {
			continue
		}
		score := float64(over) / float64(qLen+len(p.tokens)-over)
		cand := scored{Result: Result{DocID: p.docID, Snippet: p.text, Score: score}, lenRunes: utf8.RuneCountInString(p.text)}
		if cur, ok := best[p.docID]; !ok || better(cand.Score, cand.lenRunes, cand.Snippet, cur.Score, cur.lenRunes, cur.Snippet) {
			best[p.docID] = cand
		}
	}
	if len(best) == 0 {
		return nil
	}

	buf := make([]scored, 0, len(best))
	for _, s := range best {
		buf = append(buf, s)
	}
	sort.Slice(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].DocID < buf[b].DocID
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = buf[n].Result
	}
	return out
}

// better orders passages: higher score, then shorter, then lexical.
func better(s1 float64, l1 int, t1 string, s2 float64, l2 int, t2 string) bool {
	if s1 != s2 {
		return s1 > s2
	}
	if l1 != l2 {
		return l1 < l2
	}
	return t1 < t2
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
