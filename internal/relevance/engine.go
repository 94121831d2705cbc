package relevance

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xxxsen/docask/internal/model"
)

type Segmentation int

const (
	SegmentSentences Segmentation = iota
	SegmentParagraphs
)

const (
	// AnswerAskSpecific is returned when the question yields no usable keywords.
	AnswerAskSpecific = "Please ask a more specific question so I can search the uploaded documents."
	// AnswerNotFound is returned when no document unit matches any keyword.
	AnswerNotFound = "I couldn't find anything in the uploaded documents that answers that question."
)

const (
	minSentenceLen     = 20
	phraseProbeLen     = 15
	wholeWordBonus     = 0.5
	distinctBonus      = 0.5
	phraseBonusScore   = 2.0
	fallbackConfidence = 0.4
)

// DefaultStopWords is the explicit stop-word set of the local variant. The
// server variant relies on the length rule alone.
var DefaultStopWords = []string{"what", "where", "when", "who", "how", "does", "this", "that", "with", "from"}

type Config struct {
	Segmentation  Segmentation
	StopWords     []string
	KeywordWeight float64
	PhraseBonus   bool
	MaxExcerptLen int
	MaxSources    int
}

// ServerConfig scores sentence units with the literal-phrase bonus enabled.
func ServerConfig() Config {
	return Config{
		Segmentation:  SegmentSentences,
		KeywordWeight: 3,
		PhraseBonus:   true,
		MaxExcerptLen: 300,
		MaxSources:    3,
	}
}

// LocalConfig scores paragraph units with the explicit stop-word set.
func LocalConfig() Config {
	return Config{
		Segmentation:  SegmentParagraphs,
		StopWords:     DefaultStopWords,
		KeywordWeight: 1,
		MaxExcerptLen: 250,
		MaxSources:    3,
	}
}

// Engine ranks document units by keyword overlap with a question. Query is a
// pure function of its inputs: identical question and documents always yield
// the identical result.
type Engine struct {
	cfg       Config
	stopWords map[string]struct{}
}

func New(cfg Config) *Engine {
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = 3
	}
	if cfg.MaxExcerptLen <= 0 {
		cfg.MaxExcerptLen = 300
	}
	if cfg.KeywordWeight <= 0 {
		cfg.KeywordWeight = 1
	}
	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Engine{cfg: cfg, stopWords: stop}
}

type Result struct {
	Answer     string
	Sources    []model.Source
	Confidence float64
	Matched    bool
}

// candidate is a transient scoring record for a single document unit.
type candidate struct {
	doc        *model.Document
	text       string
	score      float64
	matchCount int
}

func (e *Engine) Query(question string, docs []model.Document) Result {
	words := e.Keywords(question)
	if len(words) == 0 {
		return Result{Answer: AnswerAskSpecific, Sources: []model.Source{}}
	}
	keywords := compileKeywords(words)
	questionLower := strings.ToLower(strings.TrimSpace(question))

	var candidates []candidate
	for i := range docs {
		for _, unit := range e.segment(docs[i].Content) {
			score, matches := e.scoreUnit(unit, keywords, questionLower)
			if score > 0 {
				candidates = append(candidates, candidate{
					doc:        &docs[i],
					text:       unit,
					score:      score,
					matchCount: matches,
				})
			}
		}
	}
	if len(candidates) == 0 {
		return Result{Answer: AnswerNotFound, Sources: []model.Source{}}
	}

	// Score descending, ties broken by match count descending; stable so that
	// document order decides exact ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].matchCount > candidates[j].matchCount
	})

	top := candidates
	if len(top) > e.cfg.MaxSources {
		top = top[:e.cfg.MaxSources]
	}
	sources := make([]model.Source, 0, len(top))
	for _, c := range top {
		sources = append(sources, model.Source{
			Document: c.doc.Name,
			Excerpt:  Truncate(c.text, e.cfg.MaxExcerptLen),
		})
	}

	answer := sources[0].Excerpt
	if e.cfg.Segmentation == SegmentParagraphs {
		parts := make([]string, 0, len(sources))
		for _, s := range sources {
			parts = append(parts, s.Excerpt)
		}
		answer = strings.Join(parts, "\n\n")
	}
	return Result{
		Answer:     answer,
		Sources:    sources,
		Confidence: fallbackConfidence,
		Matched:    true,
	}
}

// Keywords lowercases the question, splits on whitespace, strips punctuation
// from token edges and drops short tokens and stop-words.
func (e *Engine) Keywords(question string) []string {
	fields := strings.Fields(strings.ToLower(question))
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(w) <= 3 {
			continue
		}
		if _, ok := e.stopWords[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func (e *Engine) scoreUnit(unit string, keywords []keyword, questionLower string) (float64, int) {
	unitLower := strings.ToLower(unit)
	var score float64
	matched := 0
	for _, kw := range keywords {
		if !strings.Contains(unitLower, kw.text) {
			continue
		}
		matched++
		score += e.cfg.KeywordWeight
		score += wholeWordBonus * float64(len(kw.re.FindAllStringIndex(unitLower, -1)))
	}
	if matched > 0 {
		score += distinctBonus * float64(matched)
	}
	if e.cfg.PhraseBonus {
		probe := questionLower
		if r := []rune(probe); len(r) > phraseProbeLen {
			probe = string(r[:phraseProbeLen])
		}
		probe = strings.TrimSpace(probe)
		if probe != "" && strings.Contains(unitLower, probe) {
			score += phraseBonusScore
		}
	}
	return score, matched
}

func (e *Engine) segment(content string) []string {
	if e.cfg.Segmentation == SegmentParagraphs {
		return splitParagraphs(content)
	}
	return splitSentences(content)
}

type keyword struct {
	text string
	re   *regexp.Regexp
}

func compileKeywords(words []string) []keyword {
	out := make([]keyword, 0, len(words))
	for _, w := range words {
		out = append(out, keyword{
			text: w,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`),
		})
	}
	return out
}

func splitSentences(content string) []string {
	parts := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	units := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > minSentenceLen {
			units = append(units, p)
		}
	}
	return units
}

var paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(content string) []string {
	parts := paragraphSplitRe.Split(content, -1)
	units := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			units = append(units, p)
		}
	}
	return units
}

// BestUnit returns the sentence of content that best matches the keywords.
// Matching here is word-substring inclusion, not whole-word matching; it backs
// the excerpt selection of the model-path source attribution.
func BestUnit(content string, keywords []string, maxLen int) (string, bool) {
	best := ""
	bestScore := 0
	for _, unit := range splitSentences(content) {
		words := strings.Fields(strings.ToLower(unit))
		score := 0
		for _, kw := range keywords {
			for _, w := range words {
				if strings.Contains(w, kw) {
					score++
				}
			}
		}
		if score > bestScore {
			bestScore = score
			best = unit
		}
	}
	if best == "" {
		return "", false
	}
	return Truncate(best, maxLen), true
}

// WholeWordCount counts whole-word occurrences of every keyword in content.
func WholeWordCount(content string, words []string) int {
	lower := strings.ToLower(content)
	total := 0
	for _, kw := range compileKeywords(words) {
		total += len(kw.re.FindAllStringIndex(lower, -1))
	}
	return total
}

// Truncate bounds s to max bytes, cutting at a rune boundary and marking the
// cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + "..."
}
