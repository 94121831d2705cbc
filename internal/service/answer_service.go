package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docask/internal/ai"
	"github.com/xxxsen/docask/internal/docstore"
	"github.com/xxxsen/docask/internal/model"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
	"github.com/xxxsen/docask/internal/relevance"
)

const (
	modelConfidence  = 0.9
	answerExcerptLen = 300
	maxAnswerSources = 3
	// reRankKeywordWeight is applied per whole-word keyword occurrence when
	// the model answer names no document and citations must be inferred.
	reRankKeywordWeight = 2
)

const systemPrompt = `You are a document question answering assistant.
Answer using ONLY the documents provided in the user message; do not use outside knowledge.
Always name the document file that supports your answer.
If the documents do not contain the answer, say that they do not.`

type AnswerConfig struct {
	Timeout        time.Duration
	MaxPromptChars int
}

// AnswerService answers questions over the document store, preferring a
// remote completion model and degrading to the relevance engine on any model
// failure. Ask never surfaces a model error to its caller.
type AnswerService struct {
	store     docstore.Store
	completer ai.ICompleter
	engine    *relevance.Engine
	cfg       AnswerConfig
	cache     *expirable.LRU[string, model.AnswerResult]
}

func NewAnswerService(store docstore.Store, completer ai.ICompleter, engine *relevance.Engine, cfg AnswerConfig) *AnswerService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = 24000
	}
	return &AnswerService{
		store:     store,
		completer: completer,
		engine:    engine,
		cfg:       cfg,
		cache:     expirable.NewLRU[string, model.AnswerResult](1024, nil, time.Hour),
	}
}

func (s *AnswerService) Ask(ctx context.Context, question string) (*model.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", appErr.ErrInvalid)
	}
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents uploaded", appErr.ErrInvalid)
	}
	if s.completer == nil {
		return s.fallback(question, docs), nil
	}

	cacheKey := s.cacheKey(ctx, question)
	if cacheKey != "" {
		if cached, ok := s.cache.Get(cacheKey); ok {
			out := cached
			return &out, nil
		}
	}

	answer, err := s.completeModel(ctx, question, docs)
	if err != nil {
		logutil.GetLogger(ctx).Warn("model answer failed, using fallback search", zap.Error(err))
		return s.fallback(question, docs), nil
	}
	result := &model.AnswerResult{
		Answer:     answer,
		Sources:    s.attributeSources(answer, question, docs),
		Confidence: modelConfidence,
		Method:     model.MethodModel,
	}
	if cacheKey != "" {
		s.cache.Add(cacheKey, *result)
	}
	return result, nil
}

func (s *AnswerService) fallback(question string, docs []model.Document) *model.AnswerResult {
	res := s.engine.Query(question, docs)
	return &model.AnswerResult{
		Answer:     res.Answer,
		Sources:    res.Sources,
		Confidence: res.Confidence,
		Method:     model.MethodFallback,
	}
}

func (s *AnswerService) completeModel(ctx context.Context, question string, docs []model.Document) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	// Truncate treats a non-positive limit as unbounded, so the per-document
	// budget must never fall below one byte.
	perDoc := s.cfg.MaxPromptChars / len(docs)
	if perDoc < 1 {
		perDoc = 1
	}
	var b strings.Builder
	b.WriteString("Documents:\n\n")
	for _, doc := range docs {
		b.WriteString("--- " + doc.Name + " ---\n")
		b.WriteString(relevance.Truncate(doc.Content, perDoc))
		b.WriteString("\n\n")
	}
	b.WriteString("Question: " + question)

	answer, err := s.completer.Complete(ctx, systemPrompt, b.String())
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("empty model answer")
	}
	return answer, nil
}

// attributeSources decides which documents a model answer cites: first by
// literal document-name mention (with or without extension), then by keyword
// re-ranking over all documents. The name heuristic can misattribute when
// names are generic; that behavior is intentional.
func (s *AnswerService) attributeSources(answer, question string, docs []model.Document) []model.Source {
	keywords := s.engine.Keywords(question)
	answerLower := strings.ToLower(answer)

	cited := make([]model.Document, 0, maxAnswerSources)
	for _, doc := range docs {
		name := strings.ToLower(doc.Name)
		bare := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.Contains(answerLower, name) || (bare != "" && strings.Contains(answerLower, bare)) {
			cited = append(cited, doc)
		}
	}
	if len(cited) == 0 {
		cited = rankByKeywords(docs, keywords)
	}
	if len(cited) > maxAnswerSources {
		cited = cited[:maxAnswerSources]
	}

	sources := make([]model.Source, 0, len(cited))
	for _, doc := range cited {
		excerpt, ok := relevance.BestUnit(doc.Content, keywords, answerExcerptLen)
		if !ok {
			excerpt = relevance.Truncate(doc.Content, answerExcerptLen)
		}
		sources = append(sources, model.Source{Document: doc.Name, Excerpt: excerpt})
	}
	return sources
}

func rankByKeywords(docs []model.Document, keywords []string) []model.Document {
	type scored struct {
		doc   model.Document
		score int
	}
	ranked := make([]scored, 0, len(docs))
	for _, doc := range docs {
		ranked = append(ranked, scored{
			doc:   doc,
			score: reRankKeywordWeight * relevance.WholeWordCount(doc.Content, keywords),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	out := make([]model.Document, 0, maxAnswerSources)
	for _, item := range ranked {
		out = append(out, item.doc)
		if len(out) == maxAnswerSources {
			break
		}
	}
	return out
}

func (s *AnswerService) cacheKey(ctx context.Context, question string) string {
	revision, err := s.store.Revision(ctx)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256([]byte(question))
	return hex.EncodeToString(hash[:]) + ":" + strconv.FormatInt(revision, 10)
}
