package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/docstore"
	"github.com/xxxsen/docask/internal/model"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
	"github.com/xxxsen/docask/internal/relevance"
)

type fakeCompleter struct {
	answer   string
	err      error
	calls    int
	lastUser string
}

func (f *fakeCompleter) Complete(ctx context.Context, system string, user string) (string, error) {
	f.calls++
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func seededStore(t *testing.T) docstore.Store {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemory()
	require.NoError(t, store.Add(ctx, &model.Document{
		ID:      "1",
		Name:    "policy.txt",
		Content: "Vacation requests must be submitted 2 weeks in advance. Approval is manager discretion.",
	}))
	require.NoError(t, store.Add(ctx, &model.Document{
		ID:      "2",
		Name:    "expenses.txt",
		Content: "Expense reports are reimbursed at the end of each month after finance review.",
	}))
	return store
}

func newAnswerService(store docstore.Store, completer *fakeCompleter) *AnswerService {
	engine := relevance.New(relevance.ServerConfig())
	if completer == nil {
		return NewAnswerService(store, nil, engine, AnswerConfig{})
	}
	return NewAnswerService(store, completer, engine, AnswerConfig{})
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	completer := &fakeCompleter{answer: "irrelevant"}
	svc := newAnswerService(seededStore(t), completer)

	_, err := svc.Ask(context.Background(), "   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Zero(t, completer.calls)
}

func TestAskRejectsEmptyStore(t *testing.T) {
	completer := &fakeCompleter{answer: "irrelevant"}
	svc := newAnswerService(docstore.NewMemory(), completer)

	_, err := svc.Ask(context.Background(), "How many weeks notice for vacation?")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Zero(t, completer.calls)
}

func TestAskModelPathCitesNamedDocument(t *testing.T) {
	completer := &fakeCompleter{answer: "According to policy.txt, requests need two weeks notice."}
	svc := newAnswerService(seededStore(t), completer)

	res, err := svc.Ask(context.Background(), "How many weeks notice for vacation?")
	require.NoError(t, err)
	require.Equal(t, model.MethodModel, res.Method)
	require.Equal(t, modelConfidence, res.Confidence)
	require.Len(t, res.Sources, 1)
	require.Equal(t, "policy.txt", res.Sources[0].Document)
	require.Contains(t, res.Sources[0].Excerpt, "2 weeks in advance")
}

func TestAskModelFailureFallsBack(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("connection refused")}
	svc := newAnswerService(seededStore(t), completer)

	res, err := svc.Ask(context.Background(), "How many weeks notice for vacation?")
	require.NoError(t, err)
	require.Equal(t, model.MethodFallback, res.Method)
	require.NotEmpty(t, res.Answer)
	require.Contains(t, res.Answer, "2 weeks in advance")
	require.Less(t, res.Confidence, modelConfidence)
	require.NotEmpty(t, res.Sources)
	require.Equal(t, "policy.txt", res.Sources[0].Document)
}

func TestAskWithoutCompleterUsesFallback(t *testing.T) {
	svc := newAnswerService(seededStore(t), nil)

	res, err := svc.Ask(context.Background(), "How many weeks notice for vacation?")
	require.NoError(t, err)
	require.Equal(t, model.MethodFallback, res.Method)
	require.Contains(t, res.Answer, "2 weeks in advance")
}

func TestAskAttributionReRanksWhenAnswerNamesNoDocument(t *testing.T) {
	completer := &fakeCompleter{answer: "The notice period is two weeks."}
	svc := newAnswerService(seededStore(t), completer)

	res, err := svc.Ask(context.Background(), "How many weeks notice for vacation?")
	require.NoError(t, err)
	require.Equal(t, model.MethodModel, res.Method)
	require.NotEmpty(t, res.Sources)
	require.LessOrEqual(t, len(res.Sources), 3)
	require.Equal(t, "policy.txt", res.Sources[0].Document)
}

func TestAskCachesModelAnswersUntilStoreChanges(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{answer: "According to policy.txt, two weeks."}
	store := seededStore(t)
	svc := newAnswerService(store, completer)

	first, err := svc.Ask(ctx, "How many weeks notice for vacation?")
	require.NoError(t, err)
	second, err := svc.Ask(ctx, "How many weeks notice for vacation?")
	require.NoError(t, err)
	require.Equal(t, 1, completer.calls)
	require.Equal(t, first, second)

	// A store mutation invalidates the cached answer via the revision key.
	require.NoError(t, store.Add(ctx, &model.Document{ID: "3", Name: "extra.txt", Content: "Extra vacation clause applies to managers only."}))
	_, err = svc.Ask(ctx, "How many weeks notice for vacation?")
	require.NoError(t, err)
	require.Equal(t, 2, completer.calls)
}

func TestAskPromptStaysBoundedWithManyDocuments(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	long := strings.Repeat("vacation policy clause. ", 200)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Add(ctx, &model.Document{
			ID:      strconv.Itoa(i),
			Name:    "doc" + strconv.Itoa(i) + ".txt",
			Content: long,
		}))
	}
	completer := &fakeCompleter{answer: "According to doc0.txt, clauses apply."}
	svc := NewAnswerService(store, completer, relevance.New(relevance.ServerConfig()), AnswerConfig{MaxPromptChars: 2})

	_, err := svc.Ask(ctx, "How many weeks notice for vacation?")
	require.NoError(t, err)
	require.Equal(t, 1, completer.calls)
	// A budget smaller than the document count must still truncate every
	// document instead of disabling the cap.
	require.NotContains(t, completer.lastUser, long)
	require.Less(t, len(completer.lastUser), 500)
}

func TestAskFallbackZeroMatch(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("upstream down")}
	svc := newAnswerService(seededStore(t), completer)

	res, err := svc.Ask(context.Background(), "quantum chromodynamics lattice")
	require.NoError(t, err)
	require.Equal(t, model.MethodFallback, res.Method)
	require.Equal(t, relevance.AnswerNotFound, res.Answer)
	require.Empty(t, res.Sources)
}
