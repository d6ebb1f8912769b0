package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/assistant-bot/internal/core/embeddings"
	db "github.com/lueurxax/assistant-bot/internal/storage"
)

var (
	errEmbeddingDown = errors.New("embedding provider down")
	errVectorDown    = errors.New("vector index down")
	errFactsDown     = errors.New("facts table unavailable")
)

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}

	vec := make([]float32, 4)
	for i, c := range []byte(text) {
		vec[i%4] += float32(c)
	}

	return vec, nil
}

type fakeFactStore struct {
	core     map[string]string
	user     map[int64]map[string]string
	searchFn func(userID int64, query string, limit int) ([]db.FactRecord, error)
}

func newFakeFactStore() *fakeFactStore {
	return &fakeFactStore{
		core: make(map[string]string),
		user: make(map[int64]map[string]string),
	}
}

func (f *fakeFactStore) UpsertCoreFact(_ context.Context, key, value string, _ float32) error {
	f.core[key] = value
	return nil
}

func (f *fakeFactStore) UpsertUserFact(_ context.Context, userID int64, key, value string, _ float32) error {
	if f.user[userID] == nil {
		f.user[userID] = make(map[string]string)
	}

	f.user[userID][key] = value

	return nil
}

func (f *fakeFactStore) ListCoreFacts(_ context.Context) ([]db.CoreFact, error) {
	facts := make([]db.CoreFact, 0, len(f.core))
	for k, v := range f.core {
		facts = append(facts, db.CoreFact{Key: k, Value: v})
	}

	return facts, nil
}

func (f *fakeFactStore) ListUserFacts(_ context.Context, userID int64) ([]db.UserFact, error) {
	facts := make([]db.UserFact, 0, len(f.user[userID]))
	for k, v := range f.user[userID] {
		facts = append(facts, db.UserFact{UserID: userID, Key: k, Value: v})
	}

	return facts, nil
}

func (f *fakeFactStore) SearchFactsKeyword(_ context.Context, userID int64, query string, limit int) ([]db.FactRecord, error) {
	if f.searchFn != nil {
		return f.searchFn(userID, query, limit)
	}

	var records []db.FactRecord

	match := func(ownerID int64, key, value string) {
		if strings.Contains(key, query) || strings.Contains(value, query) {
			records = append(records, db.FactRecord{UserID: ownerID, Key: key, Value: value, CreatedAt: time.Now()})
		}
	}

	for k, v := range f.core {
		match(0, k, v)
	}

	for k, v := range f.user[userID] {
		match(userID, k, v)
	}

	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

type fakeTurnStore struct {
	turns     []db.ConversationTurn
	appendErr error
}

func (f *fakeTurnStore) AppendTurn(_ context.Context, turn db.ConversationTurn) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}

	turn.ID = "turn-1"
	f.turns = append(f.turns, turn)

	return turn.ID, nil
}

func (f *fakeTurnStore) RecentTurns(_ context.Context, userID int64, sessionID string, n int) ([]db.ConversationTurn, error) {
	var out []db.ConversationTurn

	for _, t := range f.turns {
		if t.UserID == userID && t.SessionID == sessionID {
			out = append(out, t)
		}
	}

	if len(out) > n {
		out = out[len(out)-n:]
	}

	return out, nil
}

type fakeVectorStore struct {
	entries   []db.VectorEntry
	searchErr error
	matches   []db.VectorMatch
	searched  bool
}

func (f *fakeVectorStore) SaveVectorEntry(_ context.Context, entry db.VectorEntry, _ []float32) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeVectorStore) SearchVectorEntries(_ context.Context, _ int64, _ []float32, _ int) ([]db.VectorMatch, error) {
	f.searched = true

	if f.searchErr != nil {
		return nil, f.searchErr
	}

	return f.matches, nil
}

func newTestStore(facts *fakeFactStore, turns *fakeTurnStore, vectors *fakeVectorStore, embedder embeddings.Client) *Store {
	logger := zerolog.Nop()

	return &Store{
		facts:    facts,
		turns:    turns,
		vectors:  vectors,
		embedder: embedder,
		logger:   &logger,
	}
}

func TestStore_UpsertFactIndexesIt(t *testing.T) {
	facts := newFakeFactStore()
	vectors := &fakeVectorStore{}
	store := newTestStore(facts, &fakeTurnStore{}, vectors, &fakeEmbedder{})

	err := store.UpsertUserFact(context.Background(), 42, "coffee", "espresso", 1.0)
	require.NoError(t, err)

	require.Equal(t, "espresso", facts.user[42]["coffee"])
	require.Len(t, vectors.entries, 1)
	require.Equal(t, db.VectorKindFact, vectors.entries[0].Kind)
	require.Equal(t, "coffee: espresso", vectors.entries[0].Text)
}

func TestStore_UpsertFactSurvivesEmbeddingFailure(t *testing.T) {
	facts := newFakeFactStore()
	vectors := &fakeVectorStore{}
	store := newTestStore(facts, &fakeTurnStore{}, vectors, &fakeEmbedder{err: errEmbeddingDown})

	err := store.UpsertCoreFact(context.Background(), "timezone", "UTC", 1.0)
	require.NoError(t, err)

	require.Equal(t, "UTC", facts.core["timezone"])
	require.Empty(t, vectors.entries)
}

func TestStore_AppendTurnReadYourWrites(t *testing.T) {
	turns := &fakeTurnStore{}
	vectors := &fakeVectorStore{}
	store := newTestStore(newFakeFactStore(), turns, vectors, &fakeEmbedder{})

	turn := db.ConversationTurn{UserID: 7, SessionID: "session-a", Role: db.RoleUser, Text: "hello"}
	require.NoError(t, store.AppendTurn(context.Background(), turn))

	got, err := store.RecentTurns(context.Background(), 7, "session-a", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hello", got[0].Text)

	// The indexed turn carries the durable row id.
	require.Len(t, vectors.entries, 1)
	require.Equal(t, db.VectorKindTurn, vectors.entries[0].Kind)
	require.Equal(t, "turn-1", vectors.entries[0].RefID)
}

func TestStore_AppendTurnPropagatesWriteError(t *testing.T) {
	turns := &fakeTurnStore{appendErr: errFactsDown}
	store := newTestStore(newFakeFactStore(), turns, &fakeVectorStore{}, &fakeEmbedder{})

	err := store.AppendTurn(context.Background(), db.ConversationTurn{UserID: 7, Role: db.RoleUser, Text: "hello"})
	require.ErrorIs(t, err, errFactsDown)
}

func TestStore_SearchUsesVectorIndex(t *testing.T) {
	vectors := &fakeVectorStore{
		matches: []db.VectorMatch{
			{Entry: db.VectorEntry{Kind: db.VectorKindTurn, Text: "user: I run marathons"}, Score: 0.92},
		},
	}
	store := newTestStore(newFakeFactStore(), &fakeTurnStore{}, vectors, &fakeEmbedder{})

	got, err := store.Search(context.Background(), 7, "running", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, db.VectorKindTurn, got[0].Kind)
	require.InDelta(t, 0.92, got[0].Score, 1e-6)
}

func TestStore_SearchFallsBackWhenEmbeddingFails(t *testing.T) {
	facts := newFakeFactStore()
	facts.core["hobby"] = "running every morning"

	store := newTestStore(facts, &fakeTurnStore{}, &fakeVectorStore{}, &fakeEmbedder{err: errEmbeddingDown})

	got, err := store.Search(context.Background(), 7, "running", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hobby: running every morning", got[0].Text)
	require.Equal(t, db.VectorKindFact, got[0].Kind)
}

func TestStore_SearchFallsBackWhenVectorSearchFails(t *testing.T) {
	facts := newFakeFactStore()
	facts.core["hobby"] = "running every morning"

	vectors := &fakeVectorStore{searchErr: errVectorDown}
	store := newTestStore(facts, &fakeTurnStore{}, vectors, &fakeEmbedder{})

	got, err := store.Search(context.Background(), 7, "running", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestStore_RecentTurnsScopedToSession(t *testing.T) {
	turns := &fakeTurnStore{}
	store := newTestStore(newFakeFactStore(), turns, &fakeVectorStore{}, &fakeEmbedder{})

	old := db.ConversationTurn{UserID: 7, SessionID: "before-restart", Role: db.RoleUser, Text: "old chat"}
	current := db.ConversationTurn{UserID: 7, SessionID: "after-restart", Role: db.RoleUser, Text: "new chat"}

	require.NoError(t, store.AppendTurn(context.Background(), old))
	require.NoError(t, store.AppendTurn(context.Background(), current))

	got, err := store.RecentTurns(context.Background(), 7, "after-restart", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "new chat", got[0].Text)
}

func TestStore_NilEmbedderSearchesKeywordsOnly(t *testing.T) {
	facts := newFakeFactStore()
	facts.core["budget"] = "500 eur monthly"

	// Vector hits that must never surface without an embedding backend.
	vectors := &fakeVectorStore{
		matches: []db.VectorMatch{
			{Entry: db.VectorEntry{Kind: db.VectorKindTurn, Text: "user: my cat is named Miso"}, Score: 0.99},
		},
	}

	store := newTestStore(facts, &fakeTurnStore{}, vectors, nil)

	got, err := store.Search(context.Background(), 7, "budget", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "budget: 500 eur monthly", got[0].Text)
	require.Equal(t, db.VectorKindFact, got[0].Kind)
	require.False(t, vectors.searched)
}

func TestStore_NilEmbedderSkipsIndexing(t *testing.T) {
	facts := newFakeFactStore()
	turns := &fakeTurnStore{}
	vectors := &fakeVectorStore{}
	store := newTestStore(facts, turns, vectors, nil)

	require.NoError(t, store.UpsertUserFact(context.Background(), 7, "coffee", "espresso", 1.0))
	require.NoError(t, store.AppendTurn(context.Background(), db.ConversationTurn{UserID: 7, Role: db.RoleUser, Text: "hello"}))

	// Durable writes land, the semantic index stays untouched.
	require.Equal(t, "espresso", facts.user[7]["coffee"])
	require.Len(t, turns.turns, 1)
	require.Empty(t, vectors.entries)
}

func TestStore_SearchBothPathsFail(t *testing.T) {
	facts := newFakeFactStore()
	facts.searchFn = func(_ int64, _ string, _ int) ([]db.FactRecord, error) {
		return nil, errFactsDown
	}

	store := newTestStore(facts, &fakeTurnStore{}, &fakeVectorStore{searchErr: errVectorDown}, &fakeEmbedder{})

	_, err := store.Search(context.Background(), 7, "running", 5)
	require.ErrorIs(t, err, errFactsDown)
}
