// Package memory implements the bot's layered memory: durable facts,
// append-only conversation turns, and a semantic index over both.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/assistant-bot/internal/core/embeddings"
	"github.com/lueurxax/assistant-bot/internal/platform/observability"
	db "github.com/lueurxax/assistant-bot/internal/storage"
)

// Search backend labels for metrics.
const (
	backendVector  = "vector"
	backendKeyword = "keyword"
)

// Write kind labels for metrics.
const (
	writeKindCoreFact = "core_fact"
	writeKindUserFact = "user_fact"
	writeKindTurn     = "turn"
)

// Record is a unified memory search hit.
type Record struct {
	Kind      string
	Text      string
	Score     float32
	CreatedAt time.Time
}

// factStore is the fact persistence surface the store needs.
type factStore interface {
	UpsertCoreFact(ctx context.Context, key, value string, confidence float32) error
	UpsertUserFact(ctx context.Context, userID int64, key, value string, confidence float32) error
	ListCoreFacts(ctx context.Context) ([]db.CoreFact, error)
	ListUserFacts(ctx context.Context, userID int64) ([]db.UserFact, error)
	SearchFactsKeyword(ctx context.Context, userID int64, query string, limit int) ([]db.FactRecord, error)
}

// turnStore is the conversation persistence surface the store needs.
type turnStore interface {
	AppendTurn(ctx context.Context, turn db.ConversationTurn) (string, error)
	RecentTurns(ctx context.Context, userID int64, sessionID string, n int) ([]db.ConversationTurn, error)
}

// vectorStore is the semantic index surface the store needs.
type vectorStore interface {
	SaveVectorEntry(ctx context.Context, entry db.VectorEntry, embedding []float32) error
	SearchVectorEntries(ctx context.Context, userID int64, embedding []float32, topK int) ([]db.VectorMatch, error)
}

// Store combines durable fact and turn storage with a best-effort semantic
// index. Reads after a completed write observe that write.
type Store struct {
	facts    factStore
	turns    turnStore
	vectors  vectorStore
	embedder embeddings.Client
	logger   *zerolog.Logger
}

// NewStore creates a memory store over the given repositories. A nil
// embedder disables the semantic index entirely: nothing is embedded and
// Search runs on keyword matching.
func NewStore(database *db.DB, embedder embeddings.Client, logger *zerolog.Logger) *Store {
	return &Store{
		facts:    database,
		turns:    database,
		vectors:  database,
		embedder: embedder,
		logger:   logger,
	}
}

// UpsertCoreFact stores or overwrites a global fact and indexes it.
func (s *Store) UpsertCoreFact(ctx context.Context, key, value string, confidence float32) error {
	if err := s.facts.UpsertCoreFact(ctx, key, value, confidence); err != nil {
		observability.MemoryWrites.WithLabelValues(writeKindCoreFact, "error").Inc()

		return err
	}

	observability.MemoryWrites.WithLabelValues(writeKindCoreFact, "ok").Inc()

	s.indexFact(ctx, 0, key, value)

	return nil
}

// UpsertUserFact stores or overwrites a per-user fact and indexes it.
// Last write wins for the same (user, key).
func (s *Store) UpsertUserFact(ctx context.Context, userID int64, key, value string, confidence float32) error {
	if err := s.facts.UpsertUserFact(ctx, userID, key, value, confidence); err != nil {
		observability.MemoryWrites.WithLabelValues(writeKindUserFact, "error").Inc()

		return err
	}

	observability.MemoryWrites.WithLabelValues(writeKindUserFact, "ok").Inc()

	s.indexFact(ctx, userID, key, value)

	return nil
}

// ListCoreFacts returns all global facts.
func (s *Store) ListCoreFacts(ctx context.Context) ([]db.CoreFact, error) {
	return s.facts.ListCoreFacts(ctx)
}

// ListUserFacts returns all facts for a user.
func (s *Store) ListUserFacts(ctx context.Context, userID int64) ([]db.UserFact, error) {
	return s.facts.ListUserFacts(ctx, userID)
}

// AppendTurn stores a conversation turn and indexes it. The durable write
// must succeed; indexing is best-effort.
func (s *Store) AppendTurn(ctx context.Context, turn db.ConversationTurn) error {
	id, err := s.turns.AppendTurn(ctx, turn)
	if err != nil {
		observability.MemoryWrites.WithLabelValues(writeKindTurn, "error").Inc()

		return err
	}

	observability.MemoryWrites.WithLabelValues(writeKindTurn, "ok").Inc()

	s.indexTurn(ctx, turn.UserID, id, turn.Role, turn.Text)

	return nil
}

// RecentTurns returns the last n turns of a user's session, most recent
// last.
func (s *Store) RecentTurns(ctx context.Context, userID int64, sessionID string, n int) ([]db.ConversationTurn, error) {
	return s.turns.RecentTurns(ctx, userID, sessionID, n)
}

// Search finds memory entries semantically close to the query. Without an
// embedder it matches keywords over facts; when embedding or vector search
// fails it degrades to the same keyword match instead of failing the
// request.
func (s *Store) Search(ctx context.Context, userID int64, query string, topK int) ([]Record, error) {
	if s.embedder == nil {
		return s.keywordSearch(ctx, userID, query, topK)
	}

	embedding, err := s.embedder.GetEmbedding(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("embedding unavailable, falling back to keyword search")
		observability.MemorySearchFallbacks.Inc()

		return s.keywordSearch(ctx, userID, query, topK)
	}

	matches, err := s.vectors.SearchVectorEntries(ctx, userID, embedding, topK)
	if err != nil {
		s.logger.Warn().Err(err).Msg("vector search failed, falling back to keyword search")
		observability.MemorySearchFallbacks.Inc()

		return s.keywordSearch(ctx, userID, query, topK)
	}

	observability.MemorySearches.WithLabelValues(backendVector).Inc()

	records := make([]Record, 0, len(matches))
	for _, m := range matches {
		records = append(records, Record{
			Kind:      m.Entry.Kind,
			Text:      m.Entry.Text,
			Score:     m.Score,
			CreatedAt: m.Entry.CreatedAt,
		})
	}

	return records, nil
}

// keywordSearch matches the query against fact keys and values. It serves
// both the no-embedder configuration and the degraded vector path.
func (s *Store) keywordSearch(ctx context.Context, userID int64, query string, topK int) ([]Record, error) {
	observability.MemorySearches.WithLabelValues(backendKeyword).Inc()

	facts, err := s.facts.SearchFactsKeyword(ctx, userID, query, topK)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	records := make([]Record, 0, len(facts))
	for _, f := range facts {
		records = append(records, Record{
			Kind:      db.VectorKindFact,
			Text:      fmt.Sprintf("%s: %s", f.Key, f.Value),
			CreatedAt: f.CreatedAt,
		})
	}

	return records, nil
}

// indexFact embeds and stores a fact in the semantic index. Failures are
// logged, never propagated.
func (s *Store) indexFact(ctx context.Context, userID int64, key, value string) {
	if s.embedder == nil {
		return
	}

	text := fmt.Sprintf("%s: %s", key, value)

	embedding, err := s.embedder.GetEmbedding(ctx, text)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("skipping fact indexing, embedding failed")

		return
	}

	entry := db.VectorEntry{
		UserID: userID,
		Kind:   db.VectorKindFact,
		Text:   text,
	}

	if err := s.vectors.SaveVectorEntry(ctx, entry, embedding); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to index fact")
	}
}

// indexTurn embeds and stores a conversation turn in the semantic index.
// Failures are logged, never propagated.
func (s *Store) indexTurn(ctx context.Context, userID int64, turnID, role, text string) {
	if s.embedder == nil {
		return
	}

	embedding, err := s.embedder.GetEmbedding(ctx, text)
	if err != nil {
		s.logger.Warn().Err(err).Msg("skipping turn indexing, embedding failed")

		return
	}

	entry := db.VectorEntry{
		UserID: userID,
		Kind:   db.VectorKindTurn,
		RefID:  turnID,
		Text:   fmt.Sprintf("%s: %s", role, text),
	}

	if err := s.vectors.SaveVectorEntry(ctx, entry, embedding); err != nil {
		s.logger.Warn().Err(err).Msg("failed to index turn")
	}
}
