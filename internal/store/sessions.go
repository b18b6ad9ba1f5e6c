// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/pdiddy/research-discovery/pkg/types"
)

// DefaultHistoryLimit is the number of sessions ListSessions returns when
// limit is not positive.
const DefaultHistoryLimit = 10

var sessionColumns = []string{
	"id", "user_id", "research_question", "knowledge_base_id",
	"query_strategies", "candidates", "ranked", "insights",
	"total_candidates", "max_papers", "confidence_score", "created_at",
}

// RecordSession inserts a completed search session. Sessions are never
// updated; recording an existing id fails.
func (s *Store) RecordSession(ctx context.Context, session types.SearchSession) error {
	if strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.UserID) == "" {
		return fmt.Errorf("session requires id and user id")
	}
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.exec(ctx, sq.Insert("search_sessions").
		Columns(sessionColumns...).
		Values(
			session.ID, session.UserID, session.ResearchQuestion, session.KnowledgeBaseID,
			marshalJSON(session.QueryStrategies), marshalJSON(session.Candidates),
			marshalJSON(session.Ranked), marshalJSON(session.Insights),
			session.TotalCandidates, session.MaxPapers, session.ConfidenceScore,
			formatTime(createdAt),
		))
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", session.ID, err)
	}
	return nil
}

// ListSessions returns a user's most recent sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]types.SearchSession, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.query(ctx, sq.Select(sessionColumns...).
		From("search_sessions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "rowid DESC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []types.SearchSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

// Session returns one of a user's sessions by id.
func (s *Store) Session(ctx context.Context, userID, id string) (types.SearchSession, error) {
	rows, err := s.query(ctx, sq.Select(sessionColumns...).
		From("search_sessions").
		Where(sq.Eq{"user_id": userID, "id": id}))
	if err != nil {
		return types.SearchSession{}, fmt.Errorf("querying session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return types.SearchSession{}, err
		}
		return types.SearchSession{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return scanSession(rows)
}

func scanSession(rows *sql.Rows) (types.SearchSession, error) {
	var session types.SearchSession
	var kbID, strategies, candidates, ranked, ins sql.NullString
	var createdAt string
	err := rows.Scan(
		&session.ID, &session.UserID, &session.ResearchQuestion, &kbID,
		&strategies, &candidates, &ranked, &ins,
		&session.TotalCandidates, &session.MaxPapers, &session.ConfidenceScore, &createdAt,
	)
	if err != nil {
		return types.SearchSession{}, fmt.Errorf("scanning session: %w", err)
	}
	session.KnowledgeBaseID = kbID.String
	session.CreatedAt = parseTime(createdAt)

	for _, col := range []struct {
		data sql.NullString
		dst  any
	}{
		{strategies, &session.QueryStrategies},
		{candidates, &session.Candidates},
		{ranked, &session.Ranked},
		{ins, &session.Insights},
	} {
		if err := unmarshalJSON(col.data, col.dst); err != nil {
			return types.SearchSession{}, fmt.Errorf("decoding session %s: %w", session.ID, err)
		}
	}
	return session, nil
}
