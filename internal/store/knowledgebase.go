// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/pdiddy/research-discovery/pkg/types"
)

var knowledgeBaseColumns = []string{
	"kb.id", "kb.user_id", "kb.name", "kb.description", "kb.tags", "kb.created_at", "kb.updated_at",
	"(SELECT count(*) FROM knowledge_base_papers k WHERE k.user_id = kb.user_id AND k.kb_id = kb.id)",
}

// CreateKnowledgeBase stores a new knowledge base holding paperIDs, which
// must all be in the user's library. A missing id gets a generated one.
func (s *Store) CreateKnowledgeBase(ctx context.Context, kb types.KnowledgeBase, paperIDs []string) (types.KnowledgeBase, error) {
	if strings.TrimSpace(kb.UserID) == "" {
		return types.KnowledgeBase{}, fmt.Errorf("knowledge base requires a user id")
	}
	if strings.TrimSpace(kb.Name) == "" {
		return types.KnowledgeBase{}, fmt.Errorf("knowledge base requires a name")
	}
	if err := s.requirePapers(ctx, kb.UserID, paperIDs); err != nil {
		return types.KnowledgeBase{}, err
	}
	if kb.ID == "" {
		kb.ID = uuid.NewString()
	}
	if kb.Tags == nil {
		kb.Tags = []string{}
	}
	now := s.now().UTC()
	kb.CreatedAt, kb.UpdatedAt = now, now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.KnowledgeBase{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := execIn(ctx, tx, sq.Insert("knowledge_bases").
		Columns("user_id", "id", "name", "description", "tags", "created_at", "updated_at").
		Values(kb.UserID, kb.ID, kb.Name, kb.Description, marshalJSON(kb.Tags), formatTime(now), formatTime(now))); err != nil {
		return types.KnowledgeBase{}, fmt.Errorf("creating knowledge base %s: %w", kb.ID, err)
	}
	for _, id := range paperIDs {
		if err := linkPaper(ctx, tx, kb.UserID, kb.ID, id, now); err != nil {
			return types.KnowledgeBase{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return types.KnowledgeBase{}, fmt.Errorf("committing knowledge base %s: %w", kb.ID, err)
	}
	return s.KnowledgeBase(ctx, kb.UserID, kb.ID)
}

// KnowledgeBases returns the user's knowledge bases, most recently updated
// first.
func (s *Store) KnowledgeBases(ctx context.Context, userID string) ([]types.KnowledgeBase, error) {
	return s.selectKnowledgeBases(ctx, sq.Select(knowledgeBaseColumns...).
		From("knowledge_bases kb").
		Where(sq.Eq{"kb.user_id": userID}).
		OrderBy("kb.updated_at DESC", "kb.rowid DESC"))
}

// KnowledgeBase returns one knowledge base or ErrNotFound.
func (s *Store) KnowledgeBase(ctx context.Context, userID, kbID string) (types.KnowledgeBase, error) {
	kbs, err := s.selectKnowledgeBases(ctx, sq.Select(knowledgeBaseColumns...).
		From("knowledge_bases kb").
		Where(sq.Eq{"kb.user_id": userID, "kb.id": kbID}))
	if err != nil {
		return types.KnowledgeBase{}, err
	}
	if len(kbs) == 0 {
		return types.KnowledgeBase{}, fmt.Errorf("knowledge base %s: %w", kbID, ErrNotFound)
	}
	return kbs[0], nil
}

// DeleteKnowledgeBase removes a knowledge base and its paper links. The
// papers stay in the library.
func (s *Store) DeleteKnowledgeBase(ctx context.Context, userID, kbID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := execIn(ctx, tx, sq.Delete("knowledge_bases").Where(sq.Eq{"user_id": userID, "id": kbID}))
	if err != nil {
		return fmt.Errorf("deleting knowledge base %s: %w", kbID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("knowledge base %s: %w", kbID, ErrNotFound)
	}
	if _, err := execIn(ctx, tx, sq.Delete("knowledge_base_papers").Where(sq.Eq{"user_id": userID, "kb_id": kbID})); err != nil {
		return fmt.Errorf("unlinking papers of %s: %w", kbID, err)
	}
	return tx.Commit()
}

// AddToKnowledgeBase links a library paper to a knowledge base, creating
// the knowledge base under its id when it does not exist yet. The paper
// must already be in the user's library.
func (s *Store) AddToKnowledgeBase(ctx context.Context, userID, kbID, paperID string) error {
	if strings.TrimSpace(kbID) == "" {
		return fmt.Errorf("knowledge base id is empty")
	}
	if err := s.requirePapers(ctx, userID, []string{paperID}); err != nil {
		return err
	}
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := execIn(ctx, tx, sq.Insert("knowledge_bases").
		Columns("user_id", "id", "name", "description", "tags", "created_at", "updated_at").
		Values(userID, kbID, kbID, "", "[]", formatTime(now), formatTime(now)).
		Options("OR IGNORE")); err != nil {
		return fmt.Errorf("ensuring knowledge base %s: %w", kbID, err)
	}
	if err := linkPaper(ctx, tx, userID, kbID, paperID, now); err != nil {
		return err
	}
	return tx.Commit()
}

// KnowledgeBasePapers returns the papers of one knowledge base, most
// recently added first.
func (s *Store) KnowledgeBasePapers(ctx context.Context, userID, kbID string) ([]types.LibraryPaper, error) {
	cols := make([]string, len(paperColumns))
	for i, c := range paperColumns {
		cols[i] = "p." + c
	}
	return s.selectPapers(ctx, sq.Select(cols...).
		From("knowledge_base_papers k").
		Join("library_papers p ON p.user_id = k.user_id AND p.id = k.paper_id").
		Where(sq.Eq{"k.user_id": userID, "k.kb_id": kbID}).
		OrderBy("k.added_at DESC", "k.rowid DESC"))
}

// requirePapers fails with ErrNotFound naming the first id missing from
// the user's library.
func (s *Store) requirePapers(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.Papers(ctx, userID, ids)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	for _, id := range ids {
		if !have[id] {
			return fmt.Errorf("paper %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

func linkPaper(ctx context.Context, tx *sql.Tx, userID, kbID, paperID string, now time.Time) error {
	if _, err := execIn(ctx, tx, sq.Insert("knowledge_base_papers").
		Columns("user_id", "kb_id", "paper_id", "added_at").
		Values(userID, kbID, paperID, formatTime(now)).
		Options("OR IGNORE")); err != nil {
		return fmt.Errorf("adding %s to knowledge base %s: %w", paperID, kbID, err)
	}
	if _, err := execIn(ctx, tx, sq.Update("knowledge_bases").
		Set("updated_at", formatTime(now)).
		Where(sq.Eq{"user_id": userID, "id": kbID})); err != nil {
		return fmt.Errorf("touching knowledge base %s: %w", kbID, err)
	}
	return nil
}

func execIn(ctx context.Context, tx *sql.Tx, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building statement: %w", err)
	}
	return tx.ExecContext(ctx, query, args...)
}

func (s *Store) selectKnowledgeBases(ctx context.Context, b sq.SelectBuilder) ([]types.KnowledgeBase, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge bases: %w", err)
	}
	defer rows.Close()

	var out []types.KnowledgeBase
	for rows.Next() {
		var (
			kb                   types.KnowledgeBase
			description, tags    sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&kb.ID, &kb.UserID, &kb.Name, &description, &tags,
			&createdAt, &updatedAt, &kb.PaperCount); err != nil {
			return nil, fmt.Errorf("scanning knowledge base: %w", err)
		}
		if err := unmarshalJSON(tags, &kb.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags of %s: %w", kb.ID, err)
		}
		if kb.Tags == nil {
			kb.Tags = []string{}
		}
		kb.Description = description.String
		kb.CreatedAt = parseTime(createdAt)
		kb.UpdatedAt = parseTime(updatedAt)
		out = append(out, kb)
	}
	return out, rows.Err()
}
