// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/pdiddy/research-discovery/pkg/types"
)

// contextRecentPapers is how many recent library papers feed ResearchContext.
const contextRecentPapers = 10

var paperColumns = []string{
	"id", "user_id", "title", "authors", "abstract", "year", "topics", "url", "full_text", "created_at",
}

// SavePaper adds a paper to the user's library, replacing an existing
// entry with the same id. A missing id gets a generated one.
func (s *Store) SavePaper(ctx context.Context, p types.LibraryPaper) (types.LibraryPaper, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return types.LibraryPaper{}, fmt.Errorf("paper requires a user id")
	}
	if strings.TrimSpace(p.Title) == "" {
		return types.LibraryPaper{}, fmt.Errorf("paper requires a title")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}

	_, err := s.exec(ctx, sq.Insert("library_papers").
		Columns(paperColumns...).
		Values(p.ID, p.UserID, p.Title, marshalJSON(p.Authors), p.Abstract, p.Year,
			marshalJSON(p.Topics), p.URL, p.FullText, formatTime(p.CreatedAt)).
		Suffix(`ON CONFLICT(user_id, id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
			year=excluded.year, topics=excluded.topics, url=excluded.url,
			full_text=excluded.full_text`))
	if err != nil {
		return types.LibraryPaper{}, fmt.Errorf("saving paper %s: %w", p.ID, err)
	}
	return p, nil
}

// Papers returns the user's library papers, newest first. When ids is
// non-empty only those papers are returned.
func (s *Store) Papers(ctx context.Context, userID string, ids []string) ([]types.LibraryPaper, error) {
	where := sq.Eq{"user_id": userID}
	if len(ids) > 0 {
		where["id"] = ids
	}
	return s.selectPapers(ctx, sq.Select(paperColumns...).
		From("library_papers").
		Where(where).
		OrderBy("created_at DESC", "rowid DESC"))
}

// RecentPapers returns the user's limit most recently saved papers.
func (s *Store) RecentPapers(ctx context.Context, userID string, limit int) ([]types.LibraryPaper, error) {
	if limit <= 0 {
		limit = contextRecentPapers
	}
	return s.selectPapers(ctx, sq.Select(paperColumns...).
		From("library_papers").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "rowid DESC").
		Limit(uint64(limit)))
}

// DeletePaper removes a paper from the user's library and from every
// knowledge base that holds it.
func (s *Store) DeletePaper(ctx context.Context, userID, paperID string) error {
	res, err := s.exec(ctx, sq.Delete("library_papers").Where(sq.Eq{"user_id": userID, "id": paperID}))
	if err != nil {
		return fmt.Errorf("deleting paper %s: %w", paperID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("paper %s: %w", paperID, ErrNotFound)
	}
	return nil
}

// CountPapers returns the size of the user's library.
func (s *Store) CountPapers(ctx context.Context, userID string) (int, error) {
	query, args, err := sq.Select("count(*)").From("library_papers").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// ResearchContext summarizes the user's library for strategy generation:
// the library size and the topics of the recent papers followed by those
// of the knowledge base, deduplicated in that order.
func (s *Store) ResearchContext(ctx context.Context, userID, kbID string) (types.UserContext, error) {
	count, err := s.CountPapers(ctx, userID)
	if err != nil {
		return types.UserContext{}, err
	}
	papers, err := s.RecentPapers(ctx, userID, contextRecentPapers)
	if err != nil {
		return types.UserContext{}, err
	}
	if kbID != "" {
		kb, err := s.KnowledgeBasePapers(ctx, userID, kbID)
		if err != nil {
			return types.UserContext{}, err
		}
		papers = append(papers, kb...)
	}

	seen := make(map[string]bool)
	var areas []string
	for _, p := range papers {
		for _, topic := range p.Topics {
			if topic == "" || seen[topic] {
				continue
			}
			seen[topic] = true
			areas = append(areas, topic)
		}
	}
	return types.UserContext{LibraryPapers: count, ResearchAreas: areas}, nil
}

func (s *Store) selectPapers(ctx context.Context, b sq.SelectBuilder) ([]types.LibraryPaper, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var out []types.LibraryPaper
	for rows.Next() {
		var (
			p                 types.LibraryPaper
			authors, topics   sql.NullString
			abstract, url, ft sql.NullString
			year              sql.NullInt64
			createdAt         string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &authors, &abstract, &year,
			&topics, &url, &ft, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if err := unmarshalJSON(authors, &p.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors of %s: %w", p.ID, err)
		}
		if err := unmarshalJSON(topics, &p.Topics); err != nil {
			return nil, fmt.Errorf("decoding topics of %s: %w", p.ID, err)
		}
		p.Abstract = abstract.String
		p.URL = url.String
		p.FullText = ft.String
		p.Year = int(year.Int64)
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}
