// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// LibraryPaper is a paper saved to a user's personal library.
type LibraryPaper struct {
	// ID is the external identifier of the paper (e.g. "2301.07041").
	ID       string   `json:"id" yaml:"id"`
	UserID   string   `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Title    string   `json:"title" yaml:"title"`
	Authors  []string `json:"authors" yaml:"authors"`
	Abstract string   `json:"abstract" yaml:"abstract"`
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`
	Topics   []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`

	// FullText is supplied by the client when known; it is never fetched here.
	FullText  string    `json:"full_text,omitempty" yaml:"full_text,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// KnowledgeBase is a named, user-owned collection of library papers.
type KnowledgeBase struct {
	ID          string    `json:"id" yaml:"id"`
	UserID      string    `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string  `json:"tags" yaml:"tags"`
	PaperCount  int       `json:"paper_count" yaml:"paper_count"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}
