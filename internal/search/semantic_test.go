// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptySemanticPage = `{"total":0,"offset":0,"data":[]}`

func TestSemanticSearchRequest(t *testing.T) {
	srv := newAPIServer(t, &semanticAPIBase, http.StatusOK, emptySemanticPage)
	cfg := testCfg()
	cfg.MaxResults = 15

	b := &SemanticScholarBackend{Client: srv.Client(), APIKey: "key-123"}
	_, err := b.Search(context.Background(), Query{
		FreeText: "cat:cs.LG sparse attention",
		Start:    30,
		DateFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	}, cfg)
	require.NoError(t, err)

	req := srv.request()
	q := req.URL.Query()
	assert.Equal(t, "sparse attention", q.Get("query"))
	assert.Equal(t, "15", q.Get("limit"))
	assert.Equal(t, "30", q.Get("offset"))
	assert.Equal(t, "2020-2023", q.Get("year"))
	assert.Equal(t, "Computer Science", q.Get("fieldsOfStudy"))
	assert.Equal(t, semanticFields, q.Get("fields"))
	assert.Equal(t, "key-123", req.Header.Get("x-api-key"))
	assert.Equal(t, "test/0.1", req.Header.Get("User-Agent"))
}

func TestSemanticSearchOmitsOptionalParams(t *testing.T) {
	srv := newAPIServer(t, &semanticAPIBase, http.StatusOK, emptySemanticPage)

	b := &SemanticScholarBackend{Client: srv.Client()}
	results, err := b.Search(context.Background(), Query{FreeText: "test", MaxResults: 250}, testCfg())
	require.NoError(t, err)
	assert.Empty(t, results)

	req := srv.request()
	q := req.URL.Query()
	assert.Equal(t, "100", q.Get("limit"), "limit is capped at the endpoint maximum")
	assert.False(t, q.Has("year"))
	assert.False(t, q.Has("fieldsOfStudy"))
	assert.Empty(t, req.Header.Get("x-api-key"))
}

func TestSemanticSearchResults(t *testing.T) {
	srv := newAPIServer(t, &semanticAPIBase, http.StatusOK, `{"total":3,"data":[
		{"paperId":"s1","title":"Attention Is All You Need","abstract":"A.","year":2017,"publicationDate":"2017-06-12",
		 "url":"https://www.semanticscholar.org/paper/s1","fieldsOfStudy":["Computer Science"],
		 "authors":[{"name":"Ashish Vaswani"},{"name":""},{"name":"Noam Shazeer"}],
		 "externalIds":{"ArXiv":"1706.03762","DOI":"10.5555/3295222"}},
		{"paperId":"s2","title":"Journal Paper","year":2019,"authors":[],"externalIds":{"DOI":"10.1000/j"}},
		{"paperId":"s3","title":"Workshop Paper","authors":[],"externalIds":{}}
	]}`)

	b := &SemanticScholarBackend{Client: srv.Client()}
	results, err := b.Search(context.Background(), Query{FreeText: "attention"}, testCfg())
	require.NoError(t, err)
	require.Len(t, results, 3)

	first := results[0]
	assert.Equal(t, "1706.03762", first.Identifier, "arXiv id wins over DOI")
	assert.Equal(t, "1706.03762", first.PreferredAcquisitionID)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, first.Authors)
	assert.Equal(t, time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, []string{"Computer Science"}, first.Topics)
	assert.Equal(t, "https://www.semanticscholar.org/paper/s1", first.URL)
	assert.Equal(t, "semantic_scholar", first.Source)
	assert.Equal(t, 1.0, first.RelevanceScore)

	assert.Equal(t, "10.1000/j", results[1].Identifier)
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), results[1].Date)
	assert.InDelta(t, 0.55, results[1].RelevanceScore, 1e-9)

	assert.Equal(t, "s3", results[2].Identifier)
	assert.True(t, results[2].Date.IsZero())
	assert.Zero(t, results[2].Year)
	assert.InDelta(t, 0.1, results[2].RelevanceScore, 1e-9)
}

func TestSemanticSearchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server error", http.StatusInternalServerError, `{}`, "Semantic Scholar returned HTTP 500"},
		{"forbidden", http.StatusForbidden, `{}`, "Semantic Scholar returned HTTP 403"},
		{"malformed", http.StatusOK, `{"data": [`, "parsing Semantic Scholar response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAPIServer(t, &semanticAPIBase, tt.status, tt.body)
			b := &SemanticScholarBackend{Client: srv.Client()}
			_, err := b.Search(context.Background(), Query{FreeText: "test"}, testCfg())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSemanticSearchNeedsText(t *testing.T) {
	b := &SemanticScholarBackend{Client: http.DefaultClient}
	for _, q := range []Query{{}, {FreeText: "cat:cs.LG"}} {
		_, err := b.Search(context.Background(), q, testCfg())
		assert.ErrorContains(t, err, "empty Semantic Scholar query")
	}
	assert.Equal(t, "semantic_scholar", b.Name())
}
