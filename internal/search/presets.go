// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"
	"time"
)

// featuredCategories are the arXiv categories behind the trending and
// recommended feeds.
var featuredCategories = []string{"cs.AI", "cs.LG", "cs.ML", "stat.ML"}

func featuredClause() string {
	terms := make([]string, len(featuredCategories))
	for i, c := range featuredCategories {
		terms[i] = "cat:" + c
	}
	return strings.Join(terms, " OR ")
}

// TrendingQuery returns the newest submissions of the last 30 days in the
// featured categories.
func TrendingQuery(now time.Time, limit int) Query {
	since := now.AddDate(0, 0, -30).UTC().Format("20060102")
	return Query{
		FreeText:   fmt.Sprintf("(%s) AND submittedDate:[%s0000 TO 99991231235959]", featuredClause(), since),
		MaxResults: limit,
		SortBy:     SortSubmittedDate,
		SortOrder:  OrderDescending,
	}
}

// RecommendedQuery returns the newest submissions in the featured categories.
func RecommendedQuery(limit int) Query {
	return Query{
		FreeText:   featuredClause(),
		MaxResults: limit,
		SortBy:     SortSubmittedDate,
		SortOrder:  OrderDescending,
	}
}

// CategoryQuery returns the newest submissions in one arXiv category.
func CategoryQuery(category string, limit int) Query {
	return Query{
		FreeText:   "cat:" + category,
		MaxResults: limit,
		SortBy:     SortSubmittedDate,
		SortOrder:  OrderDescending,
	}
}

// ParseSort maps the short sort and order names used by clients
// (relevance|date|submitted, desc|asc) to arXiv API values. Unknown names
// fall back to relevance, descending.
func ParseSort(sortName, order string) (sortBy, sortOrder string) {
	switch sortName {
	case "date":
		sortBy = SortLastUpdatedDate
	case "submitted":
		sortBy = SortSubmittedDate
	default:
		sortBy = SortRelevance
	}
	if order == "asc" {
		sortOrder = OrderAscending
	} else {
		sortOrder = OrderDescending
	}
	return sortBy, sortOrder
}
