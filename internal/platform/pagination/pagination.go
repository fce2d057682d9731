package pagination

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query is the paging request shared by every list endpoint.
// SortBy uses the "field:desc,other:asc" form; fields outside the allow-list are ignored.
type Query struct {
	Page   int
	Limit  int
	SortBy string
}

// Page is the list envelope returned to clients.
type Page[T any] struct {
	Results      []T   `json:"results"`
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalPages   int   `json:"totalPages"`
	TotalResults int64 `json:"totalResults"`
}

func Parse(page, limit, sortBy string) Query {
	q := Query{SortBy: strings.TrimSpace(sortBy)}
	q.Page, _ = strconv.Atoi(strings.TrimSpace(page))
	q.Limit, _ = strconv.Atoi(strings.TrimSpace(limit))
	return q.Normalize()
}

func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q Query) Offset() int {
	n := q.Normalize()
	return (n.Page - 1) * n.Limit
}

// OrderClause renders SortBy against the allowed columns, falling back to def.
func (q Query) OrderClause(allowed map[string]string, def string) string {
	if q.SortBy == "" {
		return def
	}
	var parts []string
	for _, raw := range strings.Split(q.SortBy, ",") {
		field, dir, _ := strings.Cut(strings.TrimSpace(raw), ":")
		col, ok := allowed[strings.TrimSpace(field)]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(dir), "desc") {
			parts = append(parts, col+" DESC")
		} else {
			parts = append(parts, col+" ASC")
		}
	}
	if len(parts) == 0 {
		return def
	}
	return strings.Join(parts, ", ")
}

// Find counts and loads one page of base into dest.
func Find[T any](base *gorm.DB, q Query, order string) (Page[T], error) {
	q = q.Normalize()
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}
	results := make([]T, 0, q.Limit)
	tx := base.Session(&gorm.Session{}).Offset(q.Offset()).Limit(q.Limit)
	if order != "" {
		tx = tx.Order(order)
	}
	if err := tx.Find(&results).Error; err != nil {
		return Page[T]{}, err
	}
	return New(results, q, total), nil
}

func New[T any](results []T, q Query, total int64) Page[T] {
	q = q.Normalize()
	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	if results == nil {
		results = []T{}
	}
	return Page[T]{
		Results:      results,
		Page:         q.Page,
		Limit:        q.Limit,
		TotalPages:   pages,
		TotalResults: total,
	}
}

// Map converts the results of a page, keeping the paging metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Results))
	for _, r := range p.Results {
		out = append(out, fn(r))
	}
	return Page[U]{Results: out, Page: p.Page, Limit: p.Limit, TotalPages: p.TotalPages, TotalResults: p.TotalResults}
}
