// Package repository provides per-entity data access on top of gorm.
package repository

import (
	"strings"
)

// Pagination holds limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps the pagination to sane bounds.
func (p *Pagination) Normalize() {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// NewPagination creates pagination parameters.
func NewPagination(limit, offset int) *Pagination {
	p := &Pagination{Limit: limit, Offset: offset}
	p.Normalize()
	return p
}

// isDuplicateKeyError classifies unique constraint violations across the
// sqlite and postgres drivers.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "unique_violation") ||
		strings.Contains(errStr, "23505")
}
