package specification

import (
	"strings"

	"gorm.io/gorm"
)

// KeywordSearch matches any of the keywords against title or content
// using ILIKE, OR-combined so a single matching keyword is enough.
type KeywordSearch struct {
	Keywords []string
}

func (s KeywordSearch) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Keywords) == 0 {
		return db
	}
	var clauses []string
	var args []interface{}
	for _, kw := range s.Keywords {
		if kw == "" {
			continue
		}
		pattern := "%" + kw + "%"
		clauses = append(clauses, "(title ILIKE ? OR content ILIKE ?)")
		args = append(args, pattern, pattern)
	}
	if len(clauses) == 0 {
		return db
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}

// ContentSearch matches the raw query as a single substring. Used as the
// fallback when tokenization yields no usable keywords.
type ContentSearch struct {
	Query string
}

func (s ContentSearch) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
}

// ByDocumentType filters the corpus by document type.
type ByDocumentType struct {
	DocumentType string
}

func (s ByDocumentType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_type = ?", s.DocumentType)
}

// ByCategory filters the corpus by category.
type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

// ByCourse filters by course, case-insensitive.
type ByCourse struct {
	Course string
}

func (s ByCourse) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("course ILIKE ?", s.Course)
}

// ByCampus filters by campus, case-insensitive.
type ByCampus struct {
	Campus string
}

func (s ByCampus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("campus ILIKE ?", s.Campus)
}

// ByStatus filters by status.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
