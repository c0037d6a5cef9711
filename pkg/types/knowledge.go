// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Origin records where a chunk came from. Relevance scores are only
// comparable between chunks of the same origin.
type Origin string

const (
	OriginIndex Origin = "index"
	OriginWeb   Origin = "web"
)

// Metadata keys used on DocumentChunk.
const (
	MetaDocumentName  = "document_name"
	MetaLegalDomain   = "legal_domain"
	MetaArticleNumber = "article_number"
	MetaClauseNumber  = "clause_number"
	MetaPoint         = "point"
	MetaSourceURL     = "source_url"
	MetaTitle         = "title"
	MetaAuthority     = "authority"
	MetaYear          = "year"
)

// DocumentChunk is one retrieved or synthesized unit of legal text.
type DocumentChunk struct {
	// ID is stable per stored chunk; web chunks get a synthetic ID.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Content is the passage text.
	Content string `json:"content" yaml:"content"`

	// Metadata must include document_name; see the Meta* keys.
	Metadata map[string]any `json:"metadata" yaml:"metadata"`

	// RelevanceScore is in [0,1]. Web chunks carry a fixed default.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	Origin Origin `json:"origin" yaml:"origin"`
}

// Meta returns the metadata value for key as a string.
func (c DocumentChunk) Meta(key string) string {
	v, ok := c.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// DocumentName returns the document_name metadata value.
func (c DocumentChunk) DocumentName() string {
	return c.Meta(MetaDocumentName)
}

// LegalLevel reports the most specific structural level the chunk is
// tagged with: point, clause, article, or unknown.
func (c DocumentChunk) LegalLevel() string {
	switch {
	case c.Meta(MetaPoint) != "":
		return "point"
	case c.Meta(MetaClauseNumber) != "":
		return "clause"
	case c.Meta(MetaArticleNumber) != "":
		return "article"
	default:
		return "unknown"
	}
}

// LegalReference renders the chunk's structural position, e.g.
// "Điều 15, Khoản 1, Điểm a". Empty when untagged.
func (c DocumentChunk) LegalReference() string {
	var parts []string
	if a := c.Meta(MetaArticleNumber); a != "" {
		parts = append(parts, "Điều "+a)
	}
	if k := c.Meta(MetaClauseNumber); k != "" {
		parts = append(parts, "Khoản "+k)
	}
	if p := c.Meta(MetaPoint); p != "" {
		parts = append(parts, "Điểm "+p)
	}
	return strings.Join(parts, ", ")
}

// Citation is a structured reference to a legal document, derived per
// invocation.
type Citation struct {
	// DocumentType is e.g. "Luật", "Bộ luật", "Nghị định", "Điều", "Web".
	DocumentType string `json:"document_type" yaml:"document_type"`
	DocumentName string `json:"document_name" yaml:"document_name"`
	Article      string `json:"article,omitempty" yaml:"article,omitempty"`
	Clause       string `json:"clause,omitempty" yaml:"clause,omitempty"`
	Point        string `json:"point,omitempty" yaml:"point,omitempty"`
	Year         int    `json:"year,omitempty" yaml:"year,omitempty"`
	Number       string `json:"number,omitempty" yaml:"number,omitempty"`
	Authority    string `json:"authority,omitempty" yaml:"authority,omitempty"`
	SourceURL    string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// Confidence is how reliably the citation was parsed.
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// Relevance is the query-overlap score set by detailed extraction.
	Relevance float64 `json:"relevance,omitempty" yaml:"relevance,omitempty"`
}

// CitationKey is the identity of a citation. Two citations with equal keys
// are duplicates.
type CitationKey struct {
	DocumentType, DocumentName, Article, Clause, Point, Number string
}

// Key returns the identity tuple of c.
func (c Citation) Key() CitationKey {
	return CitationKey{c.DocumentType, c.DocumentName, c.Article, c.Clause, c.Point, c.Number}
}

// String renders the citation in Vietnamese legal form, e.g.
// "Điều 15, Khoản 1 Luật Dân sự số 91/2015/QH13 năm 2015".
func (c Citation) String() string {
	var b strings.Builder
	var loc []string
	if c.Article != "" {
		loc = append(loc, "Điều "+c.Article)
	}
	if c.Clause != "" {
		loc = append(loc, "Khoản "+c.Clause)
	}
	if c.Point != "" {
		loc = append(loc, "Điểm "+c.Point)
	}
	b.WriteString(strings.Join(loc, ", "))

	name := c.DocumentName
	if name == "" {
		name = c.DocumentType
	}
	if name != "" && name != "Điều" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(name)
	}
	if c.Number != "" && !strings.Contains(name, c.Number) {
		b.WriteString(" số " + c.Number)
	}
	if c.Year > 0 {
		fmt.Fprintf(&b, " năm %d", c.Year)
	}
	return b.String()
}
