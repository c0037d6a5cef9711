// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest turns legal source files into DocumentChunks for the
// knowledge base and the vector index. Statute text is split at article
// headings so each chunk carries its article number.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/legal-engine/internal/normalize"
	"github.com/pdiddy/legal-engine/pkg/types"
)

// chunkNamespace seeds deterministic chunk IDs so re-ingesting a document
// replaces its rows instead of duplicating them.
var chunkNamespace = uuid.MustParse("5b0c3f4e-8a1d-4c57-9f0e-2d6a7c1e9b34")

// Document is one legal instrument as stored in a corpus file.
type Document struct {
	Name      string       `yaml:"document_name" json:"document_name"`
	Domain    types.Domain `yaml:"legal_domain,omitempty" json:"legal_domain,omitempty"`
	Number    string       `yaml:"number,omitempty" json:"number,omitempty"`
	Year      int          `yaml:"year,omitempty" json:"year,omitempty"`
	Authority string       `yaml:"authority,omitempty" json:"authority,omitempty"`
	SourceURL string       `yaml:"source_url,omitempty" json:"source_url,omitempty"`

	// Text is the full statute text. It is split at article headings when
	// Articles is empty.
	Text string `yaml:"text,omitempty" json:"text,omitempty"`

	Articles []Article `yaml:"articles,omitempty" json:"articles,omitempty"`
}

// Article is one addressable passage of a Document.
type Article struct {
	Number  string `yaml:"article_number,omitempty" json:"article_number,omitempty"`
	Clause  string `yaml:"clause_number,omitempty" json:"clause_number,omitempty"`
	Point   string `yaml:"point,omitempty" json:"point,omitempty"`
	Content string `yaml:"content" json:"content"`
}

// Extensions lists the file types LoadFile understands.
var Extensions = []string{".yaml", ".yml", ".json", ".pdf", ".txt", ".md"}

var articleHeadingRe = regexp.MustCompile(`(?m)^[ \t]*Điều[ \t]+(\d+[a-z]?)[ \t]*\.`)

// SplitArticles splits statute text at "Điều N." headings that start a
// line. Text before the first heading becomes an article with no number.
// Empty passages are dropped.
func SplitArticles(text string) []Article {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	locs := articleHeadingRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		if body := strings.TrimSpace(text); body != "" {
			return []Article{{Content: body}}
		}
		return nil
	}

	var out []Article
	if pre := strings.TrimSpace(text[:locs[0][0]]); pre != "" {
		out = append(out, Article{Content: pre})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[0]:end])
		if body == "" {
			continue
		}
		out = append(out, Article{Number: text[loc[2]:loc[3]], Content: body})
	}
	return out
}

// ReadPDF extracts the plain text of a PDF.
func ReadPDF(r io.ReaderAt, size int64) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

// LoadFile reads one source file. YAML and JSON files hold a Document;
// PDF, text, and Markdown files are read as statute text named after the
// file, with the domain detected from the text.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml", ".json":
		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		if doc.Name == "" {
			doc.Name = stem(path)
		}
		return doc, nil
	case ".pdf":
		text, err := ReadPDF(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return Document{}, fmt.Errorf("reading %s: %w", path, err)
		}
		return textDocument(path, text), nil
	case ".txt", ".md":
		return textDocument(path, string(data)), nil
	default:
		return Document{}, fmt.Errorf("unsupported file type %q", ext)
	}
}

func textDocument(path, text string) Document {
	normalized, err := normalize.Normalize(text)
	domain := types.DomainGeneral
	if err == nil {
		domain = normalize.DetectDomain(normalized)
	}
	return Document{Name: stem(path), Domain: domain, Text: text}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Discover lists the supported files under dir, sorted by path.
func Discover(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range Extensions {
			if ext == want {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Chunks converts the document into index chunks, one per article.
func (d Document) Chunks() []types.DocumentChunk {
	articles := d.Articles
	if len(articles) == 0 {
		articles = SplitArticles(d.Text)
	}
	domain := d.Domain
	if domain == "" {
		domain = types.DomainGeneral
	}

	chunks := make([]types.DocumentChunk, 0, len(articles))
	for i, a := range articles {
		content := strings.TrimSpace(a.Content)
		if content == "" {
			continue
		}
		meta := map[string]any{
			types.MetaDocumentName: d.Name,
			types.MetaLegalDomain:  string(domain),
		}
		setIf(meta, types.MetaArticleNumber, a.Number)
		setIf(meta, types.MetaClauseNumber, a.Clause)
		setIf(meta, types.MetaPoint, a.Point)
		setIf(meta, types.MetaSourceURL, d.SourceURL)
		setIf(meta, types.MetaAuthority, d.Authority)
		if d.Number != "" {
			meta["number"] = d.Number
		}
		if d.Year > 0 {
			meta[types.MetaYear] = d.Year
		}

		key := strings.Join([]string{d.Name, d.Number, a.Number, a.Clause, a.Point, strconv.Itoa(i)}, "\x00")
		chunks = append(chunks, types.DocumentChunk{
			ID:       uuid.NewSHA1(chunkNamespace, []byte(key)).String(),
			Content:  content,
			Metadata: meta,
			Origin:   types.OriginIndex,
		})
	}
	return chunks
}

func setIf(meta map[string]any, key, value string) {
	if value != "" {
		meta[key] = value
	}
}
