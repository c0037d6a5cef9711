// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes Vietnamese legal questions and classifies
// them by legal domain and intent.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe  = regexp.MustCompile(`[\s\p{Zs}]+`)
	terminatorsRe = regexp.MustCompile(`([.!?])(?:\s*[.!?])+`)
	quoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`, "„", `"`,
		"‘", "'", "’", "'",
	)
)

// Normalize cleans text for classification and retrieval. Steps run in a
// fixed order: NFC, whitespace collapse, terminator de-duplication, legal
// term canonicalization, abbreviation expansion, quote standardization.
// The result is a fixed point: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) (string, error) {
	if !utf8.ValidString(text) || strings.ContainsRune(text, 0) {
		return "", ErrInvalidInput
	}

	text = norm.NFC.String(text)
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if text == "" {
		return "", ErrEmptyInput
	}

	text = terminatorsRe.ReplaceAllString(text, "$1")
	for _, t := range canonicalTerms {
		text = t.re.ReplaceAllLiteralString(text, t.canonical)
	}
	text = expandAbbreviations(text)
	return quoteReplacer.Replace(text), nil
}

// isTokenRune reports whether r belongs to an abbreviation token. Slashes and
// hyphens are included so document numbers such as 01/2021/NĐ-CP stay one
// token and are never expanded.
func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '-' || r == '/'
}

func expandAbbreviations(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTokenRune(r) {
			b.WriteString(text[i : i+size])
			i += size
			continue
		}
		j := i
		for j < len(text) {
			r, size := utf8.DecodeRuneInString(text[j:])
			if !isTokenRune(r) {
				break
			}
			j += size
		}
		b.WriteString(expandToken(text[i:j]))
		i = j
	}
	return b.String()
}

func expandToken(tok string) string {
	for _, a := range abbreviations {
		if strings.EqualFold(tok, a.short) {
			return a.full
		}
	}
	return tok
}

// LegalTerms returns the dictionary terms and structural references
// (Điều 15, Nghị định 01/2021/NĐ-CP, ...) found in text, de-duplicated in
// order of first occurrence.
func LegalTerms(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var terms []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, t := range legalDictionary {
		if strings.Contains(lower, strings.ToLower(t)) {
			add(t)
		}
	}
	for _, re := range referencePatterns {
		for _, m := range re.FindAllString(text, -1) {
			add(whitespaceRe.ReplaceAllString(m, " "))
		}
	}
	return terms
}

// Keywords splits text into lower-cased search keywords: edge punctuation
// stripped, tokens shorter than two runes and stopwords dropped, duplicates
// removed in order.
func Keywords(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		tok := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if utf8.RuneCountInString(tok) < 2 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}
