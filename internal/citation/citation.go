// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation parses Vietnamese legal citations (laws, codes, decrees,
// circulars, articles, clauses, points) out of questions, retrieved chunks,
// and synthesized answers.
package citation

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// window is the byte distance searched around an article match for its
// clause and point, and before a document mention for the article it
// governs.
const window = 64

// MaxDetailed caps the output of Detailed.
const MaxDetailed = 10

// Parse confidences per family.
const (
	confidenceNumbered   = 0.95
	confidenceInstrument = 0.9
	confidenceNamed      = 0.8
	confidenceMetadata   = 0.7
	confidenceArticle    = 0.6
	confidenceWeb        = 0.6
)

// lawName matches a capitalized Vietnamese law name: "Dân sự", "Lao động",
// "Hôn nhân và Gia đình". Each capitalized syllable may carry one lowercase
// syllable; "và" joins further capitalized parts.
const lawName = `\p{Lu}\p{Ll}*(?:\s+\p{Ll}+)?(?:\s+(?:và\s+)?\p{Lu}\p{Ll}*(?:\s+\p{Ll}+)?)*`

// docNumber matches an issuing number such as 91/2015/QH13 or 12/2020/QĐ-TTg.
const docNumber = `\d+/(\d{4})/[\p{Lu}\d]+(?:-[\p{L}\d]+)*`

var (
	lawNumberedRe = regexp.MustCompile(`(Bộ luật|Luật)\s+(` + lawName + `)\s+số\s+(` + docNumber + `)`)
	lawNamedRe    = regexp.MustCompile(`(Bộ luật|Luật)\s+(` + lawName + `)(?:\s+(?:năm\s+)?(\d{4}))?`)
	instrumentRe  = regexp.MustCompile(`(Nghị định|Thông tư|Quyết định|Nghị quyết)\s+(?:số\s+)?(` + docNumber + `)`)
	articleRe     = regexp.MustCompile(`(?i)điều\s+(\d+[a-z]?)`)
	clauseRe      = regexp.MustCompile(`(?i)khoản\s+(\d+)`)
	pointRe       = regexp.MustCompile(`(?i)điểm\s+([a-zđ])(?:[^\p{L}]|$)`)

	// PatternRe recognizes any citation-like marker in free text.
	PatternRe = regexp.MustCompile(`(?i:điều\s+\d+|khoản\s+\d+|(?:nghị định|thông tư|quyết định)\s+(?:số\s+)?\d+)|(?:Bộ luật|Luật)\s+\p{Lu}`)
)

// documentTypes are the recognized document-type prefixes, longest first.
var documentTypes = []string{"Bộ luật", "Luật", "Nghị định", "Thông tư", "Quyết định", "Nghị quyết", "Hiến pháp"}

// family is one row of the extraction table.
type family struct {
	name string
	re   *regexp.Regexp

	// fallbackFor names a family; this one runs only when that family found
	// nothing in the same text.
	fallbackFor string

	build func(x *extraction, m []int) types.Citation
}

// Extractor parses citations with an ordered table of pattern families.
type Extractor struct {
	families []family
}

// New returns an Extractor with the default family order: numbered laws,
// named laws (only without a numbered match), decrees and circulars, then
// bare article references.
func New() *Extractor {
	return &Extractor{families: []family{
		{name: "law_numbered", re: lawNumberedRe, build: buildNumberedLaw},
		{name: "law_named", re: lawNamedRe, fallbackFor: "law_numbered", build: buildNamedLaw},
		{name: "instrument", re: instrumentRe, build: buildInstrument},
	}}
}

// Families returns the family names in evaluation order. Bare article
// references always run last.
func (e *Extractor) Families() []string {
	names := make([]string, 0, len(e.families)+1)
	for _, f := range e.families {
		names = append(names, f.name)
	}
	return append(names, "article")
}

// extraction is the per-text working state.
type extraction struct {
	text     string
	articles []articleRef
	claimed  map[int]bool
}

type articleRef struct {
	start, end             int
	article, clause, point string
}

// FromText extracts de-duplicated citations from text in family order.
func (e *Extractor) FromText(text string) []types.Citation {
	x := &extraction{
		text:     text,
		articles: findArticles(text),
		claimed:  make(map[int]bool),
	}

	found := make(map[string]int)
	var out []types.Citation
	for _, f := range e.families {
		if f.fallbackFor != "" && found[f.fallbackFor] > 0 {
			continue
		}
		for _, m := range f.re.FindAllStringSubmatchIndex(text, -1) {
			out = append(out, f.build(x, m))
			found[f.name]++
		}
	}

	for i, ref := range x.articles {
		if x.claimed[i] {
			continue
		}
		out = append(out, types.Citation{
			DocumentType: "Điều",
			Article:      ref.article,
			Clause:       ref.clause,
			Point:        ref.point,
			Confidence:   confidenceArticle,
		})
	}
	return Dedupe(out)
}

// FromChunks extracts citations from retrieved chunks. Web chunks become one
// citation each from their metadata. Index chunks are pattern-extracted,
// with empty document names filled from metadata; an index chunk without
// matches yields a citation built from its metadata.
func (e *Extractor) FromChunks(chunks []types.DocumentChunk) []types.Citation {
	var out []types.Citation
	for _, c := range chunks {
		if c.Origin == types.OriginWeb {
			out = append(out, webCitation(c))
			continue
		}

		name := c.DocumentName()
		found := e.FromText(c.Content)
		for i := range found {
			if found[i].DocumentName == "" && name != "" {
				found[i].DocumentName = name
				found[i].DocumentType = documentTypeOf(name)
			}
			if found[i].SourceURL == "" {
				found[i].SourceURL = c.Meta(types.MetaSourceURL)
			}
		}
		if len(found) == 0 && name != "" {
			found = append(found, metadataCitation(c))
		}
		out = append(out, found...)
	}
	return Dedupe(out)
}

// Detailed ranks citations against the query by additive partial credit for
// each field that appears in it, stable-sorts descending, and truncates to
// MaxDetailed.
func Detailed(query string, citations []types.Citation) []types.Citation {
	lowerQ := strings.ToLower(query)
	ranked := Dedupe(citations)
	for i := range ranked {
		ranked[i].Relevance = relevance(query, lowerQ, ranked[i])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})
	if len(ranked) > MaxDetailed {
		ranked = ranked[:MaxDetailed]
	}
	return ranked
}

func relevance(query, lowerQ string, c types.Citation) float64 {
	var score float64
	if c.DocumentName != "" && strings.Contains(lowerQ, strings.ToLower(c.DocumentName)) {
		score += 0.4
	}
	if c.Article != "" && mentions(query, "điều", c.Article) {
		score += 0.3
	}
	if c.Number != "" && strings.Contains(query, c.Number) {
		score += 0.2
	}
	if c.Clause != "" && mentions(query, "khoản", c.Clause) {
		score += 0.05
	}
	if c.Point != "" && mentions(query, "điểm", c.Point) {
		score += 0.05
	}
	return math.Round(score*100) / 100
}

// mentions reports whether text contains "<label> <value>" as a whole
// reference, so "Điều 1" does not match "Điều 15".
func mentions(text, label, value string) bool {
	re, err := regexp.Compile(`(?i)` + label + `\s+` + regexp.QuoteMeta(value) + `(?:[^\p{L}\d]|$)`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// Dedupe removes citations whose Key repeats, keeping the first occurrence.
func Dedupe(citations []types.Citation) []types.Citation {
	seen := make(map[types.CitationKey]bool, len(citations))
	out := make([]types.Citation, 0, len(citations))
	for _, c := range citations {
		k := c.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// findArticles locates every article reference and binds the clause and
// point nearest to it. The search window is clipped at the neighbouring
// article matches so sub-references never bind across articles.
func findArticles(text string) []articleRef {
	locs := articleRe.FindAllStringSubmatchIndex(text, -1)
	refs := make([]articleRef, 0, len(locs))
	for i, loc := range locs {
		lo := max(loc[0]-window, 0)
		if i > 0 {
			lo = max(lo, locs[i-1][1])
		}
		hi := min(loc[1]+window, len(text))
		if i+1 < len(locs) {
			hi = min(hi, locs[i+1][0])
		}
		refs = append(refs, articleRef{
			start:   loc[0],
			end:     loc[1],
			article: text[loc[2]:loc[3]],
			clause:  nearest(clauseRe, text, lo, loc[0], loc[1], hi),
			point:   strings.ToLower(nearest(pointRe, text, lo, loc[0], loc[1], hi)),
		})
	}
	return refs
}

// nearest returns the first capture of re after the article, or failing
// that the last capture before it, within [lo, hi).
func nearest(re *regexp.Regexp, text string, lo, start, end, hi int) string {
	if m := re.FindStringSubmatch(text[end:hi]); m != nil {
		return m[1]
	}
	if all := re.FindAllStringSubmatch(text[lo:start], -1); len(all) > 0 {
		return all[len(all)-1][1]
	}
	return ""
}

// bindArticle claims the closest unclaimed article reference ending within
// the window before pos.
func (x *extraction) bindArticle(pos int) (articleRef, bool) {
	for i := len(x.articles) - 1; i >= 0; i-- {
		ref := x.articles[i]
		if ref.end > pos {
			continue
		}
		if pos-ref.end > window || x.claimed[i] {
			return articleRef{}, false
		}
		x.claimed[i] = true
		return ref, true
	}
	return articleRef{}, false
}

func (x *extraction) group(m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return x.text[m[2*n]:m[2*n+1]]
}

func buildNumberedLaw(x *extraction, m []int) types.Citation {
	docType := x.group(m, 1)
	number := x.group(m, 3)
	c := types.Citation{
		DocumentType: docType,
		DocumentName: docType + " " + trimName(x.group(m, 2)),
		Number:       number,
		Year:         atoi(x.group(m, 4)),
		Authority:    authorityFor(number),
		Confidence:   confidenceNumbered,
	}
	attachArticle(x, m[0], &c)
	return c
}

func buildNamedLaw(x *extraction, m []int) types.Citation {
	docType := x.group(m, 1)
	c := types.Citation{
		DocumentType: docType,
		DocumentName: docType + " " + trimName(x.group(m, 2)),
		Year:         atoi(x.group(m, 3)),
		Confidence:   confidenceNamed,
	}
	if docType == "Bộ luật" || strings.HasPrefix(c.DocumentName, "Luật") {
		c.Authority = "Quốc hội"
	}
	attachArticle(x, m[0], &c)
	return c
}

func buildInstrument(x *extraction, m []int) types.Citation {
	docType := x.group(m, 1)
	number := x.group(m, 2)
	c := types.Citation{
		DocumentType: docType,
		DocumentName: docType + " " + number,
		Number:       number,
		Year:         atoi(x.group(m, 3)),
		Authority:    authorityFor(number),
		Confidence:   confidenceInstrument,
	}
	attachArticle(x, m[0], &c)
	return c
}

func attachArticle(x *extraction, pos int, c *types.Citation) {
	if ref, ok := x.bindArticle(pos); ok {
		c.Article, c.Clause, c.Point = ref.article, ref.clause, ref.point
	}
}

// ministries maps circular issuer codes to ministry names.
var ministries = map[string]string{
	"BTC":      "Bộ Tài chính",
	"BTP":      "Bộ Tư pháp",
	"BCA":      "Bộ Công an",
	"BLĐTBXH":  "Bộ Lao động - Thương binh và Xã hội",
	"BTNMT":    "Bộ Tài nguyên và Môi trường",
	"BXD":      "Bộ Xây dựng",
	"BCT":      "Bộ Công Thương",
	"BKHĐT":    "Bộ Kế hoạch và Đầu tư",
	"NHNN":     "Ngân hàng Nhà nước",
	"TANDTC":   "Tòa án nhân dân tối cao",
	"HĐTP":     "Hội đồng Thẩm phán",
	"VKSNDTC":  "Viện kiểm sát nhân dân tối cao",
	"UBTVQH":   "Ủy ban Thường vụ Quốc hội",
	"UBTVQH14": "Ủy ban Thường vụ Quốc hội",
}

// authorityFor derives the issuing body from a document number's suffix.
func authorityFor(number string) string {
	suffix := number[strings.LastIndex(number, "/")+1:]
	switch {
	case strings.HasPrefix(suffix, "QH"):
		return "Quốc hội"
	case strings.HasSuffix(suffix, "-TTg"):
		return "Thủ tướng Chính phủ"
	case strings.HasSuffix(suffix, "-CP"):
		return "Chính phủ"
	}
	if i := strings.LastIndex(suffix, "-"); i >= 0 {
		if name, ok := ministries[suffix[i+1:]]; ok {
			return name
		}
	}
	return ""
}

func webCitation(c types.DocumentChunk) types.Citation {
	title := c.Meta(types.MetaTitle)
	if title == "" {
		title = c.DocumentName()
	}
	return types.Citation{
		DocumentType: "Web",
		DocumentName: title,
		Authority:    c.Meta(types.MetaAuthority),
		SourceURL:    c.Meta(types.MetaSourceURL),
		Confidence:   confidenceWeb,
	}
}

func metadataCitation(c types.DocumentChunk) types.Citation {
	name := c.DocumentName()
	return types.Citation{
		DocumentType: documentTypeOf(name),
		DocumentName: name,
		Article:      c.Meta(types.MetaArticleNumber),
		Clause:       c.Meta(types.MetaClauseNumber),
		Point:        c.Meta(types.MetaPoint),
		Year:         atoi(c.Meta(types.MetaYear)),
		Authority:    c.Meta(types.MetaAuthority),
		SourceURL:    c.Meta(types.MetaSourceURL),
		Confidence:   confidenceMetadata,
	}
}

func documentTypeOf(name string) string {
	for _, t := range documentTypes {
		if strings.HasPrefix(name, t) {
			return t
		}
	}
	return "Văn bản"
}

// nameStops end a law name: structural words, number or year markers, and
// the capitalized nouns that commonly open the next sentence or clause.
var nameStops = map[string]bool{
	"Điều": true, "Khoản": true, "Điểm": true, "Chương": true, "Mục": true,
	"Nghị": true, "Thông": true, "Quyết": true, "số": true, "năm": true,
	"Người": true, "Ủy": true, "Uỷ": true, "Tòa": true, "Toà": true,
	"Cơ": true, "Tôi": true, "Chúng": true, "Công": true, "Nhà": true,
	"Bên": true, "Các": true, "Mọi": true, "Theo": true, "Căn": true,
	"Khi": true, "Nếu": true, "Trong": true, "Việc": true, "Vợ": true,
}

// extraLawNames are statute names outside the domain table.
var extraLawNames = []string{
	"Doanh nghiệp", "Đầu tư", "Nhà ở", "Kinh doanh bất động sản",
	"Bảo hiểm xã hội", "Giao thông đường bộ", "Công chứng",
}

// knownLawNames holds the names of known statutes, longest first. A match
// that begins with one of them ends there.
var knownLawNames = func() []string {
	names := append([]string(nil), extraLawNames...)
	for _, info := range types.Domains {
		name := info.PrimaryLaw
		for _, prefix := range []string{"Bộ luật ", "Luật "} {
			if strings.HasPrefix(name, prefix) {
				name = strings.TrimPrefix(name, prefix)
				if i := strings.LastIndex(name, " "); i > 0 && atoi(name[i+1:]) > 0 {
					name = name[:i]
				}
				names = append(names, name)
				break
			}
		}
	}
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	return names
}()

func trimName(s string) string {
	for _, known := range knownLawNames {
		if s == known || strings.HasPrefix(s, known+" ") {
			return known
		}
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		if i > 0 && nameStops[f] {
			fields = fields[:i]
			break
		}
	}
	return strings.Join(fields, " ")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
