// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "regexp"

// abbreviation maps a whole-token legal abbreviation to its expansion.
// No expansion contains a token that is itself an abbreviation, which keeps
// expansion idempotent.
type abbreviation struct {
	short, full string
}

var abbreviations = []abbreviation{
	{"NĐ-CP", "Nghị định của Chính phủ"},
	{"TT", "Thông tư"},
	{"QĐ", "Quyết định"},
	{"CV", "Công văn"},
	{"TB", "Thông báo"},
	{"BLHS", "Bộ luật Hình sự"},
	{"BLDS", "Bộ luật Dân sự"},
	{"BLLD", "Bộ luật Lao động"},
}

// canonicalTerm rewrites every case variant of a legal name to one spelling.
type canonicalTerm struct {
	re        *regexp.Regexp
	canonical string
}

func term(pattern, canonical string) canonicalTerm {
	return canonicalTerm{re: regexp.MustCompile(`(?i)` + pattern), canonical: canonical}
}

var canonicalTerms = []canonicalTerm{
	term(`bộ\s+luật\s+tố\s+tụng\s+dân\s+sự`, "Bộ luật Tố tụng dân sự"),
	term(`bộ\s+luật\s+tố\s+tụng\s+hình\s+sự`, "Bộ luật Tố tụng hình sự"),
	term(`bộ\s+luật\s+dân\s+sự`, "Bộ luật Dân sự"),
	term(`bộ\s+luật\s+hình\s+sự`, "Bộ luật Hình sự"),
	term(`bộ\s+luật\s+lao\s+động`, "Bộ luật Lao động"),
	term(`hiến\s+pháp`, "Hiến pháp"),
}

// legalDictionary lists the terms reported in NormalizedQuery.LegalTerms.
var legalDictionary = []string{
	"Bộ luật Dân sự", "Bộ luật Hình sự", "Bộ luật Lao động",
	"Hiến pháp", "Luật Thương mại", "Luật Hành chính",
	"hợp đồng", "tài sản", "quyền sở hữu", "nghĩa vụ",
	"vi phạm", "trách nhiệm", "bồi thường", "tội phạm",
	"hình phạt", "an toàn lao động", "bảo hiểm xã hội",
	"thủ tục hành chính", "cấp phép", "đăng ký kinh doanh",
	"ly hôn", "kết hôn", "thừa kế", "quyền sử dụng đất",
}

// referencePatterns match structural references reported as legal terms.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Điều\s+\d+`),
	regexp.MustCompile(`Khoản\s+\d+`),
	regexp.MustCompile(`Chương\s+[IVXLC]+`),
	regexp.MustCompile(`Mục\s+\d+`),
	regexp.MustCompile(`Nghị định\s+(?:số\s+)?\d+/\d{4}/NĐ-CP`),
	regexp.MustCompile(`Thông tư\s+(?:số\s+)?\d+/\d{4}/TT-[\p{Lu}Đ]+`),
}

var stopwords = map[string]bool{
	"là": true, "của": true, "và": true, "có": true, "được": true,
	"trong": true, "với": true, "cho": true, "về": true, "từ": true,
	"theo": true, "như": true, "để": true, "khi": true, "nếu": true,
	"mà": true, "các": true, "những": true, "này": true, "đó": true,
	"thì": true, "sẽ": true, "đã": true, "đang": true, "tôi": true,
	"gì": true, "không": true, "nào": true, "thế": true,
}
