// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/legal-engine/internal/citation"
	"github.com/pdiddy/legal-engine/internal/normalize"
	"github.com/pdiddy/legal-engine/pkg/types"
)

// Per-strategy instructions embedded in the shared prompt.
const (
	generalInstruction = `Trả lời câu hỏi rõ ràng và ngắn gọn. Dẫn chiếu điều, khoản cụ thể từ tài liệu tham khảo khi có.`

	specificLawInstruction = `Trích dẫn chính xác nội dung điều, khoản, điểm được hỏi. Giải thích ý nghĩa và phạm vi áp dụng của quy định đó.`

	caseAnalysisInstruction = `Phân tích tình huống theo từng bước: xác định vấn đề pháp lý, quy định áp dụng, quyền và nghĩa vụ của các bên. Đưa ra kết luận có điều kiện, nêu rõ các thông tin còn thiếu.`

	complianceInstruction = `Đánh giá hành vi được hỏi có phù hợp với pháp luật hay không. Nêu rõ quy định liên quan và chế tài có thể bị áp dụng.`

	interpretationInstruction = `Giải thích khái niệm hoặc quy định bằng ngôn ngữ dễ hiểu. Nêu định nghĩa pháp lý và cho ví dụ minh họa.`

	procedureInstruction = `Trình bày thủ tục thành danh sách các bước theo thứ tự, mỗi bước một dòng bắt đầu bằng "- ". Nêu hồ sơ cần chuẩn bị, cơ quan có thẩm quyền và thời hạn giải quyết.`
)

// Warnings added by strategies.
const (
	WarnNoDocuments        = "Không tìm thấy tài liệu pháp lý liên quan; câu trả lời chỉ mang tính tham khảo chung"
	WarnReviewRecommended  = "Tình huống cần được luật sư xem xét trước khi áp dụng"
	WarnComplianceAdvisory = "Đánh giá tuân thủ chỉ mang tính tham khảo; cần xác minh với cơ quan có thẩm quyền hoặc luật sư"
	WarnCriminal           = "Đây là vấn đề thuộc lĩnh vực hình sự, cần tham khảo luật sư"
	WarnDeadline           = "Lưu ý về thời hạn theo quy định pháp luật"
)

// Disclaimer is appended by strategies whose answers may be acted on.
const Disclaimer = `**Lưu ý quan trọng:** Thông tin trên chỉ mang tính tham khảo, dựa trên pháp luật Việt Nam hiện hành. Để được tư vấn chính thức cho trường hợp cụ thể, bạn nên tham khảo ý kiến luật sư có thẩm quyền.`

// Escalation is appended when a case analysis is not confident enough.
const Escalation = `Tình huống này có vẻ phức tạp và cần được xem xét kỹ lưỡng. Bạn nên:
- Liên hệ với luật sư chuyên ngành
- Tham khảo tại các trung tâm tư vấn pháp luật
- Liên hệ cơ quan nhà nước có thẩm quyền`

// escalationBelow is the provisional score under which case analysis
// recommends review.
const escalationBelow = 0.7

// Risk levels reported by the compliance strategy.
const (
	RiskHigh   = "Cao"
	RiskMedium = "Trung bình"
	RiskLow    = "Thấp"
)

var (
	highRiskMarkers   = []string{"truy cứu trách nhiệm hình sự", "phạt tù", "tội", "hình sự", "bị cấm", "nghiêm cấm", "tước"}
	mediumRiskMarkers = []string{"phạt tiền", "xử phạt", "bồi thường", "vi phạm", "đình chỉ", "thu hồi"}
)

// maxRelatedTerms caps the interpretation footer.
const maxRelatedTerms = 8

var (
	questionCitations = citation.New()

	stepRe = regexp.MustCompile(`^\s*(?:[-*•+]|\d+[.)]|Bước\s+\d+\s*[:.])\s+(.+)$`)
)

// postSpecificLaw prepends the provisions cited in the question.
func postSpecificLaw(p *Partial, q types.NormalizedQuery, _ []types.DocumentChunk, _ types.Domain) {
	cites := questionCitations.FromText(questionText(q))
	if len(cites) == 0 {
		return
	}
	refs := make([]string, len(cites))
	for i, c := range cites {
		refs[i] = c.String()
	}
	p.Answer = "**Điều khoản được hỏi:** " + strings.Join(refs, "; ") + "\n\n" + p.Answer
}

// postCaseAnalysis recommends review when the provisional score is low.
func postCaseAnalysis(p *Partial, _ types.NormalizedQuery, _ []types.DocumentChunk, _ types.Domain) {
	if p.Provisional >= escalationBelow {
		return
	}
	p.Warnings = append(p.Warnings, WarnReviewRecommended)
	p.Answer += "\n\n" + Escalation
}

// postCompliance appends the risk level and disclaimer and adds compliance
// warnings.
func postCompliance(p *Partial, q types.NormalizedQuery, _ []types.DocumentChunk, domain types.Domain) {
	risk := RiskLevel(p.Answer, domain)
	p.Answer += fmt.Sprintf("\n\n**Mức độ rủi ro pháp lý:** %s\n\n%s", risk, Disclaimer)

	p.Warnings = append(p.Warnings, WarnComplianceAdvisory)
	if domain == types.DomainCriminal {
		p.Warnings = append(p.Warnings, WarnCriminal)
	}
	if strings.Contains(strings.ToLower(questionText(q)), "thời hạn") {
		p.Warnings = append(p.Warnings, WarnDeadline)
	}
}

// RiskLevel derives a risk summary from sanction markers in the answer.
// Criminal matters are always high risk.
func RiskLevel(answer string, domain types.Domain) string {
	if domain == types.DomainCriminal {
		return RiskHigh
	}
	lower := strings.ToLower(answer)
	for _, m := range highRiskMarkers {
		if strings.Contains(lower, m) {
			return RiskHigh
		}
	}
	for _, m := range mediumRiskMarkers {
		if strings.Contains(lower, m) {
			return RiskMedium
		}
	}
	return RiskLow
}

// postInterpretation lists related legal terms found in the question and
// answer.
func postInterpretation(p *Partial, q types.NormalizedQuery, _ []types.DocumentChunk, _ types.Domain) {
	terms := normalize.LegalTerms(q.NormalizedText + "\n" + p.Answer)
	if len(terms) == 0 {
		return
	}
	if len(terms) > maxRelatedTerms {
		terms = terms[:maxRelatedTerms]
	}
	p.Answer += "\n\n**Thuật ngữ liên quan:** " + strings.Join(terms, ", ")
}

// postProcedure numbers the steps and appends provenance and disclaimer.
func postProcedure(p *Partial, _ types.NormalizedQuery, sources []types.DocumentChunk, _ types.Domain) {
	p.Answer = NumberSteps(p.Answer) + "\n\n" + Provenance(sources) + "\n\n" + Disclaimer
}

// NumberSteps rewrites list lines ("- x", "1. x", "Bước 3: x") as
// consecutive "Bước N: x" lines. Other lines are kept.
func NumberSteps(text string) string {
	lines := strings.Split(text, "\n")
	n := 0
	for i, line := range lines {
		m := stepRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n++
		lines[i] = fmt.Sprintf("Bước %d: %s", n, strings.TrimSpace(m[1]))
	}
	return strings.Join(lines, "\n")
}

// Provenance lists the sources, separating index documents from
// unverified web results.
func Provenance(sources []types.DocumentChunk) string {
	if len(sources) == 0 {
		return "**Nguồn tham khảo:** không có tài liệu nào được tìm thấy."
	}

	var index, web []string
	for _, c := range sources {
		if c.Origin == types.OriginWeb {
			label := c.Meta(types.MetaTitle)
			if label == "" {
				label = c.DocumentName()
			}
			if u := c.Meta(types.MetaSourceURL); u != "" {
				label += " (" + u + ")"
			}
			web = append(web, label)
			continue
		}
		label := c.DocumentName()
		if ref := c.LegalReference(); ref != "" {
			label += ", " + ref
		}
		index = append(index, label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Nguồn tham khảo:** %d văn bản từ cơ sở dữ liệu pháp luật, %d kết quả tìm kiếm web.", len(index), len(web))
	for _, l := range index {
		b.WriteString("\n- [CSDL] " + l)
	}
	for _, l := range web {
		b.WriteString("\n- [Web, chưa xác minh] " + l)
	}
	return b.String()
}

func questionText(q types.NormalizedQuery) string {
	if q.NormalizedText != "" {
		return q.NormalizedText
	}
	return q.Original
}
