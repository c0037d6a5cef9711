// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// systemPrompt is sent as the system message for every strategy.
const systemPrompt = `Bạn là trợ lý pháp lý chuyên về pháp luật Việt Nam. Chỉ trả lời dựa trên các tài liệu được cung cấp và kiến thức pháp luật Việt Nam hiện hành. Luôn trích dẫn điều, khoản, điểm và tên văn bản khi có thể. Không khẳng định tuyệt đối; nếu không chắc chắn, hãy khuyên người dùng tham khảo luật sư. Trả lời bằng tiếng Việt.`

// noDocuments replaces the context block when retrieval found nothing.
const noDocuments = "Không tìm thấy tài liệu pháp lý liên quan trong cơ sở dữ liệu. Hãy nêu rõ điều này và chỉ trả lời ở mức nguyên tắc chung."

// contextLimit caps the runes of each chunk embedded in the prompt.
const contextLimit = 1500

// promptTmpl is the user prompt shared by all strategies. Instruction
// carries the per-strategy task.
var promptTmpl = template.Must(template.New("legal").Parse(`Lĩnh vực pháp luật: {{.DomainName}}{{if .PrimaryLaw}} (văn bản chính: {{.PrimaryLaw}}){{end}}
{{- if .RegionName}}
Khu vực: {{.RegionName}}. Lưu ý các văn bản trọng tâm tại khu vực này: {{.RegionFocus}}.
{{- end}}

Tài liệu tham khảo:
{{.Context}}

Câu hỏi: {{.Question}}

Yêu cầu:
{{.Instruction}}
`))

type promptData struct {
	DomainName  string
	PrimaryLaw  string
	RegionName  string
	RegionFocus string
	Context     string
	Question    string
	Instruction string
}

// renderPrompt fills the shared template for one strategy call.
func renderPrompt(instruction string, q types.NormalizedQuery, sources []types.DocumentChunk, domain types.Domain) (string, error) {
	info := domain.Info()
	data := promptData{
		DomainName:  info.Name,
		PrimaryLaw:  info.PrimaryLaw,
		Context:     formatContext(sources),
		Question:    q.Original,
		Instruction: instruction,
	}
	if data.Question == "" {
		data.Question = q.NormalizedText
	}
	if r, ok := q.Region.Info(); ok {
		data.RegionName = r.Name
		data.RegionFocus = strings.Join(r.LegalFocus, ", ")
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// formatContext numbers each chunk and labels it with its document,
// legal reference, and origin.
func formatContext(sources []types.DocumentChunk) string {
	if len(sources) == 0 {
		return noDocuments
	}

	var b strings.Builder
	for i, c := range sources {
		fmt.Fprintf(&b, "[%d] %s", i+1, c.DocumentName())
		if ref := c.LegalReference(); ref != "" {
			fmt.Fprintf(&b, " (%s)", ref)
		}
		if c.Origin == types.OriginWeb {
			b.WriteString(" [nguồn web, chưa xác minh]")
		}
		b.WriteString("\n")
		b.WriteString(truncateRunes(strings.TrimSpace(c.Content), contextLimit))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
