// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/legal-engine/pkg/types"
)

const laborText = `BỘ LUẬT LAO ĐỘNG
Căn cứ Hiến pháp nước Cộng hòa xã hội chủ nghĩa Việt Nam;

Điều 1. Phạm vi điều chỉnh
Bộ luật Lao động quy định tiêu chuẩn lao động.

Điều 105. Thời giờ làm việc bình thường
1. Thời giờ làm việc bình thường không quá 08 giờ trong 01 ngày.
Theo Điều 106. thì không áp dụng giữa dòng.
`

func TestSplitArticles(t *testing.T) {
	got := SplitArticles(laborText)
	require.Len(t, got, 3)

	assert.Empty(t, got[0].Number)
	assert.True(t, strings.HasPrefix(got[0].Content, "BỘ LUẬT LAO ĐỘNG"))

	assert.Equal(t, "1", got[1].Number)
	assert.True(t, strings.HasPrefix(got[1].Content, "Điều 1. Phạm vi điều chỉnh"))

	assert.Equal(t, "105", got[2].Number)
	assert.Contains(t, got[2].Content, "Theo Điều 106.", "mid-line references are not headings")
}

func TestSplitArticlesWithoutHeadings(t *testing.T) {
	assert.Nil(t, SplitArticles("  \n "))

	got := SplitArticles("Văn bản không có điều khoản")
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Number)
}

func TestDocumentChunks(t *testing.T) {
	doc := Document{
		Name:      "Bộ luật Lao động",
		Domain:    types.DomainLabor,
		Number:    "45/2019/QH14",
		Year:      2019,
		Authority: "Quốc hội",
		SourceURL: "https://vbpl.vn/blld",
		Text:      laborText,
	}

	chunks := doc.Chunks()
	require.Len(t, chunks, 3)

	c := chunks[2]
	assert.Equal(t, "Bộ luật Lao động", c.DocumentName())
	assert.Equal(t, "lao_dong", c.Meta(types.MetaLegalDomain))
	assert.Equal(t, "105", c.Meta(types.MetaArticleNumber))
	assert.Equal(t, "2019", c.Meta(types.MetaYear))
	assert.Equal(t, "https://vbpl.vn/blld", c.Meta(types.MetaSourceURL))
	assert.Equal(t, types.OriginIndex, c.Origin)

	again := doc.Chunks()
	for i := range chunks {
		assert.Equal(t, chunks[i].ID, again[i].ID, "chunk IDs are deterministic")
	}
	assert.NotEqual(t, chunks[1].ID, chunks[2].ID)
}

func TestDocumentChunksExplicitArticles(t *testing.T) {
	doc := Document{
		Name: "Luật Hôn nhân và Gia đình",
		Articles: []Article{
			{Number: "51", Clause: "1", Content: "Vợ, chồng hoặc cả hai người có quyền yêu cầu Tòa án giải quyết việc ly hôn."},
			{Number: "52", Content: "   "},
		},
	}
	chunks := doc.Chunks()
	require.Len(t, chunks, 1)
	assert.Equal(t, "general", chunks[0].Meta(types.MetaLegalDomain))
	assert.Equal(t, "1", chunks[0].Meta(types.MetaClauseNumber))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "family.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`document_name: Luật Hôn nhân và Gia đình
legal_domain: gia_dinh
number: 52/2014/QH13
year: 2014
articles:
  - article_number: "51"
    content: Quyền yêu cầu giải quyết ly hôn
`), 0o644))

	doc, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "Luật Hôn nhân và Gia đình", doc.Name)
	assert.Equal(t, types.DomainFamily, doc.Domain)
	assert.Equal(t, 2014, doc.Year)
	require.Len(t, doc.Articles, 1)

	txtPath := filepath.Join(dir, "bo-luat-lao-dong.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(laborText), 0o644))

	doc, err = LoadFile(txtPath)
	require.NoError(t, err)
	assert.Equal(t, "bo-luat-lao-dong", doc.Name)
	assert.Equal(t, types.DomainLabor, doc.Domain)
	assert.Len(t, doc.Chunks(), 3)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	binPath := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(binPath, []byte{1, 2, 3}, 0o644))
	_, err = LoadFile(binPath)
	assert.ErrorContains(t, err, "unsupported")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.yaml", "a.txt", "sub/c.pdf", "skip.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	got, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "c.pdf"),
	}, got)
}
