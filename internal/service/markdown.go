package service

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownToText flattens markdown-formatted transcript uploads to plain
// block text, one block per line, so speaker-turn parsing sees the same
// shape as a plain-text upload.
func markdownToText(markdown string) string {
	md := goldmark.New()
	source := []byte(markdown)
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		txt := extractText(node, source)
		if txt == "" {
			continue
		}
		blocks = append(blocks, txt)
	}
	return strings.Join(blocks, "\n")
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			if node.(*ast.Text).SoftLineBreak() || node.(*ast.Text).HardLineBreak() {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// looksLikeMarkdown is a cheap sniff for formatted uploads.
func looksLikeMarkdown(name, content string) bool {
	if strings.HasSuffix(strings.ToLower(name), ".md") {
		return true
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```") {
			return true
		}
	}
	return false
}
