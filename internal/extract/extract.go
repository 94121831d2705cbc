package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Text extracts searchable plain text from an uploaded file, dispatching on
// the file extension. Anything that is not markdown or pdf is treated as
// UTF-8 plain text.
func Text(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return markdownText(data)
	case ".pdf":
		return pdfText(data)
	default:
		return strings.TrimSpace(string(data)), nil
	}
}

// markdownText walks the goldmark AST and keeps only text content, with
// block boundaries preserved as blank lines so paragraph segmentation still
// works downstream.
func markdownText(src []byte) (string, error) {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(src))

	var buf bytes.Buffer
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Paragraph, *ast.Heading:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			writeLines(&buf, node.Lines(), src)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			writeLines(&buf, node.Lines(), src)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walk markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func writeLines(buf *bytes.Buffer, lines *gmtext.Segments, src []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
