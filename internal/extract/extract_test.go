package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextPlain(t *testing.T) {
	got, err := Text("notes.txt", []byte("  Vacation requests must be submitted 2 weeks in advance.\n"))
	require.NoError(t, err)
	require.Equal(t, "Vacation requests must be submitted 2 weeks in advance.", got)
}

func TestTextUnknownExtensionTreatedAsPlain(t *testing.T) {
	got, err := Text("data.log", []byte("line one\nline two"))
	require.NoError(t, err)
	require.Equal(t, "line one\nline two", got)
}

func TestTextMarkdownStripsFormatting(t *testing.T) {
	src := "# Vacation Policy\n\nRequests must be submitted **2 weeks** in advance.\n\n- Approval is manager discretion\n"
	got, err := Text("policy.md", []byte(src))
	require.NoError(t, err)
	require.Contains(t, got, "Vacation Policy")
	require.Contains(t, got, "2 weeks")
	require.Contains(t, got, "Approval is manager discretion")
	require.NotContains(t, got, "#")
	require.NotContains(t, got, "**")
}

func TestTextMarkdownKeepsParagraphBoundaries(t *testing.T) {
	src := "First paragraph here.\n\nSecond paragraph here.\n"
	got, err := Text("doc.md", []byte(src))
	require.NoError(t, err)
	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 2)
}

func TestTextInvalidPDF(t *testing.T) {
	_, err := Text("broken.pdf", []byte("not a pdf at all"))
	require.Error(t, err)
}
