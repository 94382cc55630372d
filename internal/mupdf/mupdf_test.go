package mupdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal well-formed PDF with one Helvetica text line per page.
func buildPDF(pages ...string) []byte {
	var objs []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(buildPDF("one", "two", "three"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPageCountRejectsGarbage(t *testing.T) {
	_, err := PageCount([]byte("this is not a pdf"))
	assert.Error(t, err)
}

func TestGoFitzExtractText(t *testing.T) {
	text, err := NewGoFitzExtractor().ExtractText(context.Background(), buildPDF("Hello first", "Hello second"))
	require.NoError(t, err)
	assert.Contains(t, text, "Hello first")
	assert.Contains(t, text, "Hello second")
	assert.Less(t, strings.Index(text, "Hello first"), strings.Index(text, "Hello second"))
}

func TestGoFitzPageCount(t *testing.T) {
	n, err := NewGoFitzExtractor().PageCount(buildPDF("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func fakeMutool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	path := filepath.Join(t.TempDir(), "mutool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestMutoolExtractText(t *testing.T) {
	// prints the args so the test can check the invocation
	bin := fakeMutool(t, `echo "$@"`)
	dir := t.TempDir()
	e := &MutoolExtractor{Binary: bin, TempDir: dir}

	out, err := e.ExtractText(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "draw -q -F txt "))
	assert.Contains(t, out, filepath.Join(dir, "ocrdoc-"))

	left, err := filepath.Glob(filepath.Join(dir, "ocrdoc-*"))
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMutoolFailureCarriesStderr(t *testing.T) {
	bin := fakeMutool(t, `echo "cannot open document" >&2; exit 1`)
	e := &MutoolExtractor{Binary: bin, TempDir: t.TempDir()}

	_, err := e.ExtractText(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open document")
}

func TestMutoolAvailability(t *testing.T) {
	assert.False(t, (&MutoolExtractor{Binary: "definitely-not-mutool-xyz"}).IsAvailable())
	assert.True(t, (&MutoolExtractor{Binary: fakeMutool(t, "exit 0")}).IsAvailable())
}
