package browser

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDOCX_ProducesValidZipWithExpectedParts(t *testing.T) {
	out, err := buildDOCX(sampleContent())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	require.True(t, names["[Content_Types].xml"])
	require.True(t, names["_rels/.rels"])
	require.True(t, names["word/_rels/document.xml.rels"])
	require.True(t, names["word/document.xml"])
}

func TestBuildDOCX_DocumentXMLContainsEscapedContent(t *testing.T) {
	c := sampleContent()
	c.Summary = "Built <widgets> & gizmos"
	out, err := buildDOCX(c)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	var doc []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			buf := new(bytes.Buffer)
			_, err = buf.ReadFrom(rc)
			require.NoError(t, err)
			doc = buf.Bytes()
		}
	}
	require.NotEmpty(t, doc)
	require.Contains(t, string(doc), "&lt;widgets&gt;")
	require.Contains(t, string(doc), "Jane Doe")
}
