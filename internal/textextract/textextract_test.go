package textextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFromBytesPlainText(t *testing.T) {
	text := FromBytes("requirements.txt", []byte("Build a booking system."))
	assert.Equal(t, "Build a booking system.", text)
}

func TestFromBytesEmpty(t *testing.T) {
	assert.Equal(t, "", FromBytes("doc.pdf", nil))
	assert.Equal(t, "", FromBytes("doc.pdf", []byte{}))
}

func TestFromBytesDocx(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text := FromBytes("brief.docx", buildDocx(t, docXML))
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestFromBytesDocxWithoutDocumentEntry(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	assert.Equal(t, "", FromBytes("brief.docx", buf.Bytes()))
}

func TestFromBytesCorruptPDFFallsBack(t *testing.T) {
	text := FromBytes("broken.pdf", []byte("not a real pdf"))
	assert.Equal(t, "not a real pdf", text)
}

func TestFromBytesCorruptDocxFallsBack(t *testing.T) {
	text := FromBytes("broken.docx", []byte("not a zip archive"))
	assert.Equal(t, "not a zip archive", text)
}

func TestFromBytesDropsInvalidUTF8(t *testing.T) {
	text := FromBytes("notes.txt", []byte{'h', 'i', 0xff, '!'})
	assert.Equal(t, "hi!", text)
}

func TestFromBytesExtensionCaseInsensitive(t *testing.T) {
	docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Upper.</w:t></w:r></w:p></w:body></w:document>`
	text := FromBytes("BRIEF.DOCX", buildDocx(t, docXML))
	assert.Equal(t, "Upper.", text)
}
