package filetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		kind Kind
	}{
		{"pdf", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"), KindPDF},
		{"plain text", []byte("Contrato de compra e venda\nClausula primeira\n"), KindText},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), KindImage},
		{"zip", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := DetectBytes(tt.in)
			assert.Equal(t, tt.kind, info.Kind, info.MIMEType)
			assert.Equal(t, tt.kind == KindPDF || tt.kind == KindText, info.Supported())
		})
	}
}

func TestDetectBytesPDFExtension(t *testing.T) {
	info := DetectBytes([]byte("%PDF-1.4\n"))
	assert.Equal(t, "application/pdf", info.MIMEType)
	assert.Equal(t, ".pdf", info.Extension)
}
