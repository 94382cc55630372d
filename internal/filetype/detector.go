package filetype

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind is the processing class of an input document.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindUnsupported Kind = "unsupported"
)

// Info contains detected file type information
type Info struct {
	MIMEType  string `json:"mime_type"`
	Extension string `json:"extension"`
	Kind      Kind   `json:"kind"`
}

// Supported reports whether the pipeline can extract text from the input.
func (i Info) Supported() bool { return i.Kind == KindPDF || i.Kind == KindText }

// DetectBytes classifies a document by its magic bytes, never by name.
func DetectBytes(b []byte) Info {
	mtype := mimetype.Detect(b)
	info := Info{MIMEType: mtype.String(), Extension: mtype.Extension(), Kind: classify(mtype)}
	log.Debug().Str("mime", info.MIMEType).Str("kind", string(info.Kind)).Int("bytes", len(b)).Msg("detected file type")
	return info
}

func classify(mtype *mimetype.MIME) Kind {
	if mtype.Is("application/pdf") {
		return KindPDF
	}
	// walk up the hierarchy so text/csv, text/html etc. count as text
	for m := mtype; m != nil; m = m.Parent() {
		switch {
		case m.Is("text/plain"):
			return KindText
		case strings.HasPrefix(m.String(), "image/"):
			return KindImage
		}
	}
	return KindUnsupported
}
