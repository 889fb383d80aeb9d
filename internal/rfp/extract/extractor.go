package extract

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindDOC  Kind = "doc"
	KindText Kind = "text"
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeDOC  = "application/msword"
	MediaTypeText = "text/plain"
)

var kindsByMediaType = map[string]Kind{
	MediaTypePDF:        KindPDF,
	"application/x-pdf": KindPDF,
	MediaTypeDOCX:       KindDOCX,
	MediaTypeDOC:        KindDOC,
	MediaTypeText:       KindText,
	"text/markdown":     KindText,
}

// KindFor resolves a media type (parameters ignored) to an extraction kind.
func KindFor(mediaType string) (Kind, error) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	if k, ok := kindsByMediaType[mt]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", proposal.ErrUnsupportedMediaType, mediaType)
}

var mediaTypesByExt = map[string]string{
	".pdf":  MediaTypePDF,
	".docx": MediaTypeDOCX,
	".doc":  MediaTypeDOC,
	".txt":  MediaTypeText,
	".md":   "text/markdown",
}

// MediaTypeFor picks the media type for an upload. A declared type that maps
// to a known kind wins; otherwise the file extension decides. Unknown inputs
// return the declared type unchanged so KindFor can reject it.
func MediaTypeFor(filename, declared string) string {
	if _, err := KindFor(declared); err == nil {
		return declared
	}
	if mt, ok := mediaTypesByExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return declared
}

// OCR turns a scanned document into text. Used only when a PDF carries no
// text layer.
type OCR interface {
	ProcessBytes(ctx context.Context, mimeType string, data []byte) (string, error)
}

type Extractor struct {
	log *logger.Logger
	ocr OCR
}

func New(log *logger.Logger, ocr OCR) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{log: log.With("service", "TextExtractor"), ocr: ocr}
}

// Extract converts data of the given media type into plain text. It has no side
// effects; the result is not normalized.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	kind, err := KindFor(mediaType)
	if err != nil {
		return "", err
	}

	var text string
	switch kind {
	case KindPDF:
		text, err = extractPDF(data)
		if err == nil && strings.TrimSpace(text) == "" && e.ocr != nil {
			e.log.Info("PDF has no text layer; running OCR", "bytes", len(data))
			text, err = e.ocr.ProcessBytes(ctx, MediaTypePDF, data)
		}
	case KindDOCX:
		text, err = extractDOCX(data)
	case KindDOC:
		text, err = extractLegacyDOC(data)
	case KindText:
		text, err = decodePlainText(data)
	}
	if err != nil {
		return "", &proposal.ExtractionError{MediaType: string(kind), Cause: err}
	}
	return text, nil
}
