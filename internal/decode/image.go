package decode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WEBP
)

// Image is a decoded raster image together with its source bytes.
type Image struct {
	Img    image.Image
	Format string
	Data   []byte
}

// Document is a decoded medical report: either a raster image or a PDF.
type Document struct {
	Image *Image
	PDF   []byte
}

// IsPDF reports whether the document is a PDF.
func (d Document) IsPDF() bool { return d.PDF != nil }

var pdfMagic = []byte("%PDF-")

// DecodeImage decodes a base64 (or data URL) payload into an image.
func DecodeImage(b64 string) (Image, error) {
	data, err := Base64(b64)
	if err != nil {
		return Image{}, err
	}
	return imageFromBytes(data)
}

// DecodeDocument decodes a base64 payload into an image or, when it carries a
// PDF signature, a PDF document.
func DecodeDocument(b64 string) (Document, error) {
	data, err := Base64(b64)
	if err != nil {
		return Document{}, err
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return Document{PDF: data}, nil
	}
	img, err := imageFromBytes(data)
	if err != nil {
		return Document{}, err
	}
	return Document{Image: &img}, nil
}

// Base64 decodes raw base64 in the standard or URL alphabet, padded or not.
// A data URL prefix ("data:image/png;base64,") is stripped first.
func Base64(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, newError(KindInvalidBase64, "malformed data url")
		}
		s = s[idx+1:]
	}
	s = stripWhitespace(s)
	if s == "" {
		return nil, newError(KindInvalidBase64, "empty payload")
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, &Error{Kind: KindInvalidBase64, Err: lastErr}
}

func imageFromBytes(data []byte) (Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Image{}, newError(KindInvalidImage, "unsupported or corrupt image")
		}
		return Image{}, &Error{Kind: KindInvalidImage, Err: err}
	}
	return Image{Img: img, Format: format, Data: data}, nil
}

func stripWhitespace(s string) string {
	if !strings.ContainsAny(s, " \n\r\t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\n', '\r', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
