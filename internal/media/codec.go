// Package media converts uploaded binaries to and from base64 data URIs.
package media

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"socialfeed/internal/models"
)

// Supported image types.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEGIF  = "image/gif"
	MIMEWebP = "image/webp"
)

var (
	// ProfileImageTypes is the allow-list for profile photo uploads.
	ProfileImageTypes = []string{MIMEJPEG, MIMEPNG}
	// PostImageTypes is the allow-list for post attachments.
	PostImageTypes = []string{MIMEJPEG, MIMEPNG, MIMEGIF, MIMEWebP}
)

// Image is an uploaded binary and its declared media type.
type Image struct {
	Data        []byte
	ContentType string
}

// Encode renders data as "data:<contentType>;base64,<payload>". It returns
// nil when there is nothing to encode. An empty contentType is replaced by
// the type sniffed from data.
func Encode(data []byte, contentType string) *string {
	if len(data) == 0 {
		return nil
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	uri := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return &uri
}

// Parse is the inverse of Encode. The payload starts after the last
// ";base64," so content types may carry commas and parameters.
func Parse(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, models.NewValidationError("not a data URI")
	}
	i := strings.LastIndex(rest, ";base64,")
	if i < 0 {
		if !strings.Contains(rest, ",") {
			return nil, models.NewValidationError("data URI has no payload")
		}
		return nil, models.NewValidationError("data URI is not base64 encoded")
	}
	contentType, payload := rest[:i], rest[i+len(";base64,"):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("invalid base64 payload: %v", err))
	}
	return &Image{Data: data, ContentType: contentType}, nil
}

// Decoder reads multipart uploads into Images.
type Decoder struct {
	MaxBytes int64 // zero means unlimited
}

// Decode reads fh into memory and checks its type against allowed. A nil
// header yields (nil, nil) so callers can treat the attachment as optional.
func (d Decoder) Decode(fh *multipart.FileHeader, allowed ...string) (*Image, error) {
	if fh == nil {
		return nil, nil
	}
	if d.MaxBytes > 0 && fh.Size > d.MaxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("file %q exceeds %d bytes", fh.Filename, d.MaxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("read upload: %w", err))
	}
	if len(data) == 0 {
		return nil, models.NewValidationError(fmt.Sprintf("file %q is empty", fh.Filename))
	}

	contentType := declaredType(fh)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	contentType = baseType(contentType)

	if len(allowed) > 0 && !contains(allowed, contentType) {
		return nil, models.NewValidationError(fmt.Sprintf("unsupported file type %q", contentType))
	}
	return &Image{Data: data, ContentType: contentType}, nil
}

func declaredType(fh *multipart.FileHeader) string {
	if fh.Header == nil {
		return ""
	}
	return fh.Header.Get("Content-Type")
}

func baseType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
