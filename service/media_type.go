package service

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tnqbao/gau-media-service/entity"
)

const (
	defaultMimeType = "application/octet-stream"
	blobKeyPrefix   = "media/"
)

// DeriveMediaType maps a MIME type onto the media category.
func DeriveMediaType(mimeType string) entity.MediaType {
	mimeType = strings.ToLower(baseMimeType(mimeType))
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return entity.MediaTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return entity.MediaTypeVideo
	case mimeType == "application/pdf",
		mimeType == "application/msword",
		strings.Contains(mimeType, "document"):
		return entity.MediaTypeDocument
	default:
		return entity.MediaTypeOther
	}
}

// baseMimeType strips parameters such as "; charset=utf-8".
func baseMimeType(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// extensionFor returns the file extension (with the leading dot) for a MIME
// type, falling back to the extension of fileName.
func extensionFor(mimeType, fileName string) string {
	if m := mimetype.Lookup(baseMimeType(mimeType)); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return strings.ToLower(filepath.Ext(fileName))
}

// blobKey is the storage key of a media object. It never starts with "/".
// Ids that already carry an extension are used as they are.
func blobKey(id, mimeType, fileName string) string {
	if filepath.Ext(id) != "" {
		return blobKeyPrefix + id
	}
	return blobKeyPrefix + id + extensionFor(mimeType, fileName)
}
