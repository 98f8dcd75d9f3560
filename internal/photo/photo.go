// Package photo materializes uploaded photos as request-scoped temp files and
// prepares them for inline upload to the analysis model. A photo created by
// SaveUpload is owned by the request: Remove is deferred right after creation
// and runs on every exit path.
package photo

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// supportedExtensions maps photo file extensions to their MIME types.
var supportedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

// ErrNotImage is returned when the uploaded file is not a recognizable image.
var ErrNotImage = errors.New("uploaded file is not an image")

// UploadedPhoto is an uploaded photo on disk. Temp-file instances (from
// SaveUpload) are deleted by Remove; instances from Load describe caller-owned
// files and are never deleted.
type UploadedPhoto struct {
	Path     string
	MIMEType string
	Size     int64
	Metadata *Metadata

	temp bool
}

// SaveUpload writes a multipart file part to a uuid-named temp file and
// returns the photo. The caller must defer Remove on the result.
func SaveUpload(file multipart.File, header *multipart.FileHeader) (*UploadedPhoto, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	mimeType, ok := supportedExtensions[ext]
	if !ok {
		// Fall back on the declared part content type for uploads with
		// unusual or missing extensions.
		declared := header.Header.Get("Content-Type")
		if !strings.HasPrefix(declared, "image/") {
			return nil, ErrNotImage
		}
		mimeType = declared
	}

	path := filepath.Join(os.TempDir(), "videogen-"+uuid.NewString()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(dst, file)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	p := &UploadedPhoto{
		Path:     path,
		MIMEType: mimeType,
		Size:     size,
		temp:     true,
	}

	// Metadata is best-effort context for the analysis prompt; many uploads
	// (screenshots, stripped images) carry none.
	if meta, err := extractMetadata(path); err == nil {
		p.Metadata = meta
	} else {
		log.Debug().Err(err).Str("path", path).Msg("No EXIF metadata extracted")
	}

	log.Debug().
		Str("path", path).
		Str("mimeType", mimeType).
		Int64("size", size).
		Msg("Upload materialized to temp file")

	return p, nil
}

// Load describes an existing photo on disk without taking ownership of it.
// Used by the CLI; Remove on the result is a no-op.
func Load(path string) (*UploadedPhoto, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := supportedExtensions[ext]
	if !ok {
		return nil, ErrNotImage
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat photo: %w", err)
	}

	p := &UploadedPhoto{
		Path:     path,
		MIMEType: mimeType,
		Size:     info.Size(),
	}
	if meta, err := extractMetadata(path); err == nil {
		p.Metadata = meta
	}
	return p, nil
}

// Remove deletes the temp file. Deletion failure is logged and never
// surfaced: cleanup must not affect the response already decided on.
func (p *UploadedPhoto) Remove() {
	if !p.temp {
		return
	}
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", p.Path).Msg("Failed to remove temp file")
		return
	}
	log.Debug().Str("path", p.Path).Msg("Temp file removed")
}
