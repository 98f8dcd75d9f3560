package photo

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Metadata holds EXIF fields worth surfacing to the analysis prompt.
type Metadata struct {
	CameraMake  string
	CameraModel string

	Latitude  float64
	Longitude float64
	HasGPS    bool

	DateTaken time.Time
	HasDate   bool
}

// FormatContext renders the metadata as prompt-ready lines. Returns "" when
// nothing useful was extracted.
func (m *Metadata) FormatContext() string {
	var sb strings.Builder
	if m.CameraMake != "" || m.CameraModel != "" {
		sb.WriteString(fmt.Sprintf("- Camera: %s %s\n", m.CameraMake, m.CameraModel))
	}
	if m.HasGPS {
		sb.WriteString(fmt.Sprintf("- GPS: %.6f, %.6f\n", m.Latitude, m.Longitude))
	}
	if m.HasDate {
		sb.WriteString(fmt.Sprintf("- Taken: %s\n", m.DateTaken.Format("Monday, January 2, 2006 at 3:04 PM")))
	}
	return sb.String()
}

// extractMetadata reads EXIF metadata from the photo on disk. Format detection
// (JPEG, HEIC, TIFF, PNG) happens from the file headers.
func extractMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	exifData, err := imagemeta.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode EXIF metadata: %w", err)
	}

	meta := &Metadata{
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
	}

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		meta.Latitude = gps.Latitude()
		meta.Longitude = gps.Longitude()
		meta.HasGPS = true
	}

	// Date fallback chain: DateTimeOriginal > CreateDate > ModifyDate.
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		meta.DateTaken = exifData.DateTimeOriginal()
		meta.HasDate = true
	case !exifData.CreateDate().IsZero():
		meta.DateTaken = exifData.CreateDate()
		meta.HasDate = true
	case !exifData.ModifyDate().IsZero():
		meta.DateTaken = exifData.ModifyDate()
		meta.HasDate = true
	}

	log.Debug().
		Str("camera", strings.TrimSpace(meta.CameraMake+" "+meta.CameraModel)).
		Bool("gps", meta.HasGPS).
		Bool("date", meta.HasDate).
		Msg("EXIF metadata extracted")

	return meta, nil
}
