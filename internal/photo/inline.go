package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultMaxDimension bounds the longer side of inline image payloads. Phone
// photos routinely exceed 4000px; the model gains nothing past this size and
// the request bloats.
const DefaultMaxDimension = 2048

// jpegQuality is the re-encode quality for downscaled photos.
const jpegQuality = 85

// Inline returns the photo bytes and MIME type to embed in the analysis
// request. JPEG and PNG photos larger than maxDimension on either side are
// downscaled and re-encoded as JPEG; everything else is passed through as-is.
func (p *UploadedPhoto) Inline(maxDimension int) ([]byte, string, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, "", fmt.Errorf("read photo: %w", err)
	}

	if p.MIMEType != "image/jpeg" && p.MIMEType != "image/png" {
		return data, p.MIMEType, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// Undecodable but declared as JPEG/PNG: let the model see the
		// original bytes rather than failing locally.
		log.Debug().Err(err).Str("path", p.Path).Msg("Could not decode image config, sending original")
		return data, p.MIMEType, nil
	}

	if cfg.Width <= maxDimension && cfg.Height <= maxDimension {
		return data, p.MIMEType, nil
	}

	var img image.Image
	switch p.MIMEType {
	case "image/jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "image/png":
		img, err = png.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	newWidth, newHeight := fitDimensions(cfg.Width, cfg.Height, maxDimension)
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode downscaled image: %w", err)
	}

	log.Debug().
		Int("origWidth", cfg.Width).
		Int("origHeight", cfg.Height).
		Int("newWidth", newWidth).
		Int("newHeight", newHeight).
		Int("outputSize", buf.Len()).
		Msg("Photo downscaled for inline upload")

	return buf.Bytes(), "image/jpeg", nil
}

// fitDimensions scales (width, height) to fit within maxDimension,
// preserving aspect ratio.
func fitDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width > height {
		return maxDimension, int(float64(height) * float64(maxDimension) / float64(width))
	}
	return int(float64(width) * float64(maxDimension) / float64(height)), maxDimension
}
