package photo

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"os"
	"testing"
)

// multipartPart builds a real multipart.File + FileHeader the same way the
// handler receives them from ParseMultipartForm.
func multipartPart(t *testing.T, filename, contentType string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	header := form.File["photo"][0]
	file, err := header.Open()
	if err != nil {
		t.Fatalf("open part: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

// pngBytes encodes a solid-color PNG of the given size.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSaveUploadAndRemove(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	data := pngBytes(t, 8, 8)
	file, header := multipartPart(t, "cat.png", "image/png", data)

	p, err := SaveUpload(file, header)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if p.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", p.MIMEType)
	}
	if p.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", p.Size, len(data))
	}

	saved, err := os.ReadFile(p.Path)
	if err != nil {
		t.Fatalf("read temp file: %v", err)
	}
	if !bytes.Equal(saved, data) {
		t.Error("temp file content does not match upload")
	}

	p.Remove()
	if _, err := os.Stat(p.Path); !os.IsNotExist(err) {
		t.Errorf("temp file still exists after Remove: %v", err)
	}

	// Remove is idempotent.
	p.Remove()
}

func TestSaveUploadContentTypeFallback(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	file, header := multipartPart(t, "photo.bin", "image/png", pngBytes(t, 4, 4))

	p, err := SaveUpload(file, header)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	defer p.Remove()

	if p.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png from part header", p.MIMEType)
	}
}

func TestSaveUploadRejectsNonImage(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	file, header := multipartPart(t, "notes.txt", "text/plain", []byte("not a photo"))

	if _, err := SaveUpload(file, header); !errors.Is(err, ErrNotImage) {
		t.Fatalf("SaveUpload error = %v, want ErrNotImage", err)
	}

	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("unexpected temp file left behind: %s", e.Name())
	}
}

func TestLoadDoesNotOwnFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/existing.png"
	if err := os.WriteFile(path, pngBytes(t, 4, 4), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p.Remove()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Remove deleted a caller-owned file: %v", err)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load("/tmp/whatever.pdf"); !errors.Is(err, ErrNotImage) {
		t.Fatalf("Load error = %v, want ErrNotImage", err)
	}
}

func TestInlinePassthroughSmallImage(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	data := pngBytes(t, 16, 16)
	file, header := multipartPart(t, "small.png", "image/png", data)
	p, err := SaveUpload(file, header)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	defer p.Remove()

	got, mimeType, err := p.Inline(DefaultMaxDimension)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mimeType = %q, want image/png", mimeType)
	}
	if !bytes.Equal(got, data) {
		t.Error("small image should pass through unchanged")
	}
}

func TestInlineDownscalesOversizedImage(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	file, header := multipartPart(t, "big.png", "image/png", pngBytes(t, 400, 200))
	p, err := SaveUpload(file, header)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	defer p.Remove()

	got, mimeType, err := p.Inline(100)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg after downscale", mimeType)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("decode downscaled output: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("downscaled to %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}

func TestInlinePassthroughNonResizableFormat(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	data := []byte("GIF89a fake payload")
	file, header := multipartPart(t, "anim.gif", "image/gif", data)
	p, err := SaveUpload(file, header)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	defer p.Remove()

	got, mimeType, err := p.Inline(DefaultMaxDimension)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	if mimeType != "image/gif" {
		t.Errorf("mimeType = %q, want image/gif", mimeType)
	}
	if !bytes.Equal(got, data) {
		t.Error("gif should pass through unchanged")
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name                  string
		width, height, max    int
		wantWidth, wantHeight int
	}{
		{"within bounds", 800, 600, 2048, 800, 600},
		{"landscape", 4000, 3000, 2048, 2048, 1536},
		{"portrait", 1500, 3000, 1000, 500, 1000},
		{"square", 4096, 4096, 2048, 2048, 2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitDimensions(tt.width, tt.height, tt.max)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("fitDimensions(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.width, tt.height, tt.max, w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}
