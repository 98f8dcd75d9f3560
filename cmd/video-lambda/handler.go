package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/algopikoke/videogenerator-backend/internal/analysis"
	"github.com/algopikoke/videogenerator-backend/internal/metrics"
	"github.com/algopikoke/videogenerator-backend/internal/photo"
	"github.com/rs/zerolog/log"
)

const (
	// maxUploadBytes caps the whole multipart request body.
	maxUploadBytes = 25 << 20

	// multipartMemory is how much of the parsed form stays in memory before
	// spilling to disk.
	multipartMemory = 10 << 20

	// geminiTimeout bounds the photo analysis call. Lambda still enforces its
	// own function timeout above this.
	geminiTimeout = 90 * time.Second

	// telegramTimeout bounds the notification call.
	telegramTimeout = 15 * time.Second
)

// User-facing messages. The frontend displays these verbatim.
const (
	msgMissingPhoto   = "File foto tidak ditemukan."
	msgMissingChoices = "Pilihan video dan musik harus diisi."
	msgNotImage       = "File harus berupa gambar."
	msgInternalError  = "Terjadi kesalahan saat memproses permintaan."
	msgSuccess        = "Video berhasil diproses dan dikirim ke Telegram!"
)

// Analyzer produces a structured description of a photo.
type Analyzer interface {
	AnalyzePhoto(ctx context.Context, data []byte, mimeType string, meta *photo.Metadata, videoChoice, musicChoice string) (*analysis.Result, error)
}

// Notifier delivers a text notification.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
}

// server holds the per-cold-start dependencies of the HTTP handlers.
type server struct {
	analyzer Analyzer
	notifier Notifier
}

// processResponse is the success body of POST /api/process.
type processResponse struct {
	Message string           `json:"message"`
	Result  *analysis.Result `json:"result"`
}

// handleHealth reports liveness for the frontend's startup probe.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "videogenerator-backend",
	})
}

// handleProcess accepts a multipart photo upload with video and music style
// choices, runs the analysis pipeline, and notifies Telegram. The temp file
// holding the upload is removed on every exit path.
func (s *server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	start := time.Now()
	rec := metrics.New(metrics.Namespace).Dimension("Operation", "ProcessVideo")
	defer rec.Flush()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		rec.Count("RequestInvalid")
		httpError(w, http.StatusBadRequest, msgMissingPhoto, "parse multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		rec.Count("RequestInvalid")
		httpError(w, http.StatusBadRequest, msgMissingPhoto, "form file: "+err.Error())
		return
	}
	defer file.Close()

	videoChoice := strings.TrimSpace(r.FormValue("videoChoice"))
	musicChoice := strings.TrimSpace(r.FormValue("musicChoice"))
	if videoChoice == "" || musicChoice == "" {
		rec.Count("RequestInvalid")
		httpError(w, http.StatusBadRequest, msgMissingChoices)
		return
	}

	p, err := photo.SaveUpload(file, header)
	if err != nil {
		if errors.Is(err, photo.ErrNotImage) {
			rec.Count("RequestInvalid")
			httpError(w, http.StatusBadRequest, msgNotImage, "upload: "+err.Error())
			return
		}
		rec.Count("RequestFailed")
		httpError(w, http.StatusInternalServerError, msgInternalError, "save upload: "+err.Error())
		return
	}
	defer p.Remove()

	log.Info().
		Str("filename", header.Filename).
		Int64("size", p.Size).
		Str("videoChoice", videoChoice).
		Str("musicChoice", musicChoice).
		Msg("Processing uploaded photo")

	result, err := s.processPhoto(r.Context(), p, videoChoice, musicChoice)
	if err != nil {
		rec.Count("RequestFailed")
		httpError(w, http.StatusInternalServerError, msgInternalError, err.Error())
		return
	}

	rec.Count("RequestSucceeded")
	rec.Metric("ProcessDuration", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds)
	rec.Property("videoChoice", videoChoice)
	rec.Property("musicChoice", musicChoice)

	respondJSON(w, http.StatusOK, processResponse{
		Message: msgSuccess,
		Result:  result,
	})
}

// processPhoto runs the pipeline: prepare the inline payload, analyze with
// Gemini, notify Telegram.
func (s *server) processPhoto(ctx context.Context, p *photo.UploadedPhoto, videoChoice, musicChoice string) (*analysis.Result, error) {
	data, mimeType, err := p.Inline(photo.DefaultMaxDimension)
	if err != nil {
		return nil, fmt.Errorf("prepare photo: %w", err)
	}

	// Video rendering itself happens on the frontend; the backend's job is
	// the analysis and notification.
	log.Info().Str("videoChoice", videoChoice).Str("musicChoice", musicChoice).Msg("Simulating video processing")

	analyzeCtx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	result, err := s.analyzer.AnalyzePhoto(analyzeCtx, data, mimeType, p.Metadata, videoChoice, musicChoice)
	if err != nil {
		return nil, err
	}

	notifyCtx, cancel := context.WithTimeout(ctx, telegramTimeout)
	defer cancel()

	if err := s.notifier.SendMessage(notifyCtx, result.NotificationText()); err != nil {
		return nil, err
	}

	return result, nil
}
