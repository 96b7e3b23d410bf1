package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/kitwms/internal/imaging"
)

// multipartSlack covers multipart framing around the image part.
const multipartSlack = 1 << 20

type imageSetter func(ctx context.Context, id int64, data []byte, mime string) error

type imageGetter func(ctx context.Context, id int64) ([]byte, string, error)

// uploadImage reads the "image" form field, normalizes it and stores it via
// set. what names the owning entity in logs.
func uploadImage(w http.ResponseWriter, r *http.Request, what string, set imageSetter) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid "+what+" id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+multipartSlack)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	img, err := imaging.Process(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := set(r.Context(), id, img.Data, img.MIME); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("image uploaded",
		"user", GetClaims(r.Context()).Username,
		what, id,
		"width", img.Width,
		"height", img.Height,
		"size", len(img.Data),
	)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// serveImage writes the stored image bytes of an entity.
func serveImage(w http.ResponseWriter, r *http.Request, what string, get imageGetter) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid "+what+" id")
		return
	}

	data, mime, err := get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}
