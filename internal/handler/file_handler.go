package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatrelay/internal/app/storage"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/req"
	"chatrelay/internal/pkg/resp"
)

// uploadField is the multipart field carrying the file.
const uploadField = "file"

// UploadResult is the body returned for a stored upload.
type UploadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// HandleUpload creates an HTTP HandlerFunc that stores a multipart file under
// its base name and returns the path it can be fetched from.
func HandleUpload(deps *AppDeps) http.HandlerFunc {
	maxBytes := deps.Config.MaxUploadBytes()

	return func(w http.ResponseWriter, r *http.Request) {
		if customErr := req.SetupMultipart(w, r, maxBytes); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, customErr := req.FormFile(r, uploadField)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer file.Close()

		if header.Size > maxBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrRequestEntityTooLarge, deps.Config.MaxUploadMB))
			return
		}

		name, err := storage.CleanName(header.Filename)
		if err != nil {
			logx.Warn("Upload rejected: invalid file name.", "file_name", header.Filename)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Storage.Save(r.Context(), name, file, header.Size, header.Header.Get("Content-Type")); err != nil {
			logx.Error(err, "Failed to store upload", "file_name", name, "backend", deps.Storage.Backend())
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		logx.Info("File uploaded", "file_name", name, "size", header.Size, "backend", deps.Storage.Backend())

		resp.RespondJSON(w, r, http.StatusOK, UploadResult{
			Filename: name,
			Path:     "/uploads/" + name,
		})
	}
}

// HandleDownload creates an HTTP HandlerFunc serving an uploaded file, either
// from disk or by redirecting to a presigned URL.
func HandleDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")

		dl, err := deps.Storage.Locate(r.Context(), filename)
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
			resp.RespondError(w, r, errs.NewError(errs.ErrFileNotFound))
			return
		case err != nil:
			logx.Error(err, "Failed to locate upload", "file_name", filename)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		if dl.URL != "" {
			http.Redirect(w, r, dl.URL, http.StatusFound)
			return
		}

		if dl.ContentType != "" {
			w.Header().Set("Content-Type", dl.ContentType)
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, dl.Path)
	}
}
