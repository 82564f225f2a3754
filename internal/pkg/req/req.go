/*
Package req provides helpers for parsing HTTP request bodies.

It wraps multipart form parsing with a hard body limit and maps parser failures
onto errs codes so handlers can answer with a single RespondError call.
*/
package req

import (
	"errors"
	"mime/multipart"
	"net/http"

	"chatrelay/internal/pkg/errs"
)

// MaxFormMemory is how much of a multipart body ParseMultipartForm keeps in memory;
// larger file parts spill to temporary files.
const MaxFormMemory int64 = 32 << 20 // 32 MB

// formOverhead is the slack allowed on top of the file limit for multipart headers and boundaries.
const formOverhead int64 = 1 << 20

// SetupMultipart parses the multipart body of r, rejecting bodies larger than maxFileBytes.
func SetupMultipart(w http.ResponseWriter, r *http.Request, maxFileBytes int64) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileBytes+formOverhead)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge, maxFileBytes>>20)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}

// FormFile returns the single file uploaded under field, or ErrNoFileUploaded.
// The caller must close the returned file.
func FormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, *errs.CustomError) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, errs.NewError(errs.ErrNoFileUploaded)
	}
	return file, header, nil
}
