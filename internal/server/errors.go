package server

import (
	"errors"
	"net/http"

	"github.com/guiyumin/clipgrab/internal/extractor"
	"github.com/guiyumin/clipgrab/internal/job"
	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

const internalErrorMessage = "Internal server error."

// ErrorResponse is the JSON error body of the metadata endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// errorStatus maps an error to the HTTP status and the message shown to
// the user. Anything the user can fix is a 400; the rest is hidden
// behind a generic 500.
func errorStatus(err error) (int, string) {
	var (
		unsupported *extractor.UnsupportedURLError
		extraction  *ytdlp.ExtractionError
		selection   *job.SelectionError
	)
	switch {
	case errors.As(err, &unsupported), errors.As(err, &extraction), errors.As(err, &selection):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}
