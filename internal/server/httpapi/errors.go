package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/photogallery/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps a service error to a status code and a message that is
// safe to show to users.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, "account already exists"
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "photo id conflict, please retry"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrInvalid):
		return http.StatusBadRequest, invalidMessage(err)
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	case errors.Is(err, common.ErrStorage):
		return http.StatusBadGateway, "upload failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// invalidMessage strips the sentinel prefix added by common.Invalidf.
func invalidMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, common.ErrInvalid.Error()+": "); i >= 0 {
		return msg[i+len(common.ErrInvalid.Error())+2:]
	}
	return common.ErrInvalid.Error()
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	writeJSON(w, code, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
