package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
	"github.com/dmitrijs2005/photogallery/internal/server/search"
	"github.com/dmitrijs2005/photogallery/internal/server/services"
)

const defaultMaxUpload = 16 << 20

type listResponse struct {
	Photos []*models.Photo `json:"photos"`
	Query  string          `json:"query,omitempty"`
}

type detailResponse struct {
	Photo *models.Photo     `json:"photo"`
	Tags  []string          `json:"tags"`
	Exif  map[string]string `json:"exif"`
}

type sessionResponse struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func nonNil(ps []*models.Photo) []*models.Photo {
	if ps == nil {
		return []*models.Photo{}
	}
	return ps
}

func (s *HTTPServer) handleHome(w http.ResponseWriter, r *http.Request) {
	ps, err := s.gallery.BrowsePublic(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Photos: nonNil(ps)})
}

func (s *HTTPServer) handleMine(w http.ResponseWriter, r *http.Request) {
	ps, err := s.gallery.BrowseMine(r.Context(), sessionEmail(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Photos: nonNil(ps)})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, search.ScopePublic)
}

func (s *HTTPServer) handleMySearch(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, search.ScopeMine)
}

func (s *HTTPServer) search(w http.ResponseWriter, r *http.Request, scope search.Scope) {
	query := r.URL.Query().Get("query")
	ps, err := s.gallery.Search(r.Context(), sessionEmail(r.Context()), query, scope)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Photos: nonNil(ps), Query: query})
}

func (s *HTTPServer) handleView(w http.ResponseWriter, r *http.Request) {
	d, err := s.gallery.View(r.Context(), sessionEmail(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Photo: d.Photo, Tags: d.Tags, Exif: d.Exif})
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "file too large"})
			return
		}
		s.writeError(w, r, common.Invalidf("expected a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := services.UploadInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		Visibility:  formVisibility(r),
	}

	file, filename, err := formFile(r)
	if err == nil {
		defer file.Close()
		in.Filename = filename
		if in.Data, err = io.ReadAll(file); err != nil {
			s.writeError(w, r, common.Invalidf("could not read upload"))
			return
		}
	}

	p, err := s.gallery.Upload(r.Context(), sessionEmail(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// formFile accepts the file under "imagefile" or "file".
func formFile(r *http.Request) (io.ReadCloser, string, error) {
	for _, field := range []string{"imagefile", "file"} {
		f, h, err := r.FormFile(field)
		if err == nil {
			return f, h.Filename, nil
		}
	}
	return nil, "", http.ErrMissingFile
}

// formVisibility reads an explicit "visibility" field, or the "public"
// checkbox: checked means public, unchecked private.
func formVisibility(r *http.Request) string {
	if v := r.FormValue("visibility"); v != "" {
		return v
	}
	if r.FormValue("public") != "" {
		return string(models.VisibilityPublic)
	}
	return string(models.VisibilityPrivate)
}

func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, common.Invalidf("invalid request body")
		}
		return c, nil
	}
	c.Email = r.FormValue("email")
	c.Password = r.FormValue("password")
	return c, nil
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.accounts.Register(r.Context(), c.Email, c.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.startSession(w, sess, http.StatusCreated)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.accounts.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid email or password"})
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.startSession(w, sess, http.StatusOK)
}

func (s *HTTPServer) startSession(w http.ResponseWriter, sess *services.Session, code int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, code, sessionResponse{Email: sess.Email, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	backend := s.health.Backend()
	if err := s.health.Ping(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "backend", backend, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"backend": backend,
			"error":   "backend unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": backend})
}
