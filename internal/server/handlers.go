package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/page"
	"catalog/storefront/internal/repository"
	"catalog/storefront/internal/session"
	"catalog/storefront/internal/sidebar"
	"catalog/storefront/internal/viewport"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type pageData struct {
	Lang        string      `json:"-"`
	Title       string      `json:"-"`
	Path        string      `json:"path"`
	Kind        string      `json:"kind"`
	Status      page.Status `json:"status"`
	Compact     bool        `json:"compact"`
	Error       string      `json:"error,omitempty"`
	NotFound    bool        `json:"not_found,omitempty"`

	// set while the page's own category or subcategory is still resolving
	SidebarLoading bool                  `json:"sidebar_loading"`
	Sidebar        sidebar.View          `json:"sidebar"`
	Category       *page.CategoryView    `json:"category,omitempty"`
	SubCategory    *page.SubCategoryView `json:"sub_category,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Navigator().OnRoute("/")

	ctx, cancel := context.WithTimeout(r.Context(), s.renderTimeout)
	defer cancel()

	data := pageData{
		Lang:    s.language,
		Title:   sidebar.Title,
		Path:    "/",
		Kind:    "home",
		Compact: sess.Breakpoint().Compact(),
	}
	data.Sidebar, _ = sess.Navigator().Wait(ctx)
	s.respond(w, r, http.StatusOK, data)
}

// handlePage mounts the route on the visitor's session and renders whatever
// the page reached within the render timeout.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	route := domain.Route{
		CategoryID:    chi.URLParam(r, "categoryId"),
		SubCategoryID: chi.URLParam(r, "subCategoryId"),
	}
	sess := s.session(w, r)
	current := sess.Navigate(route)

	ctx, cancel := context.WithTimeout(r.Context(), s.renderTimeout)
	defer cancel()

	data := pageData{
		Lang:  s.language,
		Title: sidebar.Title,
		Path:  route.Path(),
		Kind:  current.Kind(),
	}

	var err error
	switch p := current.(type) {
	case *page.CategoryPage:
		var view page.CategoryView
		view, err = p.Wait(ctx)
		data.Category = &view
		data.Status, data.Error, data.NotFound = view.Status, view.Error, view.NotFound
		data.SidebarLoading = view.SidebarLoading
		data.Title = pageTitle(view.Breadcrumbs)
	case *page.SubCategoryPage:
		var view page.SubCategoryView
		view, err = p.Wait(ctx)
		data.SubCategory = &view
		data.Status, data.Error, data.NotFound = view.Status, view.Error, view.NotFound
		data.SidebarLoading = view.SidebarLoading
		data.Title = pageTitle(view.Breadcrumbs)
	}
	if err != nil {
		log.Debugf("Rendering %s before it settled: %v", route.Path(), err)
	}

	data.Sidebar, _ = sess.Navigator().Wait(ctx)
	data.Compact = sess.Breakpoint().Compact()

	s.record(r.Context(), sess, data)
	s.respond(w, r, statusCode(data.Status, data.NotFound), data)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(chi.URLParam(r, "categoryId"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid category id")
		return
	}

	sess := s.session(w, r)
	sess.Navigator().Toggle(categoryID)

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, returnPath(r.FormValue("return")), http.StatusSeeOther)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	width, err := strconv.Atoi(r.URL.Query().Get("width"))
	if err != nil || width <= 0 {
		s.writeError(w, r, http.StatusBadRequest, "invalid width")
		return
	}

	sess := s.session(w, r)
	sess.Breakpoint().Resize(width)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	blob, err := s.assets.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Errorf("Failed to read asset: %v", err)
		http.Error(w, "failed to read asset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Cache-Control", "private, no-cache")
	_, _ = w.Write(blob.Data)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.Atoi(chi.URLParam(r, "fileId"))
	if err != nil {
		http.Error(w, "invalid file id", http.StatusBadRequest)
		return
	}

	blob, err := s.client.GetProductFile(r.Context(), fileID)
	if err != nil {
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		log.Warnf("⚠️ Thumbnail %d unavailable: %v", fileID, err)
		http.Error(w, domain.Message(err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(blob.Data)
}

// session returns the visitor's session, starting one when the cookie is
// missing or stale. A reported viewport width is applied as a resize.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	width, hasWidth := viewport.WidthFromRequest(r)

	if cookie, err := r.Cookie(s.cookieName); err == nil {
		if sess, ok := s.sessions.Get(cookie.Value); ok {
			if hasWidth {
				sess.Breakpoint().Resize(width)
			}
			return sess
		}
	}

	if !hasWidth {
		width = viewport.DefaultWidth
	}
	sess := s.sessions.Create(width)
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Server) record(ctx context.Context, sess *session.Session, data pageData) {
	outcome := repository.Outcome{
		SessionID: sess.ID,
		Path:      data.Path,
		Kind:      data.Kind,
		Status:    data.Status.String(),
		Error:     data.Error,
		At:        time.Now().UTC(),
	}
	if data.Category != nil && data.Category.ListError != "" {
		outcome.Error = data.Category.ListError
	}
	if data.SubCategory != nil && data.SubCategory.ListError != "" {
		outcome.Error = data.SubCategory.ListError
	}

	if err := s.outcomes.Record(ctx, outcome); err != nil {
		log.Warnf("⚠️ %v", err)
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, data pageData) {
	if wantsJSON(r) {
		writeJSON(w, code, data)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Errorf("Failed to render %s: %v", data.Path, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if wantsJSON(r) {
		writeJSON(w, code, errorResponse{Error: msg})
		return
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// statusCode maps a settled page to its HTTP status. A page still loading
// after the render timeout is served as 200 with its skeletons.
func statusCode(status page.Status, notFound bool) int {
	if status != page.StatusFatalError {
		return http.StatusOK
	}
	if notFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func pageTitle(crumbs []page.Crumb) string {
	if len(crumbs) == 0 {
		return sidebar.Title
	}
	last := crumbs[len(crumbs)-1]
	if last.Loading || last.Label == "" {
		return sidebar.Title
	}
	return last.Label
}

// returnPath only accepts local catalog paths as redirect targets.
func returnPath(raw string) string {
	if raw == "/" {
		return raw
	}
	if _, ok := domain.ParseRoute(raw); ok && strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	return "/"
}
