package webui

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"everpedia/internal/domain"
	"everpedia/internal/usecase"
)

var supportedImageExts = map[string]struct{}{
	"webp": {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

type Handler struct {
	pages  usecase.GeneratePageUsecase
	images usecase.FetchImageUsecase
	search usecase.SearchUsecase
	cache  domain.PageCache
	logger *slog.Logger
}

func NewHandler(
	pages usecase.GeneratePageUsecase,
	images usecase.FetchImageUsecase,
	search usecase.SearchUsecase,
	cache domain.PageCache,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		pages:  pages,
		images: images,
		search: search,
		cache:  cache,
		logger: logger,
	}
}

// RegisterRoutes wires every route the server exposes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Landing)
	e.GET("/wiki/:slug", h.Wiki)
	e.GET("/images/:file", h.Image)
	e.GET("/api/search", h.Search)
	e.GET("/api/cache-stats", h.CacheStats)
}

// Landing serves the static landing page.
func (h *Handler) Landing(c echo.Context) error {
	return c.HTML(http.StatusOK, landingPage())
}

// Wiki serves a generated or cached article. Cache hits, redirects, and
// rejections are decided before any bytes go out; only a page that actually
// needs generation gets the streamed shell-then-body treatment.
func (h *Handler) Wiki(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()

	res, err := h.pages.Resolve(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrTopicRejected) {
			return c.HTML(http.StatusNotFound, notFoundPage(domain.SlugToTitle(slug)))
		}
		h.logger.Error("page resolution failed", "slug", slug, "error", err)
		return c.HTML(http.StatusInternalServerError, errorPage())
	}
	if res.RedirectSlug != "" {
		return c.Redirect(http.StatusMovedPermanently, "/wiki/"+res.RedirectSlug)
	}
	if res.CachedHTML != "" {
		return c.HTML(http.StatusOK, fullPage(res.Title, res.CachedHTML))
	}

	// Headers are fixed now; everything after this point is an appended
	// fragment of one chunked document.
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	resp.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(resp, pageShellOpen(res.Title)); err != nil {
		return nil
	}
	resp.Flush()

	body, err := h.pages.Generate(ctx, slug, res.Title)
	if err != nil {
		h.logger.Error("page generation failed", "slug", slug, "error", err)
		io.WriteString(resp, errorFragment)
		io.WriteString(resp, pageShellClose())
		return nil
	}

	io.WriteString(resp, articleFragment(body))
	io.WriteString(resp, pageShellClose())
	return nil
}

// Image serves phase B of the image pipeline.
func (h *Handler) Image(c echo.Context) error {
	file := c.Param("file")
	dot := strings.LastIndex(file, ".")
	if dot <= 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown image"})
	}
	slug, ext := file[:dot], strings.ToLower(file[dot+1:])
	if _, ok := supportedImageExts[ext]; !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unsupported image type"})
	}
	aspect := c.QueryParam("aspect")
	if aspect == "" {
		aspect = "4:3"
	}

	out, err := h.images.Execute(c.Request().Context(), usecase.FetchImageInput{
		Slug:   slug,
		Ext:    ext,
		Aspect: aspect,
	})
	switch {
	case errors.Is(err, domain.ErrPromptMissing):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown image"})
	case errors.Is(err, domain.ErrPromptPending):
		return c.JSON(http.StatusAccepted, map[string]string{"status": "generating"})
	case err != nil:
		h.logger.Error("image request failed", "image", file, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "image generation failed"})
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=604800")
	return c.Blob(http.StatusOK, out.ContentType, out.Data)
}

// Search returns topic suggestions as a JSON array.
func (h *Handler) Search(c echo.Context) error {
	suggestions, err := h.search.Execute(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		h.logger.Error("search failed", "query", c.QueryParam("q"), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, suggestions)
}

// CacheStats exposes cache statistics for operational visibility.
func (h *Handler) CacheStats(c echo.Context) error {
	stats, err := h.cache.Stats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}
