package http

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sagarc03/postsign"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type Service interface {
	Issue(ctx context.Context) (postsign.IssuedSlip, error)
	Get(ctx context.Context, id uuid.UUID) (postsign.Slip, error)
	List(ctx context.Context, query postsign.ListQuery) (postsign.SlipList, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// DisableUploader turns off the embedded uploader page at GET /.
	DisableUploader bool
}

// Handler provides HTTP handlers for issuing presigned posts.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(writeDefaultNotFound)

	r.Get("/healthz", h.handleHealth)
	r.Get("/signed-post", h.handleSignedPost)
	r.Get("/slips", h.handleList)
	r.Get("/slips/{id}", h.handleGetSlip)

	if !h.config.DisableUploader {
		assets, err := fs.Sub(staticFiles, "static")
		if err != nil {
			panic(fmt.Sprintf("embedded uploader assets: %v", err))
		}
		fileServer := http.FileServerFS(assets)
		r.Get("/", fileServer.ServeHTTP)
		r.Get("/signed-post.js", fileServer.ServeHTTP)
	}

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSignedPost(w http.ResponseWriter, r *http.Request) {
	issued, err := h.service.Issue(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Slip-Id", issued.Slip.ID.String())
	_ = WriteJSON(w, http.StatusOK, issued.Post)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	limitStr := r.URL.Query().Get("limit")
	cursor := r.URL.Query().Get("cursor")

	limit := defaultListLimit
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = max(1, min(maxListLimit, parsed))
		}
	}

	query := postsign.ListQuery{
		KeyPrefix: prefix,
		Limit:     limit,
		Cursor:    cursor,
	}

	result, err := h.service.List(r.Context(), query)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetSlip(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, fmt.Errorf("get slip: %w: %w", ErrInvalidSlipID, err))
		return
	}

	slip, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, slip)
}
