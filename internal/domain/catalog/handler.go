package catalog

import (
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vendora/vendora-search/internal/pkg/logger"
	"github.com/vendora/vendora-search/internal/pkg/response"
)

const catalogCacheKey = "filter_catalog"

// Handler handles catalog HTTP requests. The catalog changes rarely, so reads
// are served from a short in-process cache.
type Handler struct {
	repo  *Repository
	cache *gocache.Cache
}

// NewHandler creates a new catalog handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{
		repo:  repo,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Filters handles GET /catalog/filters
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.Get(catalogCacheKey); ok {
		response.OK(w, cached.(*FilterCatalog))
		return
	}

	catalog, err := h.repo.FilterCatalog(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to load filter catalog")
		response.InternalError(w)
		return
	}

	h.cache.SetDefault(catalogCacheKey, catalog)
	response.OK(w, catalog)
}
