package handlers

import (
	"net/http"

	"macrolog/internal/catalog"
)

type CatalogHandler struct {
	provider catalog.Provider
}

func NewCatalogHandler(provider catalog.Provider) *CatalogHandler {
	return &CatalogHandler{provider: provider}
}

// Search proxies a name search against the external food catalog.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	items, err := h.provider.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, items)
}
