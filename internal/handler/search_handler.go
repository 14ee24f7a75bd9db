package handler

import (
	"net/http"

	"go-wanandroid/internal/service"
)

type SearchHandler struct {
	service *service.SearchService
}

func NewSearchHandler(service *service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Hotkeys(w http.ResponseWriter, r *http.Request) {
	hotkeys, err := h.service.Hotkeys(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, hotkeys, nil)
}

// Search runs a new search for k. Without k it returns the current results.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("k")
	if key == "" && h.service.Keyword() != "" {
		writeFeed(w, h.service.State())
		return
	}

	state, err := h.service.Search(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}

func (h *SearchHandler) More(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.LoadMore(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}
