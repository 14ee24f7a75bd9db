package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-wanandroid/internal/model"
	"go-wanandroid/internal/service"
)

type CollectHandler struct {
	service *service.CollectService
}

func NewCollectHandler(service *service.CollectService) *CollectHandler {
	return &CollectHandler{service: service}
}

func (h *CollectHandler) List(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}

func (h *CollectHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}

func (h *CollectHandler) More(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.LoadMore(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}

// Toggle flips the collect flag of an article shown in any loaded list.
func (h *CollectHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"), "article id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	collected, err := h.service.Toggle(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.CollectToggleResponse{ArticleID: id, Collected: collected}, nil)
}

// Remove deletes an entry of the collect list. origin_id defaults to -1.
func (h *CollectHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"), "collect id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	originID := parseIntOrDefault(r.URL.Query().Get("origin_id"), -1)

	if err := h.service.UncollectMine(r.Context(), id, originID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
