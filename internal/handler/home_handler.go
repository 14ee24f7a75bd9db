package handler

import (
	"net/http"

	"go-wanandroid/internal/service"
)

type HomeHandler struct {
	service *service.HomeService
}

func NewHomeHandler(service *service.HomeService) *HomeHandler {
	return &HomeHandler{service: service}
}

func (h *HomeHandler) Banners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.Banners(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, banners, nil)
}

func (h *HomeHandler) TopArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.TopArticles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, articles, nil)
}

func (h *HomeHandler) Articles(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Articles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}

func (h *HomeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.RefreshArticles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}

func (h *HomeHandler) More(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.LoadMoreArticles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}
