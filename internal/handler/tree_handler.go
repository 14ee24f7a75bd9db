package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go-wanandroid/internal/model"
	"go-wanandroid/internal/service"
)

type treeService interface {
	Tree(ctx context.Context, refresh bool) ([]model.Category, error)
	Articles(ctx context.Context, cid int) (service.ArticleState, error)
	RefreshArticles(ctx context.Context, cid int) (service.ArticleState, error)
	LoadMoreArticles(ctx context.Context, cid int) (service.ArticleState, error)
}

// TreeHandler serves a category tree and its listings. The knowledge tree
// and the project tree both use it.
type TreeHandler struct {
	service treeService
}

func NewTreeHandler(service treeService) *TreeHandler {
	return &TreeHandler{service: service}
}

func (h *TreeHandler) Tree(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	tree, err := h.service.Tree(r.Context(), refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, tree, nil)
}

func (h *TreeHandler) Articles(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.service.Articles)
}

func (h *TreeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.service.RefreshArticles)
}

func (h *TreeHandler) More(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.service.LoadMoreArticles)
}

func (h *TreeHandler) serveFeed(w http.ResponseWriter, r *http.Request, load func(ctx context.Context, cid int) (service.ArticleState, error)) {
	cid, err := pathID(chi.URLParam(r, "cid"), "category id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	state, err := load(r.Context(), cid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeFeed(w, state)
}
