package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go-wanandroid/internal/middleware"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/result"
	"go-wanandroid/internal/service"
	"go-wanandroid/internal/util"
	"go-wanandroid/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// writeFeed writes a pager snapshot with its paging meta.
func writeFeed(w http.ResponseWriter, state service.ArticleState) {
	writeSuccess(w, http.StatusOK, state, &model.Meta{
		Page:       state.CurrentPage,
		TotalPages: state.PageCount,
		Loaded:     len(state.Items),
		HasMore:    state.HasMore,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func classify(err error) (int, *model.APIError) {
	var apiErr *apierror.APIError
	var resErr *result.Error

	switch {
	case errors.As(err, &apiErr):
		return apiErr.HTTPStatus, &model.APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, &model.APIError{Code: "UPSTREAM_TIMEOUT", Message: "Upstream did not answer in time"}
	case errors.As(err, &resErr) && resErr.LoginExpired():
		return http.StatusUnauthorized, &model.APIError{Code: "UNAUTHORIZED", Message: resErr.Message}
	case errors.As(err, &resErr):
		body := &model.APIError{Code: "UPSTREAM_FAILURE", Message: resErr.Message}
		if resErr.Kind == result.KindFailure {
			body.Details = "errorCode " + strconv.Itoa(resErr.Code)
		}
		return http.StatusBadGateway, body
	case errors.Is(err, model.ErrNotLoggedIn):
		return http.StatusUnauthorized, &model.APIError{Code: "UNAUTHORIZED", Message: "Login required"}
	case errors.Is(err, model.ErrTokenInvalid):
		return http.StatusUnauthorized, &model.APIError{Code: "UNAUTHORIZED", Message: "Invalid or expired token"}
	case errors.Is(err, model.ErrPasswordMismatch):
		return http.StatusBadRequest, &model.APIError{Code: "BAD_REQUEST", Message: "Passwords do not match"}
	case errors.Is(err, model.ErrArticleNotFound):
		return http.StatusNotFound, &model.APIError{Code: "NOT_FOUND", Message: "Article is not loaded in any list"}
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, &model.APIError{Code: "BAD_REQUEST", Message: "Invalid input", Details: err.Error()}
	case errors.Is(err, model.ErrEmptyUser):
		return http.StatusBadGateway, &model.APIError{Code: "UPSTREAM_FAILURE", Message: "Upstream returned no user"}
	default:
		return http.StatusInternalServerError, &model.APIError{Code: "INTERNAL_ERROR", Message: "Unexpected server error"}
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest("invalid JSON body", "")
	}
	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

// pathID reads a positive integer route parameter.
func pathID(raw string, name string) (int, error) {
	return util.ParseID(raw, name)
}
