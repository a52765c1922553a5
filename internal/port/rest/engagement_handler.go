package rest

import (
	"net/http"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/go-chi/chi/v5"
)

const msgAlreadyLiked = "Already liked"

type likeTrackedRequest struct {
	UserEmail string `json:"userEmail"`
}

type alreadyLikedResponse struct {
	Liked   bool   `json:"liked"`
	Message string `json:"message"`
}

type likedResponse struct {
	Liked  bool                 `json:"liked"`
	Likes  int64                `json:"likes"`
	Result *entity.UpdateResult `json:"result"`
}

type hasLikedResponse struct {
	Liked bool `json:"liked"`
}

type likesResponse struct {
	Likes int64 `json:"likes"`
}

func (h *Handler) LikeTracked(w http.ResponseWriter, r *http.Request) {
	var req likeTrackedRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	out, err := h.engagement.LikeTracked(r.Context(), chi.URLParam(r, "id"), req.UserEmail)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if out.AlreadyLiked {
		h.JSON(w, http.StatusOK, alreadyLikedResponse{Liked: true, Message: msgAlreadyLiked})
		return
	}
	h.JSON(w, http.StatusOK, likedResponse{Liked: out.Liked, Likes: out.Likes, Result: out.Result})
}

func (h *Handler) HasLiked(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r, "userEmail")
	if err != nil {
		h.Error(w, http.StatusBadRequest, msgInvalidEmail)
		return
	}

	liked, err := h.engagement.HasLiked(r.Context(), chi.URLParam(r, "id"), email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, hasLikedResponse{Liked: liked})
}

func (h *Handler) ReconcileLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := h.engagement.ReconcileLikes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, likesResponse{Likes: likes})
}
