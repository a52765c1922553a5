package rest

import (
	"net/http"
	"strconv"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/go-chi/chi/v5"
)

type countResponse struct {
	Count int64 `json:"count"`
}

type setLikesRequest struct {
	Likes *int64 `json:"likes"`
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, listings)
}

// ListAvailable treats a missing or unparseable limit as the default.
func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	listings, err := h.listings.ListAvailable(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, listings)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListByOwner(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, listings)
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r, "email")
	if err != nil {
		h.Error(w, http.StatusBadRequest, msgInvalidEmail)
		return
	}

	listings, err := h.listings.ListByOwnerNewestFirst(r.Context(), email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, listings)
}

func (h *Handler) CountListings(w http.ResponseWriter, r *http.Request) {
	n, err := h.listings.CountListings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, countResponse{Count: n})
}

// GetListing responds with the listing or a JSON null.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, listing)
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var listing entity.Listing
	if err := h.decode(w, r, &listing); err != nil {
		h.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.listings.CreateListing(r.Context(), &listing)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, res)
}

func (h *Handler) ReplaceListing(w http.ResponseWriter, r *http.Request) {
	var fields entity.ListingUpdate
	if err := h.decode(w, r, &fields); err != nil {
		h.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.listings.ReplaceListing(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, res)
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	res, err := h.listings.DeleteListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, res)
}

func (h *Handler) SetLikes(w http.ResponseWriter, r *http.Request) {
	var req setLikesRequest
	if err := h.decode(w, r, &req); err != nil || req.Likes == nil {
		h.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.listings.SetLikes(r.Context(), chi.URLParam(r, "id"), *req.Likes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, res)
}
