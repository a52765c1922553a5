package rest

import (
	"net/http"

	"go.uber.org/zap"
)

type contactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var fields map[string]interface{}
	if err := h.decode(w, r, &fields); err != nil {
		h.JSON(w, http.StatusBadRequest, contactResponse{Success: false, Message: msgInvalidBody})
		return
	}

	id, err := h.contacts.Submit(r.Context(), fields)
	if err != nil {
		h.logger.Error("error saving contact message", zap.Error(err))
		h.JSON(w, http.StatusInternalServerError, contactResponse{Success: false, Message: "Failed to send message"})
		return
	}
	h.JSON(w, http.StatusOK, contactResponse{Success: true, Message: "Contact message sent successfully", ID: id})
}
