package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sharebnb/internal/api/middleware"
	"sharebnb/internal/app/service"
	"sharebnb/internal/common"
	"sharebnb/internal/domain/model"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(ms *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: ms}
}

func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireAuth)
	r.Post("/", h.sendMessage)
	r.Get("/inbox", h.inbox)
	r.Get("/outbox", h.outbox)
	r.Get("/unread_count", h.unreadCount)
	r.Get("/{messageID}", h.getMessage)
}

func (h *MessageHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	message, err := h.messageService.Send(r.Context(), identity, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, message)
}

func (h *MessageHandler) inbox(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	page, pageSize := pagination(r)
	messages, total, err := h.messageService.Inbox(r.Context(), identity, page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	respondMessagePage(w, messages, total, page, pageSize)
}

func (h *MessageHandler) outbox(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	page, pageSize := pagination(r)
	messages, total, err := h.messageService.Outbox(r.Context(), identity, page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	respondMessagePage(w, messages, total, page, pageSize)
}

func (h *MessageHandler) unreadCount(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	resp, err := h.messageService.UnreadCount(r.Context(), identity)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) getMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	message, err := h.messageService.Get(r.Context(), identity, chi.URLParam(r, "messageID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, message)
}

func pagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func respondMessagePage(w http.ResponseWriter, messages []model.Message, total, page, pageSize int) {
	common.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Items:    messages,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
