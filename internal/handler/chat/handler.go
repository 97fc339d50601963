package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mindease/backend/internal/analysis/sentiment"
	"github.com/mindease/backend/internal/model/chat"
	"github.com/mindease/backend/internal/service/conversation"
	"github.com/mindease/backend/pkg/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	msgNoHistory        = "No user history found! Lets begin!!"
	msgModelUnavailable = "I'm having trouble responding right now. Please try again in a moment."
	msgStoreUnavailable = "chat history is temporarily unavailable"
	msgInternal         = "internal server error"
)

// TurnService is the conversation surface the transport needs.
type TurnService interface {
	SubmitTurn(ctx context.Context, req conversation.Request) (*conversation.Outcome, error)
	History(ctx context.Context, userID string, limit int) ([]chat.Turn, error)
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	turns          TurnService
	allowedOrigins []string
}

// New 创建聊天处理器。allowedOrigins 用于校验 WebSocket 握手。
func New(turns TurnService, allowedOrigins []string) *Handler {
	return &Handler{
		turns:          turns,
		allowedOrigins: allowedOrigins,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/history/{userID}", h.handleHistory)
	r.Get("/chat/ws", h.handleWebSocket)
}

// ChatResponse is the body of a successful chat turn.
type ChatResponse struct {
	User                string           `json:"user"`
	Bot                 string           `json:"bot"`
	Sentiment           sentiment.Result `json:"sentiment"`
	MusicRecommendation *string          `json:"music_recommendation"`
}

type historyResponse struct {
	History []chat.Turn `json:"history"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req conversation.Request
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.turns.SubmitTurn(r.Context(), req)
	if err != nil {
		status, message := turnErrorStatus(err)
		logTurnError(req.UserID, status, err)
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, newChatResponse(out))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			utils.RespondError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	turns, err := h.turns.History(r.Context(), userID, limit)
	switch {
	case errors.Is(err, conversation.ErrValidation):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("history lookup failed", "user_id", userID, "error", err)
		utils.RespondError(w, http.StatusServiceUnavailable, msgStoreUnavailable)
		return
	}

	if len(turns) == 0 {
		utils.RespondError(w, http.StatusNotFound, msgNoHistory)
		return
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{History: turns})
}

func newChatResponse(out *conversation.Outcome) ChatResponse {
	return ChatResponse{
		User:                out.UserMessage,
		Bot:                 out.BotResponse,
		Sentiment:           out.Sentiment,
		MusicRecommendation: out.MusicRecommendation,
	}
}

// turnErrorStatus maps orchestrator errors to a status and a client-safe message.
func turnErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, conversation.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, conversation.ErrModelService):
		return http.StatusServiceUnavailable, msgModelUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func logTurnError(userID string, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("chat turn failed", "user_id", userID, "status", status, "error", err)
		return
	}
	slog.Info("chat turn rejected", "user_id", userID, "status", status, "error", err)
}
