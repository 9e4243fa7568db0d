package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/notify"
)

// NotifyHandler lets staff push messages through the configured channel.
type NotifyHandler struct {
	svc    notify.Messenger
	logger *zap.Logger
}

// NewNotifyHandler constructs the HTTP handler adapter.
func NewNotifyHandler(svc notify.Messenger, logger *zap.Logger) *NotifyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyHandler{svc: svc, logger: logger}
}

// SendMessage sends an outbound message.
func (h *NotifyHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusAccepted)
}
