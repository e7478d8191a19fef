package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/http/response"
	"github.com/yungbote/accord-backend/internal/integrations/dispatch"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

type DispatchHandler struct {
	log        *logger.Logger
	dispatcher *dispatch.Dispatcher
}

func NewDispatchHandler(log *logger.Logger, dispatcher *dispatch.Dispatcher) *DispatchHandler {
	return &DispatchHandler{log: log.With("handler", "DispatchHandler"), dispatcher: dispatcher}
}

// POST /api/dispatch
func (h *DispatchHandler) Dispatch(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, decision.Invalid("body", err.Error()))
		return
	}
	res, err := h.dispatcher.Dispatch(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}
