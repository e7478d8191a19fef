package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/http/response"
	"github.com/yungbote/accord-backend/internal/platform/apierr"
	"github.com/yungbote/accord-backend/internal/platform/ctxutil"
	"github.com/yungbote/accord-backend/internal/platform/logger"
	"github.com/yungbote/accord-backend/internal/services"
)

const HeaderIdempotencyKey = "Idempotency-Key"

var errNoIdentity = errors.New("missing request identity")

type DecisionHandlerDeps struct {
	Log       *logger.Logger
	Decisions services.DecisionService
}

type DecisionHandler struct {
	log       *logger.Logger
	decisions services.DecisionService
}

func NewDecisionHandler(deps DecisionHandlerDeps) *DecisionHandler {
	return &DecisionHandler{
		log:       deps.Log.With("handler", "DecisionHandler"),
		decisions: deps.Decisions,
	}
}

// actorFrom reads the identity RequireAuth stored on the request context.
func actorFrom(c *gin.Context) (decision.Actor, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.WorkspaceID == "" || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errNoIdentity)
		return decision.Actor{}, false
	}
	return decision.Actor{WorkspaceID: rd.WorkspaceID, UserID: rd.UserID}, true
}

func bindNewDecision(c *gin.Context) (decision.NewDecision, bool) {
	var in decision.NewDecision
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondErr(c, decision.Invalid("body", err.Error()))
		return in, false
	}
	in.IdempotencyKey = strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	return in, true
}

// POST /api/decisions
func (h *DecisionHandler) CreateDecision(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	in, ok := bindNewDecision(c)
	if !ok {
		return
	}
	d, err := h.decisions.Create(c.Request.Context(), actor, in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, d)
}

// GET /api/decisions
func (h *DecisionHandler) ListDecisions(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	filter, err := parseListFilter(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := h.decisions.List(c.Request.Context(), actor.WorkspaceID, filter)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/decisions/:id
func (h *DecisionHandler) GetDecision(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	d, err := h.decisions.Get(c.Request.Context(), actor.WorkspaceID, c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, d)
}

// GET /api/decisions/:id/history
func (h *DecisionHandler) GetHistory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	hist, err := h.decisions.History(c.Request.Context(), actor.WorkspaceID, c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, hist)
}

// POST /api/decisions/:id/supersede
func (h *DecisionHandler) SupersedeDecision(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	in, ok := bindNewDecision(c)
	if !ok {
		return
	}
	d, err := h.decisions.Supersede(c.Request.Context(), actor, c.Param("id"), in)
	if err != nil {
		if errors.Is(err, decision.ErrAlreadySuperseded) {
			h.log.Info("supersede rejected", "workspace_id", actor.WorkspaceID, "decision_id", c.Param("id"))
		}
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, d)
}
