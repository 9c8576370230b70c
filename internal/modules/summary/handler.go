package summary

import (
	"context"
	"errors"
	"fmt"

	"github.com/councildigest/core/internal/models"
	"github.com/councildigest/core/internal/pkg/pagination"
	"github.com/councildigest/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SummaryLister pages stored summary rows for the list endpoint.
type SummaryLister interface {
	List(ctx context.Context, kind, style string, q pagination.Query) ([]models.SummaryModel, response.Pagination, error)
}

// Handler exposes the summary read and generation surface over HTTP.
type Handler struct {
	svc    *Service
	loader *Loader
	lister SummaryLister
	log    *zap.Logger
}

func NewHandler(svc *Service, loader *Loader, lister SummaryLister, log *zap.Logger) *Handler {
	return &Handler{svc: svc, loader: loader, lister: lister, log: log}
}

func (h *Handler) Register(r *gin.RouterGroup) {
	group := r.Group("/summaries")
	group.GET("", h.list)
	group.GET("/:kind/:id", h.get)
	group.POST("/:kind/:id", h.generate)
	group.POST("/:kind/:id/regenerate", h.regenerate)
	group.DELETE("/by-hash/:hash", h.invalidate)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	rows, p, err := h.lister.List(c.Request.Context(), c.Query("kind"), c.Query("style"), q)
	if err != nil {
		h.respondError(c, &PersistenceError{Op: "list", Err: err})
		return
	}
	response.Paged(c, rows, p)
}

func (h *Handler) get(c *gin.Context) {
	parent, ok := parseParent(c)
	if !ok {
		return
	}
	style := Style(c.DefaultQuery("style", string(StyleConcise)))

	artifact, err := h.svc.Lookup(c.Request.Context(), parent, style)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if artifact == nil {
		response.NotFoundMsg(c, "no summary stored for this entity")
		return
	}
	response.OK(c, artifact)
}

func (h *Handler) generate(c *gin.Context) {
	h.runGeneration(c, h.svc.Summarize)
}

func (h *Handler) regenerate(c *gin.Context) {
	h.runGeneration(c, h.svc.Regenerate)
}

func (h *Handler) runGeneration(c *gin.Context, run func(context.Context, GenerationRequest, Style) (*SummaryArtifact, error)) {
	parent, ok := parseParent(c)
	if !ok {
		return
	}
	style := Style(c.DefaultQuery("style", string(StyleConcise)))

	req, err := h.loader.LoadRequest(c.Request.Context(), parent, style)
	if err != nil {
		h.respondError(c, err)
		return
	}

	artifact, err := run(c.Request.Context(), req, style)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, artifact)
}

func (h *Handler) invalidate(c *gin.Context) {
	hash := c.Param("hash")
	if hash == "" {
		response.BadRequest(c, "content hash is required")
		return
	}
	style := Style(c.Query("style"))
	model := c.Query("model")

	deleted, err := h.svc.Invalidate(c.Request.Context(), hash, style, model)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		response.BadRequest(c, cfgErr.Error())
		return
	}
	if errors.Is(err, ErrEntityNotFound) {
		response.NotFound(c)
		return
	}
	if IsRetryable(err) {
		h.log.Warn("summary request failed, retryable", zap.Error(err))
		response.ServiceUnavailable(c, err.Error())
		return
	}
	h.log.Error("summary request failed", zap.Error(err))
	response.InternalError(c, err)
}

func parseParent(c *gin.Context) (ParentRef, bool) {
	kind := EntityKind(c.Param("kind"))
	switch kind {
	case KindDocument, KindLegislation, KindMeeting:
	default:
		response.BadRequest(c, fmt.Sprintf("unknown entity kind %q", c.Param("kind")))
		return ParentRef{}, false
	}
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "entity id is required")
		return ParentRef{}, false
	}
	return ParentRef{Kind: kind, ID: id}, true
}
