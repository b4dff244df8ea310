package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagevault/pagevault-backend/internal/navtree"
	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/services"
)

type NavigationHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
	contentService services.ContentService
}

func NewNavigationHandler(log *logger.Logger, projectService services.ProjectService, contentService services.ContentService) *NavigationHandler {
	handlerLog := log.With("handler", "NavigationHandler")
	return &NavigationHandler{log: handlerLog, projectService: projectService, contentService: contentService}
}

func (h *NavigationHandler) GetNavigation(c *gin.Context) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	view, err := h.contentService.GetNavigation(c.Request.Context(), project.ID)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

// Reorder replaces the whole tree with the client's submitted shape.
// Checks run in a fixed order: unknown project is 404, missing editor
// role is 403, a structurally invalid tree is 400, and a stale revision
// is 409.
func (h *NavigationHandler) Reorder(c *gin.Context) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	if err := h.projectService.RequireEditor(c.Request.Context(), project.ID, actorID(c)); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	var req struct {
		Structure navtree.Structure `json:"structure"`
		Revision  *int              `json:"revision"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	if err := navtree.Validate(req.Structure); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	view, err := h.contentService.UpdateNavigation(c.Request.Context(), project.ID, req.Structure, req.Revision, actorID(c))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}
