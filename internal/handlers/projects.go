package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/services"
)

type ProjectHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
}

func NewProjectHandler(log *logger.Logger, projectService services.ProjectService) *ProjectHandler {
	handlerLog := log.With("handler", "ProjectHandler")
	return &ProjectHandler{log: handlerLog, projectService: projectService}
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects(c.Request.Context())
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"projects": projects})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	role, err := h.projectService.RoleFor(c.Request.Context(), project.ID, actorID(c))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"project": project, "role": role})
}
