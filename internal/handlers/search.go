package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/services"
)

type SearchHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
	searchService  services.SearchService
}

func NewSearchHandler(log *logger.Logger, projectService services.ProjectService, searchService services.SearchService) *SearchHandler {
	handlerLog := log.With("handler", "SearchHandler")
	return &SearchHandler{log: handlerLog, projectService: projectService, searchService: searchService}
}

func (h *SearchHandler) Search(c *gin.Context) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	results, err := h.searchService.Search(c.Request.Context(), project.ID, c.Query("q"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}
