package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault-backend/internal/navtree"
	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/requestdata"
	"github.com/pagevault/pagevault-backend/internal/services"
	"github.com/pagevault/pagevault-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

type stubProjectService struct {
	project *types.Project
	role    string
}

func (s *stubProjectService) ResolveBySlug(ctx context.Context, slug string) (*types.Project, error) {
	if s.project == nil || s.project.Slug != slug {
		return nil, apierr.NotFound(fmt.Errorf("project %q not found", slug))
	}
	return s.project, nil
}

func (s *stubProjectService) ListProjects(ctx context.Context) ([]*types.Project, error) {
	return []*types.Project{s.project}, nil
}

func (s *stubProjectService) RoleFor(ctx context.Context, projectID, userID uuid.UUID) (string, error) {
	return s.role, nil
}

func (s *stubProjectService) RequireEditor(ctx context.Context, projectID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apierr.Unauthorized(fmt.Errorf("authentication required"))
	}
	if !types.CanEdit(s.role) {
		return apierr.Forbidden(fmt.Errorf("editor role required"))
	}
	return nil
}

type stubContentService struct {
	revision int
}

func (s *stubContentService) GetDocument(ctx context.Context, projectID uuid.UUID, slug string) (*types.Document, error) {
	return nil, nil
}

func (s *stubContentService) SaveDocument(ctx context.Context, projectID uuid.UUID, slug string, fields repos.DocumentFields, actorID uuid.UUID) (*types.Document, error) {
	return nil, nil
}

func (s *stubContentService) DeleteDocument(ctx context.Context, projectID uuid.UUID, slug string, actorID uuid.UUID) error {
	return nil
}

func (s *stubContentService) ListDocuments(ctx context.Context, projectID uuid.UUID) ([]types.DocMeta, error) {
	return nil, nil
}

func (s *stubContentService) GetNavigation(ctx context.Context, projectID uuid.UUID) (*services.NavigationView, error) {
	return &services.NavigationView{Structure: navtree.Default(), Revision: s.revision}, nil
}

func (s *stubContentService) UpdateNavigation(ctx context.Context, projectID uuid.UUID, structure navtree.Structure, baseRevision *int, actorID uuid.UUID) (*services.NavigationView, error) {
	if baseRevision != nil && *baseRevision != s.revision {
		return nil, apierr.Conflict(fmt.Errorf("navigation changed since revision %d", *baseRevision))
	}
	s.revision++
	return &services.NavigationView{Structure: structure, Revision: s.revision}, nil
}

// fakeAuth injects the caller's identity the way the auth middleware
// would, keyed off a test header.
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			rd := &requestdata.RequestData{UserID: uuid.New()}
			c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		}
		c.Next()
	}
}

func newReorderRouter(role string, revision int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	projects := &stubProjectService{
		project: &types.Project{ID: uuid.New(), Slug: "handbook"},
		role:    role,
	}
	content := &stubContentService{revision: revision}
	h := NewNavigationHandler(testLogger(), projects, content)

	router := gin.New()
	router.Use(fakeAuth())
	router.POST("/api/projects/:project/navigation/reorder", h.Reorder)
	router.GET("/api/projects/:project/navigation", h.GetNavigation)
	return router
}

func doReorder(t *testing.T, router *gin.Engine, project, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+project+"/navigation/reorder", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-Test-User", "1")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const validTree = `{"structure":{"title":"Documentation","version":"1.0","routes":[{"title":"Guides","path":"/docs/guides","children":[{"title":"Install","path":"/docs/guides/install"}]}]}}`

func TestReorderStatusOrder(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		project string
		body    string
		authed  bool
		want    int
	}{
		{"unknown project", types.RoleEditor, "nope", validTree, true, http.StatusNotFound},
		{"unauthenticated", types.RoleEditor, "handbook", validTree, false, http.StatusUnauthorized},
		{"viewer role", types.RoleViewer, "handbook", validTree, true, http.StatusForbidden},
		{"malformed body", types.RoleEditor, "handbook", `{"structure":`, true, http.StatusBadRequest},
		{"missing routes", types.RoleEditor, "handbook", `{"structure":{"title":"Docs"}}`, true, http.StatusBadRequest},
		{"valid", types.RoleEditor, "handbook", validTree, true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newReorderRouter(tt.role, 1)
			rec := doReorder(t, router, tt.project, tt.body, tt.authed)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestReorderStaleRevision(t *testing.T) {
	router := newReorderRouter(types.RoleEditor, 5)
	body := strings.TrimSuffix(validTree, "}") + `,"revision":4}`
	rec := doReorder(t, router, "handbook", body, true)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestReorderMatchingRevision(t *testing.T) {
	router := newReorderRouter(types.RoleEditor, 5)
	body := strings.TrimSuffix(validTree, "}") + `,"revision":5}`
	rec := doReorder(t, router, "handbook", body, true)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"revision":6`) {
		t.Errorf("body missing bumped revision: %s", rec.Body.String())
	}
}
