// navcheck reports and optionally repairs drift between a project's
// navigation tree and its document store: orphan routes, unlisted
// documents, duplicate paths, and nodes missing their slug. Rows
// written before tree mutations became transactional can carry any of
// these.
//
// Usage:
//
//	navcheck [-project slug] [-fix] [-prune] [-append]
//
// Without -project every project is checked. -fix applies -prune
// (remove orphan routes) and -append (list unlisted documents); both
// default to true when -fix is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/pagevault/pagevault-backend/internal/db"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/services"
	"github.com/pagevault/pagevault-backend/internal/types"
)

func main() {
	projectSlug := flag.String("project", "", "project slug to check (default: all projects)")
	fix := flag.Bool("fix", false, "repair reported drift")
	prune := flag.Bool("prune", true, "with -fix, remove routes without documents")
	appendMissing := flag.Bool("append", true, "with -fix, add routes for unlisted documents")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	projectRepo := repos.NewProjectRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	navigationRepo := repos.NewNavigationRepo(thePG, log)
	reconcileService := services.NewReconcileService(thePG, documentRepo, navigationRepo, log)

	ctx := context.Background()
	projects, err := selectProjects(ctx, projectRepo, *projectSlug)
	if err != nil {
		log.Error("Failed to load projects", "error", err)
		os.Exit(1)
	}
	if len(projects) == 0 {
		fmt.Println("no matching projects")
		return
	}

	dirty := 0
	for _, project := range projects {
		report, err := check(ctx, reconcileService, project, *fix, *prune, *appendMissing)
		if err != nil {
			log.Error("Check failed", "project", project.Slug, "error", err)
			os.Exit(1)
		}
		if !report.Clean() {
			dirty++
		}
	}
	if dirty > 0 && !*fix {
		os.Exit(2)
	}
}

func selectProjects(ctx context.Context, projectRepo repos.ProjectRepo, slug string) ([]*types.Project, error) {
	if slug == "" {
		return projectRepo.ListAll(ctx, nil)
	}
	project, err := projectRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %q not found", slug)
	}
	return []*types.Project{project}, nil
}

func check(ctx context.Context, svc services.ReconcileService, project *types.Project, fix, prune, appendMissing bool) (*services.ReconcileReport, error) {
	report, err := svc.CheckNavigation(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	printReport(project.Slug, report)
	if !fix || report.Clean() {
		return report, nil
	}
	report, err = svc.FixNavigation(ctx, project.ID, prune, appendMissing, uuid.Nil)
	if err != nil {
		return nil, err
	}
	fmt.Printf("  fixed; after repair:\n")
	printReport(project.Slug, report)
	return report, nil
}

func printReport(slug string, report *services.ReconcileReport) {
	if report.Clean() {
		fmt.Printf("%s: clean\n", slug)
		return
	}
	fmt.Printf("%s:\n", slug)
	for _, p := range report.OrphanPaths {
		fmt.Printf("  orphan route    %s\n", p)
	}
	for _, s := range report.UnlistedSlugs {
		fmt.Printf("  unlisted doc    %s\n", s)
	}
	for _, p := range report.DuplicatePaths {
		fmt.Printf("  duplicate path  %s\n", p)
	}
	for _, p := range report.MissingSlugs {
		fmt.Printf("  missing slug    %s\n", p)
	}
}
