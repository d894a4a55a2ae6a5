package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/internal/api/http/middleware"
	"github.com/floorcraft/floorplan-backend/internal/auth"
	authhttp "github.com/floorcraft/floorplan-backend/internal/auth/http"
	authmw "github.com/floorcraft/floorplan-backend/internal/auth/middleware"
	customizationshttp "github.com/floorcraft/floorplan-backend/internal/customizations/http"
	customizationsrepo "github.com/floorcraft/floorplan-backend/internal/customizations/repository"
	customizationssvc "github.com/floorcraft/floorplan-backend/internal/customizations/service"
	floorplanshttp "github.com/floorcraft/floorplan-backend/internal/floorplans/http"
	floorplansrepo "github.com/floorcraft/floorplan-backend/internal/floorplans/repository"
	floorplanssvc "github.com/floorcraft/floorplan-backend/internal/floorplans/service"
	audithttp "github.com/floorcraft/floorplan-backend/internal/legacyaudit/http"
	auditrepo "github.com/floorcraft/floorplan-backend/internal/legacyaudit/repository"
	auditsvc "github.com/floorcraft/floorplan-backend/internal/legacyaudit/service"
	"github.com/floorcraft/floorplan-backend/internal/pipeline"
	pipelinehttp "github.com/floorcraft/floorplan-backend/internal/pipeline/http"
	projectshttp "github.com/floorcraft/floorplan-backend/internal/projects/http"
	projectsrepo "github.com/floorcraft/floorplan-backend/internal/projects/repository"
	projectssvc "github.com/floorcraft/floorplan-backend/internal/projects/service"
	usershttp "github.com/floorcraft/floorplan-backend/internal/users/http"
	usersrepo "github.com/floorcraft/floorplan-backend/internal/users/repository"
	userssvc "github.com/floorcraft/floorplan-backend/internal/users/service"
)

type V1Deps struct {
	// DB serves the CRUD repositories.
	DB *sql.DB
	// Pool backs the event status lookup. Pipeline routes are registered
	// only when both Pool and Relay are set.
	Pool  *pgxpool.Pool
	Relay *pipeline.Relay

	Verifier  authmw.TokenVerifier
	RateLimit float64
	RateBurst int
	Logger    *zap.Logger
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	if dep.Verifier != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.Verifier))
	} else {
		api.Use(auth.DevUser())
	}

	userSvc := userssvc.NewUserService(usersrepo.NewUserRepository(dep.DB))
	projectSvc := projectssvc.NewProjectService(projectsrepo.NewProjectRepository(dep.DB))
	floorPlanSvc := floorplanssvc.NewFloorPlanService(floorplansrepo.NewFloorPlanRepository(dep.DB))
	customizationSvc := customizationssvc.NewCustomizationService(customizationsrepo.NewCustomizationRepository(dep.DB))
	recorder := auditsvc.NewRecorder(auditrepo.NewAuditRepository(dep.DB), dep.Logger)

	usersGroup := api.Group("/users")
	projectsGroup := api.Group("/projects")
	floorPlansGroup := api.Group("/floorplans")
	customizationsGroup := api.Group("/customizations")

	usershttp.New(userSvc).Register(usersGroup)
	projectshttp.New(projectSvc).Register(usersGroup, projectsGroup)
	floorplanshttp.New(floorPlanSvc).Register(projectsGroup, floorPlansGroup)
	customizationshttp.New(customizationSvc).Register(floorPlansGroup, customizationsGroup)
	audithttp.New(recorder).Register(api.Group("/legacy-audit"))
	authhttp.New(userSvc).Register(api.Group("/auth"))

	if dep.Relay != nil && dep.Pool != nil {
		limiter := middleware.NewClientLimiter(dep.RateLimit, dep.RateBurst)
		pipelinehttp.New(dep.Relay, pipeline.NewEventStore(dep.Pool), dep.Logger).
			Register(api, middleware.RateLimit(limiter))
	}
}
