package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorcraft/floorplan-backend/internal/floorplans/repository"
	"github.com/floorcraft/floorplan-backend/internal/floorplans/service"
)

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := New(service.NewFloorPlanService(repository.NewFloorPlanRepository(db)))
	r := gin.New()
	v1 := r.Group("/api/v1")
	h.Register(v1.Group("/projects"), v1.Group("/floorplans"))
	return r, mock
}

func TestListFloorPlans(t *testing.T) {
	r, mock := setupRouter(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM floor_plans\s+WHERE project_id = \$1`).
		WithArgs(int64(2), 10, 5).
		WillReturnRows(sqlmock.NewRows([]string{"floor_plan_id", "project_id", "plan_name", "file_path", "thumbnail_path", "created_at", "updated_at"}).
			AddRow(6, 2, "Ground", "", "", now, now))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/projects/2/floorplans?limit=10&offset=5", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"plan_name":"Ground"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFloorPlan_MissingName(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/2/floorplans", strings.NewReader(`{"file_path":"a.png"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteFloorPlan_NotFound(t *testing.T) {
	r, mock := setupRouter(t)

	mock.ExpectExec(`DELETE FROM floor_plans`).
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/floorplans/6", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
