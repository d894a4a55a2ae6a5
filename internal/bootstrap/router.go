package bootstrap

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/config"
	httpapi "github.com/floorcraft/floorplan-backend/internal/api/http"
	"github.com/floorcraft/floorplan-backend/internal/api/http/middleware"
	"github.com/floorcraft/floorplan-backend/internal/api/http/routes"
	authmw "github.com/floorcraft/floorplan-backend/internal/auth/middleware"
	"github.com/floorcraft/floorplan-backend/internal/pipeline"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Server      config.ServerConfig

	SQL   *sql.DB
	Pool  *pgxpool.Pool
	Redis *redis.Client
	Relay *pipeline.Relay

	// Verifier checks Firebase ID tokens; nil falls back to the X-User-Id header.
	Verifier authmw.TokenVerifier
	Logger   *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	log := dep.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recovery(log))
	r.Use(corsMiddleware(dep.Server.CORSOrigins))

	var dbPing, redisPing httpapi.Pinger
	if dep.Pool != nil {
		dbPing = dep.Pool
	}
	if dep.Redis != nil {
		rdb := dep.Redis
		redisPing = httpapi.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dbPing, redisPing).RegisterRoutes(r)

	routes.RegisterV1(r, routes.V1Deps{
		DB:        dep.SQL,
		Pool:      dep.Pool,
		Relay:     dep.Relay,
		Verifier:  dep.Verifier,
		RateLimit: dep.Server.RateLimit,
		RateBurst: dep.Server.RateBurst,
		Logger:    log,
	})

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id", "X-User-Id", "X-User-Email"},
		ExposeHeaders: []string{"Content-Length", "X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
