package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/authclient"
	qport "github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/queue/port"
	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/realtime"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/presence"
	httpHandler "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, client qport.Client, router *realtime.Router, mirror *presence.Mirror, verifier authclient.Verifier) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, client, router, mirror, verifier)
}
