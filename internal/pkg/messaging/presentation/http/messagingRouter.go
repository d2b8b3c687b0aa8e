package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/authclient"
	qport "github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/queue/port"
	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/realtime"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/presence"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/persistence/repository/adapter"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/presentation/controller"
)

// RegisterRoutes registers messaging endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, client qport.Client, router *realtime.Router, mirror *presence.Mirror, verifier authclient.Verifier) {
	repo := adapter.NewPgMessageRepository(pool)
	historyCtl := controller.NewGetHistoryController(repo)
	markReadCtl := controller.NewMarkReadController(client)
	presenceCtl := controller.NewPresenceController(mirror)
	socketCtl := controller.NewGatewaySocketController(repo, router, verifier, mirror, client)

	// GET /api/v1/messages/history -> persisted log for a 1:1 thread
	g.GET("/messages/history", historyCtl.Handle())

	// POST /api/v1/messages/read -> persist a read receipt out of band
	g.POST("/messages/read", markReadCtl.Handle())

	// GET /api/v1/presence/:userId -> mirrored online flag
	g.GET("/presence/:userId", presenceCtl.HandleStatus())

	// GET /api/v1/unread -> mirrored unread counter
	g.GET("/unread", presenceCtl.HandleUnread())

	// GET /api/v1/ws -> websocket endpoint for realtime messaging
	g.GET("/ws", socketCtl.Handle())
}
