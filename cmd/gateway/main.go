package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/authclient"
	cacheAdapter "github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/cache/adapter"
	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/database"
	queueAdapter "github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/queue/adapter"
	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/realtime"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/presence"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/task"

	v1 "github.com/HM18042005/UrbanEase-sub000/cmd/gateway/router/v1"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	cache, err := cacheAdapter.NewRedisAdapter()
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer cache.Close()
	mirror := presence.NewMirror(cache)

	queueClient, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Fatalf("failed to create queue client: %v", err)
	}
	defer queueClient.Close()

	// Run the receipt worker in-process; a dedicated worker binary can take
	// over by pointing ASYNQ_QUEUES at the messaging queue alone.
	queueServer, err := queueAdapter.NewAsynqServer()
	if err != nil {
		log.Fatalf("failed to create queue server: %v", err)
	}
	task.RegisterPersistReadReceiptTask(queueServer, pool)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := queueServer.Run(workerCtx); err != nil {
			log.Printf("queue server stopped: %v", err)
		}
	}()

	rt := realtime.NewRouter()
	defer rt.Close()

	verifier := authclient.NewVerifierFromEnv()

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	v1.RegisterRoutes(r, pool, queueClient, rt, mirror, verifier)

	// Start HTTP server (blocks until shutdown)
	_ = r.Run()
}
