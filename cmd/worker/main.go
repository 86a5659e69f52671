package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"acadence/internal/config"
	"acadence/internal/events"
	"acadence/internal/session"
	"acadence/internal/store"
)

// Worker reaps expired sessions and drains attendance events for downstream
// consumers (notification fan-out lives elsewhere; this logs and acks).
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var sessStore session.Store
	switch cfg.SessionBackend {
	case "redis":
		sessStore = session.NewRedisStore(redisClient.Client)
	case "memory":
		sessStore = session.NewMemoryStore()
	default:
		sessStore = session.NewPostgresStore(db.Client)
	}

	go session.NewReaper(sessStore, cfg.ReapInterval).Run(ctx)

	var q events.Queue
	if cfg.EventBackend == "memory" {
		q = events.NewInMemory(64)
	} else {
		q = events.NewRedisQueue(redisClient.Client, "acadence:attendance")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for events...")
	for evt := range messages {
		if evt.Type != events.TypeAttendanceMarked {
			continue
		}

		var marked events.AttendanceMarked
		if err := json.Unmarshal(evt.Payload, &marked); err != nil {
			log.Printf("drop malformed %s payload: %v", evt.Type, err)
			continue
		}

		log.Printf("attendance marked: student=%s subject=%s day=%s record=%s",
			marked.StudentID, marked.Subject, marked.Day, marked.RecordID)
	}

	log.Println("worker stopped")
}
