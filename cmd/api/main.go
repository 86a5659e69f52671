package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"acadence/internal/attendance"
	"acadence/internal/auth"
	"acadence/internal/config"
	"acadence/internal/events"
	"acadence/internal/httpmiddleware"
	"acadence/internal/ledger"
	"acadence/internal/metrics"
	"acadence/internal/qr"
	"acadence/internal/report"
	"acadence/internal/session"
	"acadence/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		// The ledger's uniqueness guarantee lives in the shared unique
		// index; serving without it is only acceptable in dev.
		if cfg.Env != "dev" {
			return fmt.Errorf("db connect failed: %w", err)
		}
		log.Printf("warning: db not reachable, dev falls back to in-memory storage: %v", err)
		db = nil
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	sessStore, led, err := storageFor(cfg, db, redisClient)
	if err != nil {
		return err
	}

	var q events.Queue
	if cfg.EventBackend == "memory" {
		q = events.NewInMemory(64)
	} else {
		q = events.NewRedisQueue(redisClient.Client, "acadence:attendance")
	}

	issuer := session.NewIssuer(sessStore, cfg.SessionTTL)
	recorder := attendance.NewRecorder(sessStore, led, q)
	engine := report.NewEngine(led)

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting: issuance/redemption and the report reads get separate
	// per-IP budgets; healthz and metrics stay unthrottled.
	limiter := httpmiddleware.NewIPRateLimiter(httpmiddleware.Limits{
		WritePerMin: cfg.RateLimitWritePerMin,
		ReadPerMin:  cfg.RateLimitReadPerMin,
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := r.Group("/api/attendance")

	teacherOnly := auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleTeacher)
	studentOnly := auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleStudent)
	adminOnly := auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleAdmin)

	api.POST("/generate-qr", limiter.ForWrites(), teacherOnly, func(c *gin.Context) {
		var req struct {
			Subject string `json:"subject" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
			return
		}

		p, _ := auth.PrincipalFrom(c)
		sess, payload, err := issuer.Issue(c.Request.Context(), p.ID, req.Subject)
		if errors.Is(err, session.ErrEmptySubject) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
			return
		}
		if err != nil {
			log.Printf("issue session failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not create session, try again"})
			return
		}

		qrCode, err := qr.DataURL(payload)
		if err != nil {
			log.Printf("qr encode failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
			return
		}

		metrics.SessionsIssued.Inc()
		c.JSON(http.StatusOK, gin.H{
			"sessionId": sess.ID,
			"qrCode":    qrCode,
			"subject":   sess.Subject,
			"expiresAt": sess.ExpiresAt,
			"expiresIn": int(time.Until(sess.ExpiresAt).Seconds()),
		})
	})

	api.POST("/mark", limiter.ForWrites(), studentOnly, func(c *gin.Context) {
		var req struct {
			SessionID string `json:"sessionId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.Redemptions.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
			return
		}

		p, _ := auth.PrincipalFrom(c)
		rec, err := recorder.Redeem(c.Request.Context(), req.SessionID, p.ID)
		if err != nil {
			writeRedeemError(c, err)
			return
		}

		metrics.Redemptions.WithLabelValues("marked").Inc()
		c.JSON(http.StatusOK, gin.H{
			"message":    "Attendance marked successfully",
			"attendance": rec,
		})
	})

	api.GET("/my", limiter.ForReads(), studentOnly, func(c *gin.Context) {
		p, _ := auth.PrincipalFrom(c)
		overview, subjectWise, err := engine.StudentReport(c.Request.Context(), p.ID, c.Query("subject"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"overview":    overview,
			"subjectWise": subjectWise,
		})
	})

	api.GET("/class", limiter.ForReads(), teacherOnly, func(c *gin.Context) {
		var day time.Time
		if v := c.Query("date"); v != "" {
			parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			day = parsed
		}

		p, _ := auth.PrincipalFrom(c)
		summary, groups, err := engine.TeacherClassSummary(c.Request.Context(), p.ID, c.Query("subject"), day)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"summary":    summary,
			"attendance": groups,
		})
	})

	api.GET("/stats", limiter.ForReads(), adminOnly, func(c *gin.Context) {
		stats, err := engine.AdminStatistics(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// storageFor selects the session store and ledger for the configured
// backends. A nil db is tolerated only in dev: the ledger's cross-process
// uniqueness guarantee needs the shared unique index, and a volatile
// per-process ledger must never masquerade as it elsewhere.
func storageFor(cfg config.App, db *store.DB, redisClient *store.Redis) (session.Store, ledger.Ledger, error) {
	if db == nil && cfg.Env != "dev" {
		return nil, nil, errors.New("database required outside dev")
	}

	var sessStore session.Store
	switch cfg.SessionBackend {
	case "memory":
		sessStore = session.NewMemoryStore()
	case "redis":
		sessStore = session.NewRedisStore(redisClient.Client)
	default:
		if db == nil {
			sessStore = session.NewMemoryStore()
		} else {
			sessStore = session.NewPostgresStore(db.Client)
		}
	}

	if db == nil {
		return sessStore, ledger.NewMemoryLedger(), nil
	}
	return sessStore, ledger.NewPostgresLedger(db.Client), nil
}

// writeRedeemError maps the redemption taxonomy onto HTTP. AlreadyMarked is
// rendered as a confirmation carrying the original record's details.
func writeRedeemError(c *gin.Context, err error) {
	var marked *attendance.AlreadyMarkedError
	switch {
	case errors.As(err, &marked):
		metrics.Redemptions.WithLabelValues("already_marked").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "You have already marked attendance for this subject today",
			"existingAttendance": gin.H{
				"timestamp": marked.Existing.Timestamp,
				"status":    marked.Existing.Status,
			},
		})
	case errors.Is(err, attendance.ErrInvalidInput):
		metrics.Redemptions.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
	case errors.Is(err, attendance.ErrSessionNotFound):
		metrics.Redemptions.WithLabelValues("not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "QR session not found or inactive"})
	case errors.Is(err, attendance.ErrSessionExpired):
		metrics.Redemptions.WithLabelValues("expired").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "QR code has expired. Please ask your teacher to generate a new one."})
	case errors.Is(err, attendance.ErrStorageUnavailable):
		metrics.Redemptions.WithLabelValues("error").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, retry shortly"})
	default:
		metrics.Redemptions.WithLabelValues("error").Inc()
		log.Printf("redeem failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
