package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"paper-vault/config"
	"paper-vault/models"
	"paper-vault/repository"
	"paper-vault/services"
)

var papersCreatedCounter prometheus.Counter

func init() {
	papersCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_created_total",
			Help: "Total number of papers created in the database.",
		},
	)
	prometheus.MustRegister(papersCreatedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Mongo Connection (Prozess-Lebensdauer, Freigabe beim Beenden)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logging.Warn("Failed to close MongoDB connection", zap.Error(err))
		}
	}()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logging.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	logging.Info("Successfully connected to MongoDB.", zap.String("database", cfg.DBName))

	// Setup Service
	papersCollection := client.Database(cfg.DBName).Collection("papers")
	repo := repository.NewMongoPaperRepository(papersCollection)
	paperService := services.NewPaperService(repo, logging)

	// Setup Router
	router := newRouter(cfg, paperService, logging)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// newRouter baut die gin-Engine mit Middleware und allen Routen auf.
func newRouter(cfg *config.Config, paperService *services.PaperService, log *zap.Logger) *gin.Engine {
	router := gin.Default()
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "paper-vault"})
	})

	setupPaperRoutes(router, cfg, paperService, log)
	return router
}

// setupPaperRoutes konfiguriert die Paper-CRUD-Endpoints. Die Paper-ID ist
// eine URL mit Slashes, daher laufen Get/Update/Delete über eine
// Catch-All-Route; ein leerer Rest bedient die List-Operation.
func setupPaperRoutes(router *gin.Engine, cfg *config.Config, svc *services.PaperService, log *zap.Logger) {
	rg := router.Group("/paper")

	rg.POST("/", func(c *gin.Context) {
		var paper models.Paper
		if err := c.ShouldBindJSON(&paper); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		paper.Normalize()
		if err := paper.Validate(); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		created, err := svc.Create(c.Request.Context(), &paper)
		if err != nil {
			if errors.Is(err, services.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "paper with this id already exists"})
				return
			}
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "created paper not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		papersCreatedCounter.Inc()
		log.Info("Paper created", zap.String("id", created.ID))
		c.JSON(http.StatusCreated, created)
	})

	rg.GET("/*id", func(c *gin.Context) {
		id := paperID(c)
		if id == "" {
			listPapers(c, cfg, svc)
			return
		}

		paper, err := svc.Find(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, paper)
	})

	rg.PUT("/*id", func(c *gin.Context) {
		id := paperID(c)
		var update models.PaperUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if err := update.Validate(); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		updated, err := svc.Update(c.Request.Context(), id, &update)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			if errors.Is(err, services.ErrNotModified) {
				c.Status(http.StatusNotModified)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		log.Info("Paper updated", zap.String("id", id))
		c.JSON(http.StatusOK, updated)
	})

	// Delete ist idempotent: eine fehlende ID liefert deleted_count 0, kein 404.
	rg.DELETE("/*id", func(c *gin.Context) {
		id := paperID(c)
		deleted, err := svc.Delete(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		log.Info("Paper deleted", zap.String("id", id), zap.Int64("deleted_count", deleted))
		c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
	})
}

// paperID extrahiert die Paper-ID aus der Catch-All-Route und dekodiert sie,
// da IDs URLs mit '/' und ':' sind und prozent-kodiert ankommen können.
func paperID(c *gin.Context) string {
	raw := strings.TrimPrefix(c.Param("id"), "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// listPapers bedient GET /paper/ mit optionalem ?limit= Override.
func listPapers(c *gin.Context, cfg *config.Config, svc *services.PaperService) {
	limit := cfg.ListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	papers, err := svc.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, papers)
}
