package http

import (
	"github.com/gin-gonic/gin"

	"detail-library/internal/bootstrap"
	"detail-library/internal/pkg/jwtutil"
	"detail-library/internal/transport/http/handler"
	"detail-library/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestID(), gin.Logger(), gin.Recovery(), middleware.CORS())

	var enqueuer handler.BackfillEnqueuer
	if app.BackfillPublisher != nil {
		enqueuer = app.BackfillPublisher
	}

	indexHandler := handler.NewIndexHandler(app.Config.App.Name)
	authHandler := handler.NewAuthHandler(app.AuthService)
	healthHandler := handler.NewHealthHandler(app)
	detailHandler := handler.NewDetailHandler(app.DetailService)
	suggestHandler := handler.NewSuggestHandler(app.SuggestService)
	adminHandler := handler.NewAdminHandler(app.BackfillService, enqueuer)

	router.GET("/", indexHandler.Index)
	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/details", detailHandler.List)
	v1.GET("/details/search", detailHandler.Search)
	v1.GET("/details/:id", detailHandler.Get)
	v1.POST("/suggest-detail", detailHandler.SuggestByRule)
	v1.POST("/suggest-detail/rag", suggestHandler.Suggest)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret), middleware.RequireRole(jwtutil.RoleAdmin))
	adminGroup.POST("/embeddings/backfill", adminHandler.Backfill)
	adminGroup.POST("/embeddings/backfill/async", adminHandler.BackfillAsync)

	return router
}
