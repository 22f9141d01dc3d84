package http

import (
	"github.com/gin-gonic/gin"

	"pdfchat/internal/bootstrap"
	"pdfchat/internal/transport/http/handler"
	"pdfchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORS(app.Config.App.AllowOrigins))

	healthHandler := handler.NewHealthHandler(app)
	fileHandler := handler.NewFileHandler(app.IngestService)
	uploadHandler := handler.NewUploadHandler(app.IngestService, app.Config.MaxUploadBytes())
	chatHandler := handler.NewChatHandler(app.ChatService)

	router.StaticFile("/", "web/index.html")
	router.GET("/healthz", healthHandler.Check)

	router.GET("/files", fileHandler.List)
	router.DELETE("/files/:document_id", fileHandler.Delete)
	router.POST("/upload/pdf", uploadHandler.UploadPDF)
	router.POST("/chat/stream", chatHandler.Stream)

	return router
}
