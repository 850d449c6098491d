package routes

import (
	"github.com/damoang/angple-cms/internal/handler"
	"github.com/damoang/angple-cms/internal/middleware"
	"github.com/damoang/angple-cms/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// EditorLevel is the minimum member level allowed to write content
const EditorLevel = 2

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	revisionHandler *handler.RevisionHandler,
	contentHandler *handler.ContentHandler,
	watchHandler *handler.WatchHandler,
	searchHandler *handler.SearchHandler,
	jwtManager *jwt.Manager,
) {
	// Reads accept anonymous callers; writes need an editor
	api := router.Group("/api/v1", middleware.JWTAuth(jwtManager, true))
	editor := middleware.RequireLevel(EditorLevel)

	// Revisions (리비전)
	revisions := api.Group("/revisions/:type/:id")
	{
		revisions.GET("", revisionHandler.History)
		revisions.GET("/compare", revisionHandler.Compare)
		revisions.POST("/revert/:revisionId", editor, revisionHandler.Revert)
		revisions.POST("/publish", editor, revisionHandler.Publish)
		revisions.GET("/watch", editor, watchHandler.Watch)
	}

	api.GET("/actors/:actorId/revisions", editor, revisionHandler.ActorActivity)

	// Search (검색) is only mounted when an index is configured
	if searchHandler != nil {
		api.GET("/search/revisions", editor, searchHandler.Revisions)
	}

	// Content (콘텐츠)
	content := api.Group("/content/:type")
	{
		content.POST("", editor, contentHandler.Create)
		content.GET("/:id", contentHandler.Get)
		content.PUT("/:id", editor, contentHandler.Update)
		content.DELETE("/:id", editor, contentHandler.Delete)
	}
}
