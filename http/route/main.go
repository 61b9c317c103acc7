package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-service/http/controller"
	middlewares "github.com/tnqbao/gau-media-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}
	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api/v1/media")
	{
		apiRoutes.Use(middles.BodyLimitMiddleware, middles.AuthMiddleware)

		apiRoutes.GET("/:id", ctrl.GetMediaByID)
		apiRoutes.GET("/entity/:entity_type/:entity_id", ctrl.GetMediaByEntity)
		apiRoutes.POST("/presigned-urls", ctrl.GetPresignedURLs)

		writeRoutes := apiRoutes.Group("")
		{
			writeRoutes.Use(middles.WriteGuardMiddleware)

			writeRoutes.POST("/", ctrl.UploadMedia)
			writeRoutes.POST("/upload-url", ctrl.CreateUploadURL)
			writeRoutes.PATCH("/:id", ctrl.UpdateMedia)
			writeRoutes.DELETE("/:id", ctrl.DeleteMedia)
			writeRoutes.PUT("/:id/primary", ctrl.SetPrimaryMedia)
			writeRoutes.POST("/:id/associations", ctrl.AssociateMedia)
			writeRoutes.DELETE("/:id/associations", ctrl.UnlinkMedia)
			writeRoutes.PUT("/entity/:entity_type/:entity_id/order", ctrl.ReorderMedia)
		}
	}
	return r
}
