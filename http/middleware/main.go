package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-service/http/controller"
)

type Middlewares struct {
	CORSMiddleware       gin.HandlerFunc
	AuthMiddleware       gin.HandlerFunc
	WriteGuardMiddleware gin.HandlerFunc
	BodyLimitMiddleware  gin.HandlerFunc
}

func NewMiddlewares(ctrl *controller.Controller) (*Middlewares, error) {
	cors := CORSMiddleware(ctrl.Config.EnvConfig)
	auth := AuthMiddleware(ctrl.Config.EnvConfig)
	writeGuard := WriteGuardMiddleware()
	bodyLimit := BodyLimitMiddleware(uploadBodyLimit(ctrl.Config.EnvConfig.Media.MaxBytes))

	return &Middlewares{
		CORSMiddleware:       cors,
		AuthMiddleware:       auth,
		WriteGuardMiddleware: writeGuard,
		BodyLimitMiddleware:  bodyLimit,
	}, nil
}
