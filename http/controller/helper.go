package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-service/entity"
	"github.com/tnqbao/gau-media-service/service"
	"github.com/tnqbao/gau-media-service/utils"
)

// currentUser returns the authenticated caller id or writes a 401.
func (ctrl *Controller) currentUser(c *gin.Context) (string, bool) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), nil, "[Media] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return "", false
	}
	return userID, true
}

// handleBindError answers a request whose JSON body could not be bound.
func (ctrl *Controller) handleBindError(c *gin.Context, err error) {
	ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Media] Failed to bind JSON: %v", err)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		utils.JSON413(c, "Request body is too large")
		return
	}
	utils.JSON400(c, "Invalid request payload")
}

// handleServiceError maps a service failure onto an HTTP response. Only the
// kind and the safe message reach the client.
func (ctrl *Controller) handleServiceError(c *gin.Context, err error, action string) {
	ctx := c.Request.Context()
	kind := service.KindOf(err)

	switch kind {
	case service.KindInvalidFormat:
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Media] %s: %v", action, err)
		utils.JSONError(c, http.StatusBadRequest, string(kind), service.Message(err))
	case service.KindNotFound:
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Media] %s: %v", action, err)
		utils.JSONError(c, http.StatusNotFound, string(kind), service.Message(err))
	case service.KindStorageFailure:
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Media] %s: %v", action, err)
		utils.JSONError(c, http.StatusBadGateway, string(kind), "Object storage is unavailable")
	default:
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Media] %s: %v", action, err)
		utils.JSONError(c, http.StatusInternalServerError, string(service.KindInternalFailure), "Internal server error")
	}
}

func entityTypeParam(value string) entity.EntityType {
	return entity.EntityType(strings.ToUpper(strings.TrimSpace(value)))
}
