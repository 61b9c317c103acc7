package controller

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-service/http/controller/dto"
	"github.com/tnqbao/gau-media-service/service"
	"github.com/tnqbao/gau-media-service/utils"
)

func (ctrl *Controller) UploadMedia(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	var req dto.UploadMediaRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.handleBindError(c, err)
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Media] Uploading '%s' (key: '%s') for %s '%s' by user_id: %s",
		req.FileName, req.FileKey, req.EntityType, req.EntityID, userID)

	record, err := ctrl.Service.Upload(ctx, service.UploadInput{
		FileName:     req.FileName,
		FileKey:      req.FileKey,
		EntityID:     req.EntityID,
		EntityType:   entityTypeParam(req.EntityType),
		IsPrimary:    req.IsPrimary,
		DisplayOrder: req.DisplayOrder,
		Title:        req.Title,
		Metadata:     req.Metadata,
		FileContent:  req.FileContent,
		FileSize:     req.FileSize,
		MimeType:     req.MimeType,
		UserID:       userID,
	})
	if err != nil {
		ctrl.handleServiceError(c, err, "Upload failed")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Media] Successfully uploaded media: %s", record.ID)
	utils.JSON200(c, gin.H{
		"media": record,
	})
}

func (ctrl *Controller) CreateUploadURL(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	var req dto.UploadURLRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.handleBindError(c, err)
		return
	}

	target, err := ctrl.Service.PrepareUpload(ctx, req.FileName, req.MimeType)
	if err != nil {
		ctrl.handleServiceError(c, err, "Create upload URL failed")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Media] Issued upload URL for key %s to user_id: %s", target.FileKey, userID)
	utils.JSON200(c, target)
}

func (ctrl *Controller) GetMediaByID(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	record, err := ctrl.Service.GetByID(ctx, id)
	if err != nil {
		ctrl.handleServiceError(c, err, "Get media failed")
		return
	}

	utils.JSON200(c, gin.H{
		"media": record,
	})
}

func (ctrl *Controller) GetMediaByEntity(c *gin.Context) {
	ctx := c.Request.Context()
	entityType := entityTypeParam(c.Param("entity_type"))
	entityID := c.Param("entity_id")

	records, err := ctrl.Service.ListByEntity(ctx, entityID, entityType)
	if err != nil {
		ctrl.handleServiceError(c, err, "List media failed")
		return
	}

	utils.JSON200(c, gin.H{
		"media": records,
		"total": len(records),
	})
}

func (ctrl *Controller) SetPrimaryMedia(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	var req dto.EntityRefRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.handleBindError(c, err)
		return
	}

	mediaID := c.Param("id")
	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Media] Setting media %s as primary for %s '%s' by user_id: %s",
		mediaID, req.EntityType, req.EntityID, userID)

	record, err := ctrl.Service.SetPrimary(ctx, mediaID, req.EntityID, entityTypeParam(req.EntityType), userID)
	if err != nil {
		ctrl.handleServiceError(c, err, "Set primary failed")
		return
	}

	utils.JSON200(c, gin.H{
		"media": record,
	})
}

func (ctrl *Controller) DeleteMedia(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	mediaID := c.Param("id")
	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Media] Deleting media %s by user_id: %s", mediaID, userID)

	result, err := ctrl.Service.Delete(ctx, mediaID, userID)
	if err != nil {
		ctrl.handleServiceError(c, err, "Delete media failed")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Media] Successfully deleted media: %s", result.ID)
	utils.JSON200(c, result)
}

func (ctrl *Controller) GetPresignedURLs(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PresignedURLsRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.handleBindError(c, err)
		return
	}

	results, err := ctrl.Service.ResolveBatch(ctx, req.IDs, time.Duration(req.ExpiresIn)*time.Second)
	if err != nil {
		ctrl.handleServiceError(c, err, "Resolve presigned URLs failed")
		return
	}

	utils.JSON200(c, gin.H{
		"urls": results,
	})
}

func (ctrl *Controller) AssociateMedia(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	var req dto.AssociateMediaRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.handleBindError(c, err)
		return
	}

	link, err := ctrl.Service.Associate(ctx, service.AssociateInput{
		MediaID:      c.Param("id"),
		EntityID:     req.EntityID,
		EntityType:   entityTypeParam(req.EntityType),
		IsPrimary:    req.IsPrimary,
		DisplayOrder: req.DisplayOrder,
		UserID:       userID,
	})
	if err != nil {
		ctrl.handleServiceError(c, err, "Associate media failed")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Media] Linked media %s to %s '%s'", link.MediaID, link.EntityType, link.EntityID)
	utils.JSON200(c, gin.H{
		"association": link,
	})
}

func (ctrl *Controller) UnlinkMedia(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	var req dto.EntityRefRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.handleBindError(c, err)
		return
	}

	mediaID := c.Param("id")
	if err := ctrl.Service.Unlink(ctx, mediaID, req.EntityID, entityTypeParam(req.EntityType), userID); err != nil {
		ctrl.handleServiceError(c, err, "Unlink media failed")
		return
	}

	utils.JSON200(c, gin.H{
		"message": "Media unlinked successfully",
		"id":      mediaID,
	})
}

func (ctrl *Controller) ReorderMedia(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	var req dto.ReorderMediaRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.handleBindError(c, err)
		return
	}

	records, err := ctrl.Service.Reorder(ctx, c.Param("entity_id"), entityTypeParam(c.Param("entity_type")), req.MediaIDs, userID)
	if err != nil {
		ctrl.handleServiceError(c, err, "Reorder media failed")
		return
	}

	utils.JSON200(c, gin.H{
		"media": records,
		"total": len(records),
	})
}

func (ctrl *Controller) UpdateMedia(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateMediaRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.handleBindError(c, err)
		return
	}

	record, err := ctrl.Service.UpdateMedia(ctx, c.Param("id"), service.UpdateMediaInput{
		Title:    req.Title,
		Metadata: req.Metadata,
		UserID:   userID,
	})
	if err != nil {
		ctrl.handleServiceError(c, err, "Update media failed")
		return
	}

	utils.JSON200(c, gin.H{
		"media": record,
	})
}
