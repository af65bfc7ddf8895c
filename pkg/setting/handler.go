package setting

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/internal/handler"
	"github.com/harryhq/mail-manager/pkg/model"
)

func NewHandler(settingService settingService) Handler {
	return Handler{settingService}
}

type Handler struct {
	settingService settingService
}

type settingService interface {
	Set(ctx context.Context, slug string, settingType model.GlobalSettingType, value string) (*model.GlobalSetting, error)
	FindAll(ctx context.Context) ([]*model.GlobalSetting, error)
}

type setSettingRequest struct {
	Type  model.GlobalSettingType `json:"type" binding:"required,oneOf=bool int str"`
	Value string                  `json:"value" binding:"required"`
}

func (h Handler) Set(c *gin.Context) {
	// swagger:route PUT /settings/{slug} setGlobalSetting
	//
	// Set global setting
	//
	// Set a global setting, administrators only. The value has to parse as the given type.
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: GlobalSetting
	//	400: Error
	//	401: Error
	//	403: Error
	//	415: Error
	ctx := c.Request.Context()

	var request setSettingRequest
	err := handler.DataBinder(c, &request)
	if err != nil {
		_ = c.Error(err)
		return
	}

	setting, err := h.settingService.Set(ctx, c.Param("slug"), request.Type, request.Value)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, setting)
}

func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /settings listGlobalSettings
	//
	// List global settings
	//
	// List all global settings, administrators only
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	200: GlobalSettings
	//	401: Error
	//	403: Error
	//	415: Error
	ctx := c.Request.Context()

	settings, err := h.settingService.FindAll(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, settings)
}
