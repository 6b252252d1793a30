package controller

import (
	"praxis_backend/internal/middleware"
	"praxis_backend/internal/service"
	"praxis_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttributesController struct {
	service *service.AttributesService
}

func NewAttributesController(s *service.AttributesService) *AttributesController {
	return &AttributesController{service: s}
}

// Get godoc
// @Summary 技能与职业目标
// @Tags 技能
// @Produce json
// @Security ApiKeyAuth
// @Param profile_id path string true "档案 ID"
// @Success 200 {object} util.Response{data=service.AttributesView}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/attributes/{profile_id} [get]
func (c *AttributesController) Get(ctx *gin.Context) {
	view, err := c.service.Get(ctx.Request.Context(), middleware.CurrentUserID(ctx), ctx.Param("profile_id"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// Patch godoc
// @Summary 部分更新技能与职业目标
// @Description 只更新请求中出现的字段，技能值必须在 0 到 100 之间
// @Tags 技能
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param profile_id path string true "档案 ID"
// @Param body body service.AttributesPatch true "要更新的字段"
// @Success 200 {object} util.Response{data=service.AttributesView}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/attributes/{profile_id} [patch]
func (c *AttributesController) Patch(ctx *gin.Context) {
	var patch service.AttributesPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.Fail(ctx, util.NewValidation(err.Error(), ""))
		return
	}

	view, err := c.service.Patch(ctx.Request.Context(), middleware.CurrentUserID(ctx), ctx.Param("profile_id"), patch)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, view)
}
