package controller

import (
	"praxis_backend/internal/middleware"
	"praxis_backend/internal/service"
	"praxis_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	service *service.ProfileService
}

func NewProfileController(s *service.ProfileService) *ProfileController {
	return &ProfileController{service: s}
}

// Me godoc
// @Summary 当前用户档案
// @Tags 档案
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.Profile}
// @Failure 404 {object} util.Response
// @Router /api/profile [get]
func (c *ProfileController) Me(ctx *gin.Context) {
	profile, err := c.service.Get(ctx.Request.Context(), middleware.CurrentUserID(ctx))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, profile)
}

// SetupMockData godoc
// @Summary 为当前用户创建开发数据
// @Description 仅 debug 模式注册。已有档案或技能不会被覆盖
// @Tags 开发
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.DevSetupResult}
// @Router /api/dev/setup-mock-data [post]
func (c *ProfileController) SetupMockData(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Fail(ctx, util.NewAuthentication("Token de autenticação não fornecido"))
		return
	}

	result, err := c.service.SetupDevData(ctx.Request.Context(), user.UserID(), user.Email)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, result)
}
