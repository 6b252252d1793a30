package controller

import (
	"praxis_backend/internal/middleware"
	"praxis_backend/internal/service"
	"praxis_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ChallengeController struct {
	service *service.ChallengeService
}

func NewChallengeController(s *service.ChallengeService) *ChallengeController {
	return &ChallengeController{service: s}
}

// Create godoc
// @Summary 创建挑战
// @Description 挑战内容由调用方提供，服务端只做校验和保存
// @Tags 挑战
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateChallengeRequest true "挑战"
// @Success 201 {object} util.Response{data=model.Challenge}
// @Failure 400 {object} util.Response
// @Router /api/challenges [post]
func (c *ChallengeController) Create(ctx *gin.Context) {
	var req service.CreateChallengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.Fail(ctx, util.NewValidation(err.Error(), ""))
		return
	}

	challenge, err := c.service.Create(ctx.Request.Context(), middleware.CurrentUserID(ctx), req)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Created(ctx, challenge)
}

// ListActive godoc
// @Summary 当前用户最近的挑战
// @Tags 挑战
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "数量 (1-10)" default(3)
// @Success 200 {object} util.Response{data=[]model.Challenge}
// @Router /api/challenges/active [get]
func (c *ChallengeController) ListActive(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			util.Fail(ctx, util.NewValidation("limit deve ser um número inteiro", "limit"))
			return
		}
		limit = n
		// 显式传 0 视为非法
		if limit == 0 {
			limit = -1
		}
	}

	challenges, err := c.service.ListActive(ctx.Request.Context(), middleware.CurrentUserID(ctx), limit)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, challenges)
}

// Get godoc
// @Summary 挑战详情
// @Tags 挑战
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "挑战 ID"
// @Success 200 {object} util.Response{data=model.Challenge}
// @Failure 404 {object} util.Response
// @Router /api/challenges/{id} [get]
func (c *ChallengeController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	challenge, err := c.service.Get(ctx.Request.Context(), middleware.CurrentUserID(ctx), id)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, challenge)
}
