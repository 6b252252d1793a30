package controller

import (
	"praxis_backend/internal/middleware"
	"praxis_backend/internal/service"
	"praxis_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	service *service.SubmissionService
}

func NewSubmissionController(s *service.SubmissionService) *SubmissionController {
	return &SubmissionController{service: s}
}

// Create godoc
// @Summary 提交挑战答案并同步评审
// @Description 创建提交，调用 AI 评审，保存反馈并更新挑战声明的技能
// @Tags 提交
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateSubmissionRequest true "提交内容"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Failure 404 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/submissions [post]
func (c *SubmissionController) Create(ctx *gin.Context) {
	var req service.CreateSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.Fail(ctx, util.NewValidation(err.Error(), ""))
		return
	}

	result, err := c.service.CreateAndScore(ctx.Request.Context(), middleware.CurrentUserID(ctx), req)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// Get godoc
// @Summary 查询提交及 AI 反馈
// @Tags 提交
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "提交 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/submissions/{id} [get]
func (c *SubmissionController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	submission, feedback, err := c.service.GetResult(ctx.Request.Context(), middleware.CurrentUserID(ctx), id)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"submission": submission,
		"feedback":   feedback,
	})
}

// pathID 解析失败时已写入 400 响应
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.Fail(ctx, util.NewValidation("ID inválido", name))
		return 0, false
	}
	return uint(id), true
}
