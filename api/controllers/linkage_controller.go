/*
 * @module api/controllers/linkage_controller
 * @description 记录链接控制器，提供流水线执行、候选对预览和特征表调试接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow HTTP请求处理流程
 * @rules 配置错误返回400，内部错误返回500，统一的错误处理和响应格式
 * @dependencies linkage-service/service/linkage, github.com/go-chi/render
 * @refs service/record_linkage/linkage_engine.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"linkage-service/service/linkage"
	"linkage-service/service/models"
	"linkage-service/service/record_linkage"
)

// LinkageController 记录链接控制器
type LinkageController struct {
	linkageService *linkage.LinkageService
}

// NewLinkageController 创建记录链接控制器实例
func NewLinkageController(linkageService *linkage.LinkageService) *LinkageController {
	return &LinkageController{
		linkageService: linkageService,
	}
}

// PreviewCandidatesRequest 候选对预览请求
type PreviewCandidatesRequest struct {
	CollectionA  *models.RecordCollection `json:"collection_a"`
	CollectionB  *models.RecordCollection `json:"collection_b"`
	BlockingKeys []string                 `json:"blocking_keys"`
}

// PreviewCandidatesResponse 候选对预览响应
type PreviewCandidatesResponse struct {
	Pairs []record_linkage.CandidatePair `json:"pairs"`
	Stats *record_linkage.IndexStats     `json:"stats"`
}

// FeatureTableResponse 特征表响应
type FeatureTableResponse struct {
	FeatureTable *record_linkage.FeatureTable `json:"feature_table"`
	Stats        *record_linkage.IndexStats   `json:"stats"`
}

// RunLinkage 执行记录链接流水线
// @Summary 执行记录链接流水线
// @Description 对两个记录集合执行完整的链接流水线：分块索引、特征计算、匹配判定、去重合并
// @Tags 记录链接
// @Accept json
// @Produce json
// @Param request body record_linkage.LinkageRequest true "链接请求"
// @Success 200 {object} APIResponse{data=record_linkage.LinkageResponse} "执行成功"
// @Failure 400 {object} APIResponse "配置错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /linkage/run [post]
func (c *LinkageController) RunLinkage(w http.ResponseWriter, r *http.Request) {
	var req record_linkage.LinkageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.CollectionA == nil || req.CollectionB == nil {
		render.JSON(w, r, BadRequestResponse("两个记录集合都必须提供", nil))
		return
	}

	response, err := c.linkageService.RunPipeline(r.Context(), &req)
	if err != nil {
		if record_linkage.IsConfigError(err) {
			render.JSON(w, r, BadRequestResponse("链接配置错误", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("执行链接流水线失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("执行链接流水线成功", response))
}

// PreviewCandidates 预览候选对
// @Summary 预览分块索引生成的候选对
// @Description 仅执行分块索引阶段，用于调试分块键配置
// @Tags 记录链接
// @Accept json
// @Produce json
// @Param request body PreviewCandidatesRequest true "预览请求"
// @Success 200 {object} APIResponse{data=PreviewCandidatesResponse} "预览成功"
// @Failure 400 {object} APIResponse "配置错误"
// @Router /linkage/preview-candidates [post]
func (c *LinkageController) PreviewCandidates(w http.ResponseWriter, r *http.Request) {
	var req PreviewCandidatesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.CollectionA == nil || req.CollectionB == nil {
		render.JSON(w, r, BadRequestResponse("两个记录集合都必须提供", nil))
		return
	}

	pairs, stats, err := c.linkageService.Engine().PreviewCandidates(
		req.CollectionA, req.CollectionB, req.BlockingKeys)
	if err != nil {
		if record_linkage.IsConfigError(err) {
			render.JSON(w, r, BadRequestResponse("分块配置错误", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("生成候选对失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("生成候选对成功", &PreviewCandidatesResponse{
		Pairs: pairs,
		Stats: stats,
	}))
}

// ComputeFeatureTable 计算特征表
// @Summary 计算候选对特征表
// @Description 执行分块索引和特征计算两个阶段，返回原始特征表用于调试比较器配置
// @Tags 记录链接
// @Accept json
// @Produce json
// @Param request body record_linkage.LinkageRequest true "链接请求"
// @Success 200 {object} APIResponse{data=FeatureTableResponse} "计算成功"
// @Failure 400 {object} APIResponse "配置错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /linkage/feature-table [post]
func (c *LinkageController) ComputeFeatureTable(w http.ResponseWriter, r *http.Request) {
	var req record_linkage.LinkageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.CollectionA == nil || req.CollectionB == nil {
		render.JSON(w, r, BadRequestResponse("两个记录集合都必须提供", nil))
		return
	}

	table, stats, err := c.linkageService.Engine().ComputeFeatureTable(r.Context(), &req)
	if err != nil {
		if record_linkage.IsConfigError(err) {
			render.JSON(w, r, BadRequestResponse("链接配置错误", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("计算特征表失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("计算特征表成功", &FeatureTableResponse{
		FeatureTable: table,
		Stats:        stats,
	}))
}
