/*
 * @module api/controllers/meta_controller
 * @description 元数据控制器，提供比较器类型、匹配规则类型、调度类型等元数据查询
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow HTTP请求处理流程
 * @rules 元数据为静态定义，直接返回
 * @dependencies service/meta
 * @refs service/meta/linkage_meta.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"linkage-service/service/meta"
)

// MetaController 元数据控制器
type MetaController struct {
}

// NewMetaController 创建元数据控制器实例
func NewMetaController() *MetaController {
	return &MetaController{}
}

// GetComparatorKinds 获取比较器类型元数据
// @Summary 获取所有比较器类型元数据
// @Description 获取所有字段比较器类型及其配置说明
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]meta.ComparatorKindDefinition}
// @Router /meta/comparator-kinds [get]
func (c *MetaController) GetComparatorKinds(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"kinds":              meta.ComparatorKinds,
		"similarity_methods": meta.SimilarityMethods,
		"score_modes":        meta.ScoreModes,
	}
	render.JSON(w, r, SuccessResponse("获取比较器类型元数据成功", data))
}

// GetMatchRuleTypes 获取匹配规则类型元数据
// @Summary 获取所有匹配规则类型元数据
// @Description 获取所有匹配判定规则类型及其说明
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]meta.MatchRuleTypeDefinition}
// @Router /meta/match-rule-types [get]
func (c *MetaController) GetMatchRuleTypes(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取匹配规则类型元数据成功", meta.MatchRuleTypes))
}

// GetTriggerTypes 获取调度类型元数据
// @Summary 获取所有任务调度类型元数据
// @Description 获取链接任务支持的调度类型及其说明
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]meta.TriggerTypeDefinition}
// @Router /meta/trigger-types [get]
func (c *MetaController) GetTriggerTypes(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取调度类型元数据成功", meta.TriggerTypes))
}
