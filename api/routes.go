/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"linkage-service/api/controllers"
	"linkage-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 元数据管理
	r.Route("/meta", func(r chi.Router) {
		metaController := controllers.NewMetaController()
		r.Get("/comparator-kinds", metaController.GetComparatorKinds)
		r.Get("/match-rule-types", metaController.GetMatchRuleTypes)
		r.Get("/trigger-types", metaController.GetTriggerTypes)
	})

	// 记录链接
	r.Route("/linkage", func(r chi.Router) {
		linkageController := controllers.NewLinkageController(service.GlobalLinkageService)

		// 流水线直接执行
		r.Post("/run", linkageController.RunLinkage)

		// 候选对预览（仅分块阶段）
		r.Post("/preview-candidates", linkageController.PreviewCandidates)

		// 特征表调试（分块+比较阶段）
		r.Post("/feature-table", linkageController.ComputeFeatureTable)

		// 链接任务管理
		taskController := controllers.NewLinkageTaskController(
			service.GlobalLinkageService, service.GlobalSchedulerService)
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskController.CreateTask)
			r.Get("/", taskController.ListTasks)
			r.Get("/{id}", taskController.GetTask)
			r.Put("/{id}", taskController.UpdateTask)
			r.Delete("/{id}", taskController.DeleteTask)
			r.Post("/{id}/execute", taskController.ExecuteTask)
			r.Get("/{id}/executions", taskController.GetExecutions)
		})
	})
}
