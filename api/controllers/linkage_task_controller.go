/*
 * @module api/controllers/linkage_task_controller
 * @description 链接任务控制器，提供任务的增删改查、手动执行和执行历史查询
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow HTTP请求处理流程
 * @rules 任务不存在返回404，配置错误返回400，统一的错误处理和响应格式
 * @dependencies linkage-service/service/linkage, github.com/go-chi/chi/v5
 * @refs service/linkage/linkage_service.go, service/scheduler/scheduler_service.go
 */

package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"linkage-service/service/linkage"
	"linkage-service/service/record_linkage"
	"linkage-service/service/scheduler"
)

// LinkageTaskController 链接任务控制器
type LinkageTaskController struct {
	linkageService   *linkage.LinkageService
	schedulerService *scheduler.SchedulerService
}

// NewLinkageTaskController 创建链接任务控制器实例
func NewLinkageTaskController(linkageService *linkage.LinkageService,
	schedulerService *scheduler.SchedulerService) *LinkageTaskController {

	return &LinkageTaskController{
		linkageService:   linkageService,
		schedulerService: schedulerService,
	}
}

// CreateTask 创建链接任务
// @Summary 创建链接任务
// @Description 创建新的记录链接任务，支持手动、单次、间隔和Cron调度
// @Tags 链接任务
// @Accept json
// @Produce json
// @Param task body linkage.CreateLinkageTaskRequest true "链接任务信息"
// @Success 200 {object} APIResponse{data=models.LinkageTask} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /linkage/tasks [post]
func (c *LinkageTaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req linkage.CreateLinkageTaskRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	task, err := c.linkageService.CreateTask(&req)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("创建链接任务失败", err))
		return
	}

	if task.IsSchedulable() {
		if err := c.schedulerService.ScheduleTask(task); err != nil {
			render.JSON(w, r, InternalErrorResponse("注册任务调度失败", err))
			return
		}
	}

	render.JSON(w, r, SuccessResponse("创建链接任务成功", task))
}

// ListTasks 获取链接任务列表
// @Summary 获取链接任务列表
// @Description 获取所有链接任务，按创建时间排序
// @Tags 链接任务
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.LinkageTask} "获取成功"
// @Router /linkage/tasks [get]
func (c *LinkageTaskController) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := c.linkageService.ListTasks()
	render.JSON(w, r, SuccessResponse("获取链接任务列表成功", tasks))
}

// GetTask 获取链接任务详情
// @Summary 获取链接任务详情
// @Description 根据ID获取链接任务
// @Tags 链接任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse{data=models.LinkageTask} "获取成功"
// @Failure 404 {object} APIResponse "任务不存在"
// @Router /linkage/tasks/{id} [get]
func (c *LinkageTaskController) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	task, err := c.linkageService.GetTask(taskID)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("获取链接任务失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取链接任务成功", task))
}

// UpdateTask 更新链接任务
// @Summary 更新链接任务
// @Description 更新链接任务配置和调度设置
// @Tags 链接任务
// @Accept json
// @Produce json
// @Param id path string true "任务ID"
// @Param task body linkage.UpdateLinkageTaskRequest true "更新内容"
// @Success 200 {object} APIResponse{data=models.LinkageTask} "更新成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 404 {object} APIResponse "任务不存在"
// @Router /linkage/tasks/{id} [put]
func (c *LinkageTaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	var req linkage.UpdateLinkageTaskRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	task, err := c.linkageService.UpdateTask(taskID, &req)
	if err != nil {
		if errors.Is(err, linkage.ErrTaskNotFound) {
			render.JSON(w, r, NotFoundResponse("更新链接任务失败", err))
			return
		}
		render.JSON(w, r, BadRequestResponse("更新链接任务失败", err))
		return
	}

	// 调度配置可能变化，重新注册
	c.schedulerService.UnscheduleTask(taskID)
	if task.IsSchedulable() {
		if err := c.schedulerService.ScheduleTask(task); err != nil {
			render.JSON(w, r, InternalErrorResponse("注册任务调度失败", err))
			return
		}
	}

	render.JSON(w, r, SuccessResponse("更新链接任务成功", task))
}

// DeleteTask 删除链接任务
// @Summary 删除链接任务
// @Description 删除链接任务及其执行历史
// @Tags 链接任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 404 {object} APIResponse "任务不存在"
// @Router /linkage/tasks/{id} [delete]
func (c *LinkageTaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	if err := c.linkageService.DeleteTask(taskID); err != nil {
		render.JSON(w, r, NotFoundResponse("删除链接任务失败", err))
		return
	}
	c.schedulerService.UnscheduleTask(taskID)

	render.JSON(w, r, SuccessResponse("删除链接任务成功", nil))
}

// ExecuteTask 手动执行链接任务
// @Summary 手动执行链接任务
// @Description 立即执行一次链接任务并返回执行记录
// @Tags 链接任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse{data=models.LinkageExecution} "执行完成"
// @Failure 400 {object} APIResponse "配置错误"
// @Failure 404 {object} APIResponse "任务不存在"
// @Failure 500 {object} APIResponse "执行失败"
// @Router /linkage/tasks/{id}/execute [post]
func (c *LinkageTaskController) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	execution, err := c.linkageService.ExecuteTask(r.Context(), taskID, "manual")
	if err != nil {
		if errors.Is(err, linkage.ErrTaskNotFound) {
			render.JSON(w, r, NotFoundResponse("执行链接任务失败", err))
			return
		}
		if record_linkage.IsConfigError(err) {
			render.JSON(w, r, BadRequestResponse("链接配置错误", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("执行链接任务失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("执行链接任务成功", execution))
}

// GetExecutions 获取任务执行历史
// @Summary 获取任务执行历史
// @Description 获取链接任务的执行记录，新的在前
// @Tags 链接任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse{data=[]models.LinkageExecution} "获取成功"
// @Failure 404 {object} APIResponse "任务不存在"
// @Router /linkage/tasks/{id}/executions [get]
func (c *LinkageTaskController) GetExecutions(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	executions, err := c.linkageService.GetExecutions(taskID)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("获取执行历史失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取执行历史成功", executions))
}
