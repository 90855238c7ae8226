/*
 * @module service/linkage/linkage_service
 * @description 记录链接服务，提供链接任务管理、流水线执行和执行历史查询的业务逻辑
 * @architecture 服务层 - 封装业务逻辑，提供统一的服务接口
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 任务管理 -> 数据源解析 -> 流水线执行 -> 状态跟踪 -> 结果处理
 * @rules 任务和执行历史保存在内存中（按设计不做持久化），执行历史每任务保留上限
 * @dependencies service/record_linkage, service/loader, service/monitoring
 * @refs service/record_linkage/linkage_engine.go, service/models/linkage_task.go
 */

package linkage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkage-service/service/loader"
	"linkage-service/service/models"
	"linkage-service/service/monitoring"
	"linkage-service/service/record_linkage"
)

// 每个任务保留的执行记录上限，超出后淘汰最旧的
const maxExecutionsPerTask = 50

// ErrTaskNotFound 任务不存在
var ErrTaskNotFound = fmt.Errorf("链接任务不存在")

// CreateLinkageTaskRequest 创建链接任务请求
type CreateLinkageTaskRequest struct {
	TaskName        string               `json:"task_name"`
	Description     string               `json:"description,omitempty"`
	SourceA         models.SourceSpec    `json:"source_a"`
	SourceB         models.SourceSpec    `json:"source_b"`
	Config          models.LinkageConfig `json:"config"`
	TriggerType     string               `json:"trigger_type,omitempty"`
	CronExpression  string               `json:"cron_expression,omitempty"`
	IntervalSeconds int                  `json:"interval_seconds,omitempty"`
	ScheduledTime   *time.Time           `json:"scheduled_time,omitempty"`
	CreatedBy       string               `json:"created_by,omitempty"`
}

// UpdateLinkageTaskRequest 更新链接任务请求
type UpdateLinkageTaskRequest struct {
	TaskName        string                `json:"task_name,omitempty"`
	Description     string                `json:"description,omitempty"`
	SourceA         *models.SourceSpec    `json:"source_a,omitempty"`
	SourceB         *models.SourceSpec    `json:"source_b,omitempty"`
	Config          *models.LinkageConfig `json:"config,omitempty"`
	TriggerType     string                `json:"trigger_type,omitempty"`
	CronExpression  string                `json:"cron_expression,omitempty"`
	IntervalSeconds int                   `json:"interval_seconds,omitempty"`
	Status          string                `json:"status,omitempty"`
	UpdatedBy       string                `json:"updated_by,omitempty"`
}

// LinkageService 记录链接服务
type LinkageService struct {
	mu         sync.RWMutex
	tasks      map[string]*models.LinkageTask
	executions map[string][]*models.LinkageExecution

	engine  *record_linkage.LinkageEngine
	loader  *loader.CSVLoader
	metrics *monitoring.MetricsCollector
}

// NewLinkageService 创建记录链接服务，metrics 可为 nil（测试场景）
func NewLinkageService(engine *record_linkage.LinkageEngine,
	metrics *monitoring.MetricsCollector) *LinkageService {

	return &LinkageService{
		tasks:      make(map[string]*models.LinkageTask),
		executions: make(map[string][]*models.LinkageExecution),
		engine:     engine,
		loader:     loader.NewCSVLoader(),
		metrics:    metrics,
	}
}

// Engine 返回底层链接引擎（供直接运行流水线的接口使用）
func (s *LinkageService) Engine() *record_linkage.LinkageEngine {
	return s.engine
}

// RunPipeline 直接执行一次链接流水线（不关联任务）
func (s *LinkageService) RunPipeline(ctx context.Context,
	req *record_linkage.LinkageRequest) (*record_linkage.LinkageResponse, error) {

	start := time.Now()
	response, err := s.engine.ExecuteLinkage(ctx, req)
	s.observeRun(response, start, err)
	return response, err
}

// CreateTask 创建链接任务
func (s *LinkageService) CreateTask(req *CreateLinkageTaskRequest) (*models.LinkageTask, error) {
	if req.TaskName == "" {
		return nil, record_linkage.NewConfigError("task_name", "任务名称不能为空")
	}

	triggerType := req.TriggerType
	if triggerType == "" {
		triggerType = "manual"
	}
	switch triggerType {
	case "manual", "once", "interval", "cron":
	default:
		return nil, record_linkage.NewConfigError("trigger_type",
			"调度类型未知: "+triggerType)
	}
	if triggerType == "cron" && req.CronExpression == "" {
		return nil, record_linkage.NewConfigError("cron_expression",
			"cron 调度必须配置表达式")
	}
	if triggerType == "interval" && req.IntervalSeconds <= 0 {
		return nil, record_linkage.NewConfigError("interval_seconds",
			"interval 调度必须配置正的间隔秒数")
	}

	now := time.Now()
	task := &models.LinkageTask{
		ID:              uuid.New().String(),
		TaskName:        req.TaskName,
		Description:     req.Description,
		SourceA:         req.SourceA,
		SourceB:         req.SourceB,
		Config:          req.Config,
		TriggerType:     triggerType,
		CronExpression:  req.CronExpression,
		IntervalSeconds: req.IntervalSeconds,
		ScheduledTime:   req.ScheduledTime,
		Status:          "active",
		CreatedAt:       now,
		CreatedBy:       req.CreatedBy,
		UpdatedAt:       now,
		UpdatedBy:       req.CreatedBy,
	}

	if triggerType == "once" && req.ScheduledTime != nil {
		task.NextRunTime = req.ScheduledTime
	} else {
		task.UpdateNextRunTime()
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	created := snapshotTask(task)
	s.mu.Unlock()

	slog.Info("创建链接任务", "task_id", created.ID, "task_name", created.TaskName,
		"trigger_type", created.TriggerType)
	return created, nil
}

// snapshotTask 返回任务的浅拷贝快照
// 服务内部更新指针字段时整体替换指针而不原地修改指向的值，
// 因此浅拷贝即可供调用方在锁外安全读取和序列化
func snapshotTask(task *models.LinkageTask) *models.LinkageTask {
	copied := *task
	return &copied
}

// GetTask 获取链接任务快照
// 返回的是拷贝，对其修改不影响服务内的任务状态
func (s *LinkageService) GetTask(taskID string) (*models.LinkageTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return snapshotTask(task), nil
}

// ListTasks 列出所有链接任务的快照，按创建时间排序
func (s *LinkageService) ListTasks() []*models.LinkageTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*models.LinkageTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, snapshotTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}

// ListSchedulableTasks 列出可被调度器执行的任务
func (s *LinkageService) ListSchedulableTasks() []*models.LinkageTask {
	var schedulable []*models.LinkageTask
	for _, task := range s.ListTasks() {
		if task.IsSchedulable() {
			schedulable = append(schedulable, task)
		}
	}
	return schedulable
}

// UpdateTask 更新链接任务
func (s *LinkageService) UpdateTask(taskID string, req *UpdateLinkageTaskRequest) (*models.LinkageTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}

	if req.TaskName != "" {
		task.TaskName = req.TaskName
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.SourceA != nil {
		task.SourceA = *req.SourceA
	}
	if req.SourceB != nil {
		task.SourceB = *req.SourceB
	}
	if req.Config != nil {
		task.Config = *req.Config
	}
	if req.TriggerType != "" {
		task.TriggerType = req.TriggerType
	}
	if req.CronExpression != "" {
		task.CronExpression = req.CronExpression
	}
	if req.IntervalSeconds > 0 {
		task.IntervalSeconds = req.IntervalSeconds
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	task.UpdatedAt = time.Now()
	task.UpdatedBy = req.UpdatedBy
	task.UpdateNextRunTime()

	return snapshotTask(task), nil
}

// DeleteTask 删除链接任务及其执行历史
func (s *LinkageService) DeleteTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	delete(s.executions, taskID)
	return nil
}

// ExecuteTask 执行链接任务并记录执行历史
func (s *LinkageService) ExecuteTask(ctx context.Context, taskID,
	executionType string) (*models.LinkageExecution, error) {

	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	execution := &models.LinkageExecution{
		ID:            uuid.New().String(),
		TaskID:        taskID,
		ExecutionType: executionType,
		Status:        "running",
		StartTime:     &startTime,
	}

	collectionA, err := s.resolveSource(task.SourceA, "A")
	if err == nil {
		var collectionB *models.RecordCollection
		collectionB, err = s.resolveSource(task.SourceB, "B")
		if err == nil {
			execution.SourceARecordCount = int64(collectionA.Size())
			execution.SourceBRecordCount = int64(collectionB.Size())

			var response *record_linkage.LinkageResponse
			response, err = s.engine.ExecuteLinkage(ctx, &record_linkage.LinkageRequest{
				CollectionA: collectionA,
				CollectionB: collectionB,
				Config:      task.Config,
			})
			s.observeRun(response, startTime, err)

			if err == nil && response.Result != nil {
				execution.CandidatePairCount = response.Result.CandidatePairCount
				execution.MatchedPairCount = response.Result.MatchedPairCount
				execution.MergedRecordCount = int64(len(response.Result.MergedCollection.Records))
			}
		}
	}

	endTime := time.Now()
	execution.EndTime = &endTime
	if err != nil {
		execution.Status = "failed"
		execution.ErrorMessage = err.Error()
	} else {
		execution.Status = "success"
	}

	s.recordExecution(taskID, execution)
	return execution, err
}

// GetExecutions 获取任务的执行历史，新的在前
func (s *LinkageService) GetExecutions(taskID string) ([]*models.LinkageExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tasks[taskID]; !ok {
		return nil, ErrTaskNotFound
	}
	executions := s.executions[taskID]
	result := make([]*models.LinkageExecution, len(executions))
	copy(result, executions)
	return result, nil
}

// resolveSource 解析数据源：优先内联集合，其次CSV文件
func (s *LinkageService) resolveSource(spec models.SourceSpec, side string) (*models.RecordCollection, error) {
	if spec.Inline != nil {
		return spec.Inline, nil
	}
	if spec.CSVPath != "" {
		name := spec.Name
		if name == "" {
			name = side
		}
		return s.loader.LoadFile(spec.CSVPath, loader.CSVLoadOptions{
			Name:     name,
			IDColumn: spec.IDColumn,
			Encoding: spec.Encoding,
		})
	}
	return nil, record_linkage.NewConfigError("source_"+side,
		"数据源必须配置内联集合或CSV路径")
}

// recordExecution 记录执行结果并更新任务统计
// 统计更新作用于服务内保存的任务，执行期间任务被删除时丢弃记录
func (s *LinkageService) recordExecution(taskID string,
	execution *models.LinkageExecution) {

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return
	}

	executions := append([]*models.LinkageExecution{execution}, s.executions[taskID]...)
	if len(executions) > maxExecutionsPerTask {
		executions = executions[:maxExecutionsPerTask]
	}
	s.executions[taskID] = executions

	now := time.Now()
	task.LastRunTime = &now
	task.LastRunStatus = execution.Status
	task.LastRunMessage = execution.ErrorMessage
	task.TotalRunCount++
	if execution.IsSuccess() {
		task.SuccessfulRunCount++
	} else {
		task.FailedRunCount++
	}
	task.UpdateNextRunTime()
}

// observeRun 上报流水线运行指标
func (s *LinkageService) observeRun(response *record_linkage.LinkageResponse,
	start time.Time, err error) {

	if s.metrics == nil {
		return
	}
	status := "success"
	var candidatePairs, matchedPairs int64
	if err != nil {
		status = "failed"
	} else if response != nil && response.Result != nil {
		candidatePairs = response.Result.CandidatePairCount
		matchedPairs = response.Result.MatchedPairCount
	}
	s.metrics.ObserveRun(status, start, candidatePairs, matchedPairs)
}
