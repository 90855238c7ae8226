/*
 * @module service/scheduler/scheduler_service
 * @description 链接任务调度器服务，负责定时执行链接任务
 * @architecture 基于Go协程和定时器的调度器模式
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 调度器启动 -> 任务注册 -> 到期触发 -> 流水线执行 -> 状态更新
 * @rules 支持Cron表达式、间隔和单次调度，自动处理任务状态更新
 * @dependencies github.com/robfig/cron/v3, service/linkage
 * @refs service/models/linkage_task.go, service/linkage/linkage_service.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"linkage-service/service/linkage"
	"linkage-service/service/models"
)

// SchedulerService 链接任务调度器服务
type SchedulerService struct {
	linkageService *linkage.LinkageService
	cron           *cron.Cron
	intervalTicker *time.Ticker
	ctx            context.Context
	cancel         context.CancelFunc

	mu          sync.Mutex
	cronEntries map[string]cron.EntryID // 任务ID -> cron条目
}

// NewSchedulerService 创建调度器服务
func NewSchedulerService(linkageService *linkage.LinkageService) *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerService{
		linkageService: linkageService,
		cron:           cron.New(cron.WithSeconds()),
		ctx:            ctx,
		cancel:         cancel,
		cronEntries:    make(map[string]cron.EntryID),
	}
}

// Start 启动调度器
func (s *SchedulerService) Start() error {
	slog.Info("启动链接任务调度器")

	s.cron.Start()

	// 间隔/单次任务检查器，每分钟检查一次到期任务
	s.intervalTicker = time.NewTicker(1 * time.Minute)
	go s.runIntervalChecker()

	// 注册已有的cron任务
	for _, task := range s.linkageService.ListSchedulableTasks() {
		if err := s.ScheduleTask(task); err != nil {
			slog.Error("注册调度任务失败", "task_id", task.ID, "error", err)
		}
	}

	slog.Info("链接任务调度器启动完成")
	return nil
}

// Stop 停止调度器
func (s *SchedulerService) Stop() {
	slog.Info("停止链接任务调度器")

	s.cancel()

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.intervalTicker != nil {
		s.intervalTicker.Stop()
	}
}

// ScheduleTask 将任务注册到调度器
func (s *SchedulerService) ScheduleTask(task *models.LinkageTask) error {
	switch task.TriggerType {
	case "cron":
		if task.CronExpression == "" {
			return fmt.Errorf("Cron任务缺少表达式")
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		// 重复注册先移除旧条目
		if entryID, ok := s.cronEntries[task.ID]; ok {
			s.cron.Remove(entryID)
		}

		taskID := task.ID
		entryID, err := s.cron.AddFunc(task.CronExpression, func() {
			s.executeScheduledTask(taskID)
		})
		if err != nil {
			return fmt.Errorf("添加Cron任务失败: %w", err)
		}
		s.cronEntries[task.ID] = entryID

		slog.Info("注册Cron任务", "task_id", task.ID, "cron", task.CronExpression)

	case "once":
		if task.ScheduledTime != nil && task.ScheduledTime.After(time.Now()) {
			taskID := task.ID
			scheduledTime := *task.ScheduledTime
			go func() {
				timer := time.NewTimer(time.Until(scheduledTime))
				defer timer.Stop()

				select {
				case <-timer.C:
					s.executeScheduledTask(taskID)
				case <-s.ctx.Done():
					return
				}
			}()

			slog.Info("注册单次任务", "task_id", task.ID, "scheduled_time", scheduledTime)
		}

	case "interval":
		// 间隔任务由intervalChecker按NextRunTime触发
		slog.Info("注册间隔任务", "task_id", task.ID, "interval_seconds", task.IntervalSeconds)
	}

	return nil
}

// UnscheduleTask 将任务从调度器移除
func (s *SchedulerService) UnscheduleTask(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.cronEntries[taskID]; ok {
		s.cron.Remove(entryID)
		delete(s.cronEntries, taskID)
	}
}

// runIntervalChecker 运行间隔任务检查器
func (s *SchedulerService) runIntervalChecker() {
	for {
		select {
		case <-s.intervalTicker.C:
			s.checkDueTasks()
		case <-s.ctx.Done():
			return
		}
	}
}

// checkDueTasks 检查到期的间隔任务
func (s *SchedulerService) checkDueTasks() {
	now := time.Now()
	for _, task := range s.linkageService.ListSchedulableTasks() {
		if task.TriggerType != "interval" {
			continue
		}
		if task.NextRunTime != nil && !task.NextRunTime.After(now) {
			go s.executeScheduledTask(task.ID)
		}
	}
}

// executeScheduledTask 执行调度任务
func (s *SchedulerService) executeScheduledTask(taskID string) {
	task, err := s.linkageService.GetTask(taskID)
	if err != nil {
		slog.Error("获取调度任务失败", "task_id", taskID, "error", err)
		return
	}
	if task.Status != "active" {
		slog.Info("调度任务未激活，跳过执行", "task_id", taskID, "status", task.Status)
		return
	}

	slog.Info("执行调度任务", "task_id", taskID, "task_name", task.TaskName)

	execution, err := s.linkageService.ExecuteTask(s.ctx, taskID, "scheduled")
	if err != nil {
		slog.Error("调度任务执行失败", "task_id", taskID, "error", err)
		return
	}

	slog.Info("调度任务执行完成",
		"task_id", taskID,
		"execution_id", execution.ID,
		"matched_pairs", execution.MatchedPairCount,
		"duration", execution.GetDuration())
}
