/*
 * @module service/models/linkage_task
 * @description 记录链接任务相关模型定义，包括链接任务、执行记录等实体
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 任务创建 -> 调度执行 -> 流水线处理 -> 结果记录
 * @rules 任务和执行记录仅保存在内存中，进程重启后丢失（按设计不做持久化）
 * @refs service/linkage/linkage_service.go, service/scheduler/scheduler_service.go
 */

package models

import (
	"time"
)

// SourceSpec 数据源配置，内联集合和CSV文件二选一
type SourceSpec struct {
	Inline   *RecordCollection `json:"inline,omitempty"`
	CSVPath  string            `json:"csv_path,omitempty"`
	IDColumn string            `json:"id_column,omitempty"` // 默认 "id"
	Encoding string            `json:"encoding,omitempty"`  // utf-8（默认）或 gbk
	Name     string            `json:"name,omitempty"`
}

// LinkageTask 记录链接任务模型
type LinkageTask struct {
	ID          string `json:"id"`
	TaskName    string `json:"task_name"`
	Description string `json:"description,omitempty"`

	// 数据源配置
	SourceA SourceSpec `json:"source_a"`
	SourceB SourceSpec `json:"source_b"`

	// 链接配置
	Config LinkageConfig `json:"config"`

	// 调度配置
	TriggerType     string     `json:"trigger_type"` // manual, once, interval, cron
	CronExpression  string     `json:"cron_expression,omitempty"`
	IntervalSeconds int        `json:"interval_seconds,omitempty"`
	ScheduledTime   *time.Time `json:"scheduled_time,omitempty"`
	NextRunTime     *time.Time `json:"next_run_time,omitempty"`

	// 状态信息
	Status         string     `json:"status"` // draft, active, paused
	LastRunTime    *time.Time `json:"last_run_time,omitempty"`
	LastRunStatus  string     `json:"last_run_status,omitempty"`
	LastRunMessage string     `json:"last_run_message,omitempty"`

	// 统计信息
	TotalRunCount      int64 `json:"total_run_count"`
	SuccessfulRunCount int64 `json:"successful_run_count"`
	FailedRunCount     int64 `json:"failed_run_count"`

	// 审计字段
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// UpdateNextRunTime 更新下次执行时间
// cron 表达式的下次执行时间由调度器计算，这里只处理 once 和 interval
func (t *LinkageTask) UpdateNextRunTime() {
	now := time.Now()

	switch t.TriggerType {
	case "once":
		// 一次性任务执行后不再执行
		t.NextRunTime = nil
	case "interval":
		if t.IntervalSeconds > 0 {
			nextTime := now.Add(time.Duration(t.IntervalSeconds) * time.Second)
			t.NextRunTime = &nextTime
		}
	case "manual":
		t.NextRunTime = nil
	}
}

// IsSchedulable 判断任务是否可被调度器执行
func (t *LinkageTask) IsSchedulable() bool {
	return t.Status == "active" && t.TriggerType != "manual"
}

// LinkageExecution 链接执行记录
type LinkageExecution struct {
	ID            string `json:"id"`
	TaskID        string `json:"task_id"`
	ExecutionType string `json:"execution_type"` // manual, scheduled

	// 执行状态
	Status    string     `json:"status"` // running, success, failed
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// 数据统计
	SourceARecordCount int64 `json:"source_a_record_count"`
	SourceBRecordCount int64 `json:"source_b_record_count"`
	CandidatePairCount int64 `json:"candidate_pair_count"`
	MatchedPairCount   int64 `json:"matched_pair_count"`
	MergedRecordCount  int64 `json:"merged_record_count"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// GetDuration 获取执行时长
func (e *LinkageExecution) GetDuration() time.Duration {
	if e.StartTime != nil && e.EndTime != nil {
		return e.EndTime.Sub(*e.StartTime)
	}
	return 0
}

// IsCompleted 判断执行是否完成
func (e *LinkageExecution) IsCompleted() bool {
	return e.Status == "success" || e.Status == "failed"
}

// IsSuccess 判断执行是否成功
func (e *LinkageExecution) IsSuccess() bool {
	return e.Status == "success"
}
