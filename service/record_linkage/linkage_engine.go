/*
 * @module service/record_linkage/linkage_engine
 * @description 记录链接引擎，协调分块索引、相似度比较、匹配判定和去重合并的完整流水线
 * @architecture 管道模式 - 通过多个处理阶段完成记录链接
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 配置校验 -> 分块索引 -> 特征计算 -> 匹配判定 -> 去重合并 -> 完成
 * @rules 配置错误立即终止整个运行，不做部分执行；空集合是合法输入；流水线幂等
 * @dependencies github.com/google/uuid, context, time
 * @refs blocking_indexer.go, comparison_engine.go, match_rule.go, merger.go
 */

package record_linkage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"linkage-service/service/models"
)

// LinkagePhase 链接执行阶段
type LinkagePhase string

const (
	PhaseValidate LinkagePhase = "validate" // 配置校验
	PhaseIndex    LinkagePhase = "index"    // 分块索引
	PhaseCompare  LinkagePhase = "compare"  // 特征计算
	PhaseDecide   LinkagePhase = "decide"   // 匹配判定
	PhaseMerge    LinkagePhase = "merge"    // 去重合并
	PhaseComplete LinkagePhase = "complete" // 完成
)

// LinkageRequest 链接请求
type LinkageRequest struct {
	CollectionA *models.RecordCollection `json:"collection_a"`
	CollectionB *models.RecordCollection `json:"collection_b"`
	Config      models.LinkageConfig     `json:"config"`
	// 是否在响应中携带原始特征表（调试用）
	IncludeFeatureTable bool `json:"include_feature_table,omitempty"`
}

// ProcessingStepInfo 处理阶段信息
type ProcessingStepInfo struct {
	Phase       LinkagePhase  `json:"phase"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	RecordCount int64         `json:"record_count"`
	Message     string        `json:"message,omitempty"`
}

// LinkageResult 链接执行结果
type LinkageResult struct {
	MergedCollection   *models.RecordCollection `json:"merged_collection"`
	MatchedPairs       []CandidatePair          `json:"matched_pairs"`
	CandidatePairCount int64                    `json:"candidate_pair_count"`
	MatchedPairCount   int64                    `json:"matched_pair_count"`
	IndexStats         *IndexStats              `json:"index_stats"`
	DuplicateRows      []DuplicateRow           `json:"duplicate_rows,omitempty"`
	ProcessingSteps    []ProcessingStepInfo     `json:"processing_steps"`
}

// LinkageResponse 链接响应
type LinkageResponse struct {
	RunID          string         `json:"run_id"`
	Status         string         `json:"status"` // success, failed
	Result         *LinkageResult `json:"result,omitempty"`
	FeatureTable   *FeatureTable  `json:"feature_table,omitempty"`
	Error          string         `json:"error,omitempty"`
	ProcessingTime time.Duration  `json:"processing_time"`
}

// LinkageEngine 记录链接引擎
type LinkageEngine struct {
	indexer          *BlockingIndexer
	comparisonEngine *ComparisonEngine
	merger           *Merger
	scriptExecutor   *ScriptRuleExecutor
}

// NewLinkageEngine 创建记录链接引擎，workers 为比较引擎并行度
func NewLinkageEngine(workers int) *LinkageEngine {
	return &LinkageEngine{
		indexer:          NewBlockingIndexer(),
		comparisonEngine: NewComparisonEngine(workers),
		merger:           NewMerger(),
		scriptExecutor:   NewScriptRuleExecutor(),
	}
}

// ValidateConfig 校验链接配置
// 分块键、比较器和判定规则的任何问题都在流水线执行前暴露
func (le *LinkageEngine) ValidateConfig(cfg models.LinkageConfig,
	collectionA, collectionB *models.RecordCollection) error {

	if collectionA == nil || collectionB == nil {
		return NewConfigError("collections", "两个记录集合都必须提供")
	}

	if len(cfg.BlockingKeys) == 0 {
		return NewConfigError("blocking_keys", "至少需要一个分块键")
	}
	for _, key := range cfg.BlockingKeys {
		if !collectionA.HasField(key) {
			return NewConfigError("blocking_keys",
				"分块键 "+key+" 不存在于集合 "+collectionA.Name+" 的模式中")
		}
		if !collectionB.HasField(key) {
			return NewConfigError("blocking_keys",
				"分块键 "+key+" 不存在于集合 "+collectionB.Name+" 的模式中")
		}
	}

	comparators, err := BuildComparators(cfg.Comparators)
	if err != nil {
		return err
	}
	for _, comparator := range comparators {
		if !collectionA.HasField(comparator.FieldA()) {
			return NewConfigError("comparators",
				"比较器 "+comparator.Label()+" 引用的字段 "+comparator.FieldA()+
					" 不存在于集合 "+collectionA.Name+" 的模式中")
		}
		if !collectionB.HasField(comparator.FieldB()) {
			return NewConfigError("comparators",
				"比较器 "+comparator.Label()+" 引用的字段 "+comparator.FieldB()+
					" 不存在于集合 "+collectionB.Name+" 的模式中")
		}
	}

	if _, err := BuildMatchRule(cfg.MatchRule, le.scriptExecutor); err != nil {
		return err
	}

	return nil
}

// ExecuteLinkage 执行完整链接流水线
// 相同输入和配置多次运行产生相同输出（含顺序）
func (le *LinkageEngine) ExecuteLinkage(ctx context.Context,
	req *LinkageRequest) (*LinkageResponse, error) {

	runID := uuid.New().String()
	startTime := time.Now()

	response := &LinkageResponse{RunID: runID}
	result := &LinkageResult{}

	slog.Info("开始记录链接流水线",
		"run_id", runID,
		"collection_a", req.CollectionA.Size(),
		"collection_b", req.CollectionB.Size())

	// 阶段1: 配置校验
	step := le.beginStep(PhaseValidate)
	if err := le.ValidateConfig(req.Config, req.CollectionA, req.CollectionB); err != nil {
		return le.failResponse(response, startTime, err)
	}
	result.ProcessingSteps = append(result.ProcessingSteps, le.endStep(step, 0, "配置校验通过"))

	comparators, err := BuildComparators(req.Config.Comparators)
	if err != nil {
		return le.failResponse(response, startTime, err)
	}
	rule, err := BuildMatchRule(req.Config.MatchRule, le.scriptExecutor)
	if err != nil {
		return le.failResponse(response, startTime, err)
	}

	// 阶段2: 分块索引
	step = le.beginStep(PhaseIndex)
	pairs, indexStats, err := le.indexer.Index(req.CollectionA, req.CollectionB, req.Config.BlockingKeys)
	if err != nil {
		return le.failResponse(response, startTime, err)
	}
	result.IndexStats = indexStats
	result.CandidatePairCount = int64(len(pairs))
	result.ProcessingSteps = append(result.ProcessingSteps,
		le.endStep(step, int64(len(pairs)), fmt.Sprintf("生成 %d 个候选对", len(pairs))))

	// 阶段3: 特征计算
	step = le.beginStep(PhaseCompare)
	table, err := le.comparisonEngine.Compute(ctx, pairs, req.CollectionA, req.CollectionB, comparators)
	if err != nil {
		return le.failResponse(response, startTime, err)
	}
	result.ProcessingSteps = append(result.ProcessingSteps,
		le.endStep(step, int64(len(table.Rows)), "特征表计算完成"))

	// 阶段4: 匹配判定
	step = le.beginStep(PhaseDecide)
	matched, err := Decide(table, rule)
	if err != nil {
		return le.failResponse(response, startTime, err)
	}
	result.MatchedPairs = matched
	result.MatchedPairCount = int64(len(matched))
	result.ProcessingSteps = append(result.ProcessingSteps,
		le.endStep(step, int64(len(matched)), fmt.Sprintf("判定 %d 个匹配对", len(matched))))

	// 阶段5: 去重合并
	step = le.beginStep(PhaseMerge)
	merged := le.merger.Merge(req.CollectionA, req.CollectionB, matched)
	result.MergedCollection = merged
	result.DuplicateRows = le.merger.CheckExactDuplicates(merged)
	result.ProcessingSteps = append(result.ProcessingSteps,
		le.endStep(step, int64(len(merged.Records)), fmt.Sprintf("合并输出 %d 条记录", len(merged.Records))))

	response.Status = "success"
	response.Result = result
	if req.IncludeFeatureTable {
		response.FeatureTable = table
	}
	response.ProcessingTime = time.Since(startTime)

	slog.Info("记录链接流水线完成",
		"run_id", runID,
		"candidate_pairs", result.CandidatePairCount,
		"matched_pairs", result.MatchedPairCount,
		"merged_records", len(merged.Records),
		"duration", response.ProcessingTime)

	return response, nil
}

// PreviewCandidates 仅执行分块索引阶段，用于调试分块配置
func (le *LinkageEngine) PreviewCandidates(collectionA, collectionB *models.RecordCollection,
	blockingKeys []string) ([]CandidatePair, *IndexStats, error) {
	return le.indexer.Index(collectionA, collectionB, blockingKeys)
}

// ComputeFeatureTable 执行索引和比较两个阶段，返回原始特征表
func (le *LinkageEngine) ComputeFeatureTable(ctx context.Context,
	req *LinkageRequest) (*FeatureTable, *IndexStats, error) {

	if err := le.ValidateConfig(req.Config, req.CollectionA, req.CollectionB); err != nil {
		return nil, nil, err
	}

	comparators, err := BuildComparators(req.Config.Comparators)
	if err != nil {
		return nil, nil, err
	}

	pairs, stats, err := le.indexer.Index(req.CollectionA, req.CollectionB, req.Config.BlockingKeys)
	if err != nil {
		return nil, nil, err
	}

	table, err := le.comparisonEngine.Compute(ctx, pairs, req.CollectionA, req.CollectionB, comparators)
	if err != nil {
		return nil, nil, err
	}

	return table, stats, nil
}

// beginStep 记录阶段开始
func (le *LinkageEngine) beginStep(phase LinkagePhase) ProcessingStepInfo {
	return ProcessingStepInfo{Phase: phase, StartTime: time.Now()}
}

// endStep 记录阶段结束
func (le *LinkageEngine) endStep(step ProcessingStepInfo, recordCount int64, message string) ProcessingStepInfo {
	step.EndTime = time.Now()
	step.Duration = step.EndTime.Sub(step.StartTime)
	step.RecordCount = recordCount
	step.Message = message
	return step
}

// failResponse 构造失败响应
func (le *LinkageEngine) failResponse(response *LinkageResponse,
	startTime time.Time, err error) (*LinkageResponse, error) {

	response.Status = "failed"
	response.Error = err.Error()
	response.ProcessingTime = time.Since(startTime)

	slog.Error("记录链接流水线失败", "run_id", response.RunID, "error", err)
	return response, err
}
