/*
 * @module service/record_linkage/types
 * @description 记录链接引擎核心类型定义，包括候选对、特征向量、配置错误等
 * @architecture 管道模式 - 各阶段共享的数据结构
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 分块索引 -> 候选对 -> 特征向量 -> 匹配判定 -> 合并
 * @rules 候选对和特征表为每次运行重新计算的临时数据，顺序确定以保证可复现
 * @refs blocking_indexer.go, comparison_engine.go, match_rule.go
 */

package record_linkage

import (
	"errors"
	"fmt"
)

// CandidatePair 候选记录对，始终是 A 集合一条记录与 B 集合一条记录
// AIndex/BIndex 为记录在各自集合中的位置，用于确定性排序和快速回查
type CandidatePair struct {
	AID    string `json:"a_id"`
	BID    string `json:"b_id"`
	AIndex int    `json:"a_index"`
	BIndex int    `json:"b_index"`
}

// Less 候选对的确定性排序：先按 A 位置，再按 B 位置
func (p CandidatePair) Less(other CandidatePair) bool {
	if p.AIndex != other.AIndex {
		return p.AIndex < other.AIndex
	}
	return p.BIndex < other.BIndex
}

// IndexStats 分块索引统计信息
type IndexStats struct {
	GroupCountA     int `json:"group_count_a"`     // A 侧分块数
	GroupCountB     int `json:"group_count_b"`     // B 侧分块数
	SharedKeyCount  int `json:"shared_key_count"`  // 两侧共有的分块键数
	SkippedRecordsA int `json:"skipped_records_a"` // A 侧因分块键缺失被跳过的记录数
	SkippedRecordsB int `json:"skipped_records_b"` // B 侧因分块键缺失被跳过的记录数
	PairCount       int `json:"pair_count"`        // 生成的候选对数
}

// PairFeatures 单个候选对的特征向量
// Features 以比较器标签为键，得分均在 [0,1] 区间
type PairFeatures struct {
	Pair     CandidatePair      `json:"pair"`
	Features map[string]float64 `json:"features"`
}

// Sum 特征得分之和
func (pf *PairFeatures) Sum() float64 {
	var total float64
	for _, score := range pf.Features {
		total += score
	}
	return total
}

// FeatureTable 特征表，行顺序与候选对顺序一致
// Labels 保持比较器的配置顺序
type FeatureTable struct {
	Labels []string       `json:"labels"`
	Rows   []PairFeatures `json:"rows"`
}

// ConfigError 配置错误，出现即终止整个运行，不做部分执行
type ConfigError struct {
	Field  string
	Reason string
}

// Error 实现 error 接口
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("配置错误: %s", e.Reason)
	}
	return fmt.Sprintf("配置错误[%s]: %s", e.Field, e.Reason)
}

// NewConfigError 创建配置错误
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// IsConfigError 判断错误链中是否包含配置错误
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
