/*
 * @module service/models/linkage
 * @description 记录链接相关模型定义，包括记录集合、链接配置、比较器配置等核心实体
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 记录加载 -> 分块索引 -> 相似度比较 -> 匹配判定 -> 去重合并
 * @rules 记录为不可变输入，候选对和特征向量为派生的临时数据，每次运行重新计算
 * @refs service/record_linkage/linkage_engine.go, service/models/linkage_task.go
 */

package models

// Record 单条实体记录，字段名到值的映射
// ID 在所属集合内唯一，不要求全局唯一
type Record struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// GetField 获取字段值，字段不存在返回 nil
func (r *Record) GetField(name string) interface{} {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}

// RecordCollection 记录集合，对应链接的一侧（A 或 B）
// Records 保持加载时的原始顺序，Schema 为字段名列表
type RecordCollection struct {
	Name    string   `json:"name"`
	Schema  []string `json:"schema"`
	Records []Record `json:"records"`
}

// HasField 判断字段是否在集合模式中
func (c *RecordCollection) HasField(name string) bool {
	for _, f := range c.Schema {
		if f == name {
			return true
		}
	}
	return false
}

// RecordByIndex 按位置获取记录
func (c *RecordCollection) RecordByIndex(idx int) *Record {
	if idx < 0 || idx >= len(c.Records) {
		return nil
	}
	return &c.Records[idx]
}

// Size 记录数量
func (c *RecordCollection) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// ComparatorKind 比较器类型
type ComparatorKind string

const (
	ComparatorExact            ComparatorKind = "exact"             // 精确比较
	ComparatorStringSimilarity ComparatorKind = "string_similarity" // 字符串相似度比较
	ComparatorNumeric          ComparatorKind = "numeric"           // 数值比较
)

// SimilarityMethod 字符串相似度算法
type SimilarityMethod string

const (
	MethodLevenshtein SimilarityMethod = "levenshtein"  // 编辑距离
	MethodJaroWinkler SimilarityMethod = "jaro_winkler" // Jaro-Winkler
)

// ScoreMode 相似度得分输出模式
type ScoreMode string

const (
	ScoreModeGated      ScoreMode = "gated"      // 阈值门控，输出 0/1
	ScoreModeContinuous ScoreMode = "continuous" // 连续得分，输出 [0,1]
)

// ComparatorConfig 字段比较器配置
// Threshold 仅对 string_similarity 有效，取值范围 [0,1]
type ComparatorConfig struct {
	Label     string           `json:"label"`
	FieldA    string           `json:"field_a"`
	FieldB    string           `json:"field_b"`
	Kind      ComparatorKind   `json:"kind"`
	Method    SimilarityMethod `json:"method,omitempty"`
	Mode      ScoreMode        `json:"mode,omitempty"`
	Threshold *float64         `json:"threshold,omitempty"`
}

// MatchRuleType 匹配判定规则类型
type MatchRuleType string

const (
	RuleSumThreshold      MatchRuleType = "sum_threshold"      // 得分求和阈值
	RuleWeightedThreshold MatchRuleType = "weighted_threshold" // 加权阈值
	RuleCustomScript      MatchRuleType = "custom_script"      // 自定义脚本规则
)

// MatchRuleConfig 匹配判定规则配置
type MatchRuleConfig struct {
	Type MatchRuleType `json:"type"`
	// sum_threshold 使用：特征得分之和 >= Value 判定为匹配
	Value float64 `json:"value,omitempty"`
	// weighted_threshold 使用：按比较器标签的权重
	Weights map[string]float64 `json:"weights,omitempty"`
	// custom_script 使用：脚本体，入口约定为
	// Run(features map[string]float64) (bool, error)
	Script string `json:"script,omitempty"`
}

// LinkageConfig 记录链接流水线配置
// 所有配置显式传入流水线入口，不依赖包级默认值
type LinkageConfig struct {
	BlockingKeys []string           `json:"blocking_keys"`
	Comparators  []ComparatorConfig `json:"comparators"`
	MatchRule    MatchRuleConfig    `json:"match_rule"`
	// 比较引擎并行度，0 表示使用 CPU 核数
	Workers int `json:"workers,omitempty"`
}
