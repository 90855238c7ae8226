/*
 * @module service/meta/linkage_meta
 * @description 记录链接相关元数据定义，包括比较器类型、匹配规则类型、调度类型等常量
 * @architecture 元数据层
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 静态元数据定义
 * @rules 提供标准化的记录链接元数据定义，供前端和API消费
 * @refs api/controllers/meta_controller.go, service/models/linkage.go
 */

package meta

// ComparatorKindDefinition 比较器类型定义
type ComparatorKindDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// 是否支持阈值配置
	SupportsThreshold bool `json:"supports_threshold"`
	// 得分值域说明
	ScoreRange string `json:"score_range"`
}

// MatchRuleTypeDefinition 匹配规则类型定义
type MatchRuleTypeDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TriggerTypeDefinition 调度类型定义
type TriggerTypeDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ComparatorKinds 支持的比较器类型
var ComparatorKinds = map[string]ComparatorKindDefinition{
	"exact": {
		ID:          "exact",
		Name:        "精确比较",
		Description: "标准化（去空白+小写）后相等得1分，否则0分",
		ScoreRange:  "{0,1}",
	},
	"string_similarity": {
		ID:                "string_similarity",
		Name:              "字符串相似度比较",
		Description:       "基于编辑距离或Jaro-Winkler的归一化相似度，支持阈值门控和连续得分两种模式",
		SupportsThreshold: true,
		ScoreRange:        "[0,1]",
	},
	"numeric": {
		ID:          "numeric",
		Name:        "数值比较",
		Description: "数值化后相等得1分，否则0分",
		ScoreRange:  "{0,1}",
	},
}

// MatchRuleTypes 支持的匹配规则类型
var MatchRuleTypes = map[string]MatchRuleTypeDefinition{
	"sum_threshold": {
		ID:          "sum_threshold",
		Name:        "求和阈值",
		Description: "特征得分之和达到整数阈值判定为匹配（默认规则）",
	},
	"weighted_threshold": {
		ID:          "weighted_threshold",
		Name:        "加权阈值",
		Description: "按比较器标签加权的得分比例达到阈值判定为匹配",
	},
	"custom_script": {
		ID:          "custom_script",
		Name:        "自定义脚本",
		Description: "通过脚本定义判定逻辑，入口为 Run(features map[string]float64) (bool, error)",
	},
}

// TriggerTypes 支持的任务调度类型
var TriggerTypes = map[string]TriggerTypeDefinition{
	"manual": {
		ID:          "manual",
		Name:        "手动触发",
		Description: "仅通过API手动执行",
	},
	"once": {
		ID:          "once",
		Name:        "单次执行",
		Description: "在指定时间执行一次",
	},
	"interval": {
		ID:          "interval",
		Name:        "间隔执行",
		Description: "按固定间隔秒数重复执行",
	},
	"cron": {
		ID:          "cron",
		Name:        "Cron表达式",
		Description: "按Cron表达式（含秒域）调度执行",
	},
}

// SimilarityMethods 支持的字符串相似度算法
var SimilarityMethods = []string{"levenshtein", "jaro_winkler"}

// ScoreModes 支持的得分输出模式
var ScoreModes = []string{"gated", "continuous"}
