/*
 * @module service/record_linkage/match_rule
 * @description 匹配判定规则，将特征向量转换为匹配/非匹配标签，策略可插拔
 * @architecture 策略模式 - 求和阈值、加权阈值和yaegi自定义脚本规则
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 规则构建 -> 逐行判定 -> 匹配对集合
 * @rules 默认规则为求和阈值；脚本规则入口约定为 Run 函数
 * @dependencies github.com/traefik/yaegi, crypto/md5, sync
 * @refs comparison_engine.go, merger.go
 */

package record_linkage

import (
	"crypto/md5"
	"fmt"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"linkage-service/service/models"
)

// MatchRule 匹配判定规则接口
type MatchRule interface {
	Type() models.MatchRuleType
	// IsMatch 根据特征向量判定候选对是否匹配
	IsMatch(features map[string]float64) (bool, error)
}

// sumThresholdRule 求和阈值规则：特征得分之和 >= 阈值判定为匹配
type sumThresholdRule struct {
	threshold float64
}

func (r *sumThresholdRule) Type() models.MatchRuleType { return models.RuleSumThreshold }

func (r *sumThresholdRule) IsMatch(features map[string]float64) (bool, error) {
	var total float64
	for _, score := range features {
		total += score
	}
	return total >= r.threshold, nil
}

// weightedThresholdRule 加权阈值规则：加权得分占总权重的比例 >= 阈值判定为匹配
type weightedThresholdRule struct {
	weights   map[string]float64
	threshold float64
}

func (r *weightedThresholdRule) Type() models.MatchRuleType { return models.RuleWeightedThreshold }

func (r *weightedThresholdRule) IsMatch(features map[string]float64) (bool, error) {
	var totalWeight, weightedScore float64
	for label, score := range features {
		weight, ok := r.weights[label]
		if !ok {
			weight = 1.0 // 默认权重
		}
		totalWeight += weight
		weightedScore += weight * score
	}
	if totalWeight == 0 {
		return false, nil
	}
	return weightedScore/totalWeight >= r.threshold, nil
}

// scriptRule 自定义脚本规则，脚本编译为 Run 函数后逐行调用
type scriptRule struct {
	fn func(map[string]float64) (bool, error)
}

func (r *scriptRule) Type() models.MatchRuleType { return models.RuleCustomScript }

func (r *scriptRule) IsMatch(features map[string]float64) (bool, error) {
	return r.fn(features)
}

// compiledScript 编译缓存条目
type compiledScript struct {
	fn func(map[string]float64) (bool, error)
}

// ScriptRuleExecutor 脚本规则执行器，按脚本内容哈希缓存编译结果
type ScriptRuleExecutor struct {
	mu    sync.Mutex
	cache map[string]*compiledScript
}

// NewScriptRuleExecutor 创建脚本规则执行器
func NewScriptRuleExecutor() *ScriptRuleExecutor {
	return &ScriptRuleExecutor{
		cache: make(map[string]*compiledScript),
	}
}

// Build 编译脚本为匹配规则
func (e *ScriptRuleExecutor) Build(script string) (MatchRule, error) {
	if script == "" {
		return nil, NewConfigError("match_rule", "custom_script 规则缺少脚本内容")
	}

	hash := fmt.Sprintf("%x", md5.Sum([]byte(script)))

	e.mu.Lock()
	compiled, ok := e.cache[hash]
	e.mu.Unlock()

	if !ok {
		var err error
		compiled, err = e.compile(script)
		if err != nil {
			return nil, NewConfigError("match_rule", "脚本编译失败: "+err.Error())
		}

		e.mu.Lock()
		e.cache[hash] = compiled
		e.mu.Unlock()
	}

	return &scriptRule{fn: compiled.fn}, nil
}

// compile 编译脚本为可执行函数
// 包装脚本：要求脚本必须实现一个 Run 函数作为入口
func (e *ScriptRuleExecutor) compile(script string) (*compiledScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	wrapped := fmt.Sprintf(`
package main

// 必须提供一个 Run 函数作为入口
func Run(features map[string]float64) (bool, error) {
%s
}
`, script)

	if _, err := i.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}

	v, err := i.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Run 函数: %w", err)
	}

	runFunc, ok := v.Interface().(func(map[string]float64) (bool, error))
	if !ok {
		return nil, fmt.Errorf("Run 函数签名必须是 func(map[string]float64) (bool, error)")
	}

	return &compiledScript{fn: runFunc}, nil
}

// BuildMatchRule 根据配置构建匹配判定规则
func BuildMatchRule(cfg models.MatchRuleConfig, scriptExecutor *ScriptRuleExecutor) (MatchRule, error) {
	switch cfg.Type {
	case models.RuleSumThreshold, "":
		// 类型和阈值都为零值说明规则没有配置
		// 阈值0会把所有候选对判为匹配，不能默认成这种规则
		if cfg.Type == "" && cfg.Value == 0 {
			return nil, NewConfigError("match_rule",
				"匹配规则未配置：sum_threshold 规则省略类型时必须给出阈值")
		}
		if cfg.Value < 0 {
			return nil, NewConfigError("match_rule",
				fmt.Sprintf("sum_threshold 阈值 %v 不能为负", cfg.Value))
		}
		return &sumThresholdRule{threshold: cfg.Value}, nil

	case models.RuleWeightedThreshold:
		if cfg.Value < 0 || cfg.Value > 1 {
			return nil, NewConfigError("match_rule",
				fmt.Sprintf("weighted_threshold 阈值 %v 超出 [0,1] 区间", cfg.Value))
		}
		return &weightedThresholdRule{weights: cfg.Weights, threshold: cfg.Value}, nil

	case models.RuleCustomScript:
		if scriptExecutor == nil {
			scriptExecutor = NewScriptRuleExecutor()
		}
		return scriptExecutor.Build(cfg.Script)

	default:
		return nil, NewConfigError("match_rule", "规则类型未知: "+string(cfg.Type))
	}
}

// Decide 对特征表逐行应用判定规则，返回判定为匹配的候选对
// 行顺序即候选对顺序，输出保持同样顺序
func Decide(table *FeatureTable, rule MatchRule) ([]CandidatePair, error) {
	var matched []CandidatePair
	for _, row := range table.Rows {
		isMatch, err := rule.IsMatch(row.Features)
		if err != nil {
			return nil, fmt.Errorf("判定候选对 (%s, %s) 失败: %w", row.Pair.AID, row.Pair.BID, err)
		}
		if isMatch {
			matched = append(matched, row.Pair)
		}
	}
	return matched, nil
}
