/*
 * @module service/record_linkage/comparators
 * @description 字段比较器，提供精确比较、字符串相似度比较和数值比较，输出归一化得分
 * @architecture 策略模式 - 统一的比较器接口，配置驱动构建
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 配置校验 -> 比较器构建 -> 逐对求值
 * @rules 比较器为纯函数，无共享可变状态；任一侧缺失值得分为0而不是错误
 * @dependencies github.com/antzucaro/matchr, service/utils
 * @refs comparison_engine.go, types.go
 */

package record_linkage

import (
	"fmt"

	"github.com/antzucaro/matchr"

	"linkage-service/service/models"
	"linkage-service/service/utils"
)

// Comparator 字段比较器接口
// Compare 返回 [0,1] 区间的得分，精确比较只产生 {0,1}
type Comparator interface {
	Label() string
	FieldA() string
	FieldB() string
	Compare(valueA, valueB interface{}) float64
}

// baseComparator 各比较器共有的字段配置
type baseComparator struct {
	label     string
	fieldA    string
	fieldB    string
	converter *utils.DataConverter
}

func (c *baseComparator) Label() string  { return c.label }
func (c *baseComparator) FieldA() string { return c.fieldA }
func (c *baseComparator) FieldB() string { return c.fieldB }

// exactComparator 精确比较器
// 标准化（去空白+小写）后相等得1分，否则0分
type exactComparator struct {
	baseComparator
}

// Compare 精确比较
func (c *exactComparator) Compare(valueA, valueB interface{}) float64 {
	if c.converter.IsMissing(valueA) || c.converter.IsMissing(valueB) {
		return 0
	}
	if c.converter.NormalizeString(valueA) == c.converter.NormalizeString(valueB) {
		return 1
	}
	return 0
}

// stringSimilarityComparator 字符串相似度比较器
// gated 模式下得分 >= 阈值输出1否则0，continuous 模式输出原始相似度
type stringSimilarityComparator struct {
	baseComparator
	method    models.SimilarityMethod
	mode      models.ScoreMode
	threshold float64
}

// Compare 字符串相似度比较
func (c *stringSimilarityComparator) Compare(valueA, valueB interface{}) float64 {
	if c.converter.IsMissing(valueA) || c.converter.IsMissing(valueB) {
		return 0
	}

	strA := c.converter.NormalizeString(valueA)
	strB := c.converter.NormalizeString(valueB)

	similarity := c.rawSimilarity(strA, strB)

	if c.mode == models.ScoreModeContinuous {
		return similarity
	}
	if similarity >= c.threshold {
		return 1
	}
	return 0
}

// rawSimilarity 计算 [0,1] 区间的原始相似度
func (c *stringSimilarityComparator) rawSimilarity(strA, strB string) float64 {
	if strA == strB {
		return 1
	}

	switch c.method {
	case models.MethodJaroWinkler:
		return clampScore(matchr.JaroWinkler(strA, strB, false))
	default:
		// 编辑距离归一化：1 - distance/maxLen
		distance := matchr.Levenshtein(strA, strB)
		maxLen := len([]rune(strA))
		if l := len([]rune(strB)); l > maxLen {
			maxLen = l
		}
		if maxLen == 0 {
			return 0
		}
		return clampScore(1 - float64(distance)/float64(maxLen))
	}
}

// numericComparator 数值比较器
// 数值化后相等得1分，任一侧无法数值化按缺失处理得0分
type numericComparator struct {
	baseComparator
}

// Compare 数值比较
func (c *numericComparator) Compare(valueA, valueB interface{}) float64 {
	numA, errA := c.converter.ToFloat(valueA)
	numB, errB := c.converter.ToFloat(valueB)
	if errA != nil || errB != nil {
		return 0
	}
	if numA == numB {
		return 1
	}
	return 0
}

// BuildComparators 根据配置构建比较器列表，顺序与配置顺序一致
// 标签冲突、未知类型、阈值越界都是配置错误，立即终止
func BuildComparators(configs []models.ComparatorConfig) ([]Comparator, error) {
	if len(configs) == 0 {
		return nil, NewConfigError("comparators", "至少需要一个比较器")
	}

	converter := utils.NewDataConverter()
	seenLabels := make(map[string]bool)
	comparators := make([]Comparator, 0, len(configs))

	for i, cfg := range configs {
		if cfg.Label == "" {
			return nil, NewConfigError("comparators",
				fmt.Sprintf("第%d个比较器缺少标签", i+1))
		}
		if seenLabels[cfg.Label] {
			// 特征向量以标签为键，重复标签会相互覆盖
			return nil, NewConfigError("comparators",
				"比较器标签重复: "+cfg.Label)
		}
		seenLabels[cfg.Label] = true

		if cfg.FieldA == "" || cfg.FieldB == "" {
			return nil, NewConfigError("comparators",
				"比较器 "+cfg.Label+" 缺少字段配置")
		}

		base := baseComparator{
			label:     cfg.Label,
			fieldA:    cfg.FieldA,
			fieldB:    cfg.FieldB,
			converter: converter,
		}

		switch cfg.Kind {
		case models.ComparatorExact:
			comparators = append(comparators, &exactComparator{baseComparator: base})

		case models.ComparatorStringSimilarity:
			comparator, err := buildStringSimilarityComparator(base, cfg)
			if err != nil {
				return nil, err
			}
			comparators = append(comparators, comparator)

		case models.ComparatorNumeric:
			comparators = append(comparators, &numericComparator{baseComparator: base})

		default:
			return nil, NewConfigError("comparators",
				"比较器 "+cfg.Label+" 类型未知: "+string(cfg.Kind))
		}
	}

	return comparators, nil
}

// buildStringSimilarityComparator 构建字符串相似度比较器
// 默认模式：配置了阈值时为 gated，否则为 continuous
func buildStringSimilarityComparator(base baseComparator,
	cfg models.ComparatorConfig) (Comparator, error) {

	method := cfg.Method
	if method == "" {
		method = models.MethodLevenshtein
	}
	if method != models.MethodLevenshtein && method != models.MethodJaroWinkler {
		return nil, NewConfigError("comparators",
			"比较器 "+cfg.Label+" 相似度算法未知: "+string(method))
	}

	mode := cfg.Mode
	if mode == "" {
		if cfg.Threshold != nil {
			mode = models.ScoreModeGated
		} else {
			mode = models.ScoreModeContinuous
		}
	}
	if mode != models.ScoreModeGated && mode != models.ScoreModeContinuous {
		return nil, NewConfigError("comparators",
			"比较器 "+cfg.Label+" 得分模式未知: "+string(mode))
	}

	threshold := 0.85
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
		if threshold < 0 || threshold > 1 {
			return nil, NewConfigError("comparators",
				fmt.Sprintf("比较器 %s 阈值 %v 超出 [0,1] 区间", cfg.Label, threshold))
		}
	} else if mode == models.ScoreModeGated {
		return nil, NewConfigError("comparators",
			"比较器 "+cfg.Label+" 使用 gated 模式时必须配置阈值")
	}

	return &stringSimilarityComparator{
		baseComparator: base,
		method:         method,
		mode:           mode,
		threshold:      threshold,
	}, nil
}

// clampScore 将得分收敛到 [0,1] 区间
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
