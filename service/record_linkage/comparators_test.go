/*
 * @module service/record_linkage/comparators_test
 * @description 字段比较器单元测试
 * @architecture 单元测试 - 验证各比较器的得分语义和配置校验
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 比较器构建 -> 得分求值 -> 结果验证
 * @rules 覆盖缺失值、标准化、阈值门控和全部配置错误分支
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs comparators.go
 */

package record_linkage

import (
	"testing"

	"linkage-service/service/models"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func buildSingleComparator(t *testing.T, cfg models.ComparatorConfig) Comparator {
	t.Helper()
	comparators, err := BuildComparators([]models.ComparatorConfig{cfg})
	assert.NoError(t, err)
	assert.Len(t, comparators, 1)
	return comparators[0]
}

func TestExactComparator_Compare(t *testing.T) {
	comparator := buildSingleComparator(t, models.ComparatorConfig{
		Label:  "name",
		FieldA: "name",
		FieldB: "name",
		Kind:   models.ComparatorExact,
	})

	tests := []struct {
		name     string
		valueA   interface{}
		valueB   interface{}
		expected float64
	}{
		{"完全相等", "alice", "alice", 1},
		{"标准化后相等", "  Alice ", "alice", 1},
		{"不相等", "alice", "bob", 0},
		{"A侧缺失", nil, "alice", 0},
		{"B侧缺失", "alice", nil, 0},
		{"两侧都缺失", nil, nil, 0},
		{"空字符串视为缺失", "", "", 0},
		{"数值转字符串比较", 42, "42", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, comparator.Compare(tt.valueA, tt.valueB))
		})
	}
}

func TestStringSimilarityComparator_Gated(t *testing.T) {
	comparator := buildSingleComparator(t, models.ComparatorConfig{
		Label:     "surname",
		FieldA:    "surname",
		FieldB:    "surname",
		Kind:      models.ComparatorStringSimilarity,
		Method:    models.MethodLevenshtein,
		Mode:      models.ScoreModeGated,
		Threshold: floatPtr(0.75),
	})

	tests := []struct {
		name     string
		valueA   interface{}
		valueB   interface{}
		expected float64
	}{
		{"完全相等得1", "neumann", "neumann", 1},
		// "neumann" vs "neumanm"：距离1，长度7，相似度 6/7 ≈ 0.857 >= 0.75
		{"相似度超过阈值得1", "neumann", "neumanm", 1},
		// "abcd" vs "wxyz"：距离4，相似度0
		{"相似度低于阈值得0", "abcd", "wxyz", 0},
		{"缺失值得0", nil, "neumann", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, comparator.Compare(tt.valueA, tt.valueB))
		})
	}
}

func TestStringSimilarityComparator_Continuous(t *testing.T) {
	comparator := buildSingleComparator(t, models.ComparatorConfig{
		Label:  "surname",
		FieldA: "surname",
		FieldB: "surname",
		Kind:   models.ComparatorStringSimilarity,
		Method: models.MethodLevenshtein,
		Mode:   models.ScoreModeContinuous,
	})

	// "kitten" vs "sitting"：距离3，最大长度7，相似度 1 - 3/7
	score := comparator.Compare("kitten", "sitting")
	assert.InDelta(t, 1.0-3.0/7.0, score, 1e-9)

	assert.Equal(t, 1.0, comparator.Compare("smith", "smith"))
	assert.Equal(t, 0.0, comparator.Compare("abc", "xyz"))
}

func TestStringSimilarityComparator_JaroWinkler(t *testing.T) {
	comparator := buildSingleComparator(t, models.ComparatorConfig{
		Label:  "given_name",
		FieldA: "given_name",
		FieldB: "given_name",
		Kind:   models.ComparatorStringSimilarity,
		Method: models.MethodJaroWinkler,
		Mode:   models.ScoreModeContinuous,
	})

	assert.Equal(t, 1.0, comparator.Compare("michaela", "michaela"))

	// 共享前缀的近似串得分较高但小于1
	score := comparator.Compare("michaela", "michela")
	assert.Greater(t, score, 0.8)
	assert.Less(t, score, 1.0)
}

func TestNumericComparator_Compare(t *testing.T) {
	comparator := buildSingleComparator(t, models.ComparatorConfig{
		Label:  "age",
		FieldA: "age",
		FieldB: "age",
		Kind:   models.ComparatorNumeric,
	})

	tests := []struct {
		name     string
		valueA   interface{}
		valueB   interface{}
		expected float64
	}{
		{"整数相等", 42, 42, 1},
		{"跨类型数值相等", 42, "42", 1},
		{"浮点相等", 3.5, "3.5", 1},
		{"数值不等", 42, 43, 0},
		{"无法数值化按缺失处理", "abc", 42, 0},
		{"nil按缺失处理", nil, 42, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, comparator.Compare(tt.valueA, tt.valueB))
		})
	}
}

func TestBuildComparators_Defaults(t *testing.T) {
	t.Run("配置阈值时默认gated模式", func(t *testing.T) {
		comparator := buildSingleComparator(t, models.ComparatorConfig{
			Label:     "name",
			FieldA:    "name",
			FieldB:    "name",
			Kind:      models.ComparatorStringSimilarity,
			Threshold: floatPtr(0.9),
		})
		// gated模式下输出只有0或1
		score := comparator.Compare("kitten", "sitting")
		assert.Equal(t, 0.0, score)
	})

	t.Run("未配置阈值时默认continuous模式", func(t *testing.T) {
		comparator := buildSingleComparator(t, models.ComparatorConfig{
			Label:  "name",
			FieldA: "name",
			FieldB: "name",
			Kind:   models.ComparatorStringSimilarity,
		})
		score := comparator.Compare("kitten", "sitting")
		assert.Greater(t, score, 0.0)
		assert.Less(t, score, 1.0)
	})

	t.Run("默认算法为编辑距离", func(t *testing.T) {
		comparator := buildSingleComparator(t, models.ComparatorConfig{
			Label:  "name",
			FieldA: "name",
			FieldB: "name",
			Kind:   models.ComparatorStringSimilarity,
			Mode:   models.ScoreModeContinuous,
		})
		assert.InDelta(t, 1.0-3.0/7.0, comparator.Compare("kitten", "sitting"), 1e-9)
	})
}

func TestBuildComparators_ConfigErrors(t *testing.T) {
	valid := models.ComparatorConfig{
		Label:  "name",
		FieldA: "name",
		FieldB: "name",
		Kind:   models.ComparatorExact,
	}

	tests := []struct {
		name    string
		configs []models.ComparatorConfig
	}{
		{"空比较器列表", nil},
		{"缺少标签", []models.ComparatorConfig{
			{FieldA: "name", FieldB: "name", Kind: models.ComparatorExact},
		}},
		{"标签重复", []models.ComparatorConfig{valid, valid}},
		{"缺少字段配置", []models.ComparatorConfig{
			{Label: "name", Kind: models.ComparatorExact},
		}},
		{"类型未知", []models.ComparatorConfig{
			{Label: "name", FieldA: "name", FieldB: "name", Kind: "soundex"},
		}},
		{"相似度算法未知", []models.ComparatorConfig{
			{Label: "name", FieldA: "name", FieldB: "name",
				Kind: models.ComparatorStringSimilarity, Method: "hamming"},
		}},
		{"得分模式未知", []models.ComparatorConfig{
			{Label: "name", FieldA: "name", FieldB: "name",
				Kind: models.ComparatorStringSimilarity, Mode: "binary", Threshold: floatPtr(0.5)},
		}},
		{"阈值超出区间", []models.ComparatorConfig{
			{Label: "name", FieldA: "name", FieldB: "name",
				Kind: models.ComparatorStringSimilarity, Threshold: floatPtr(1.5)},
		}},
		{"gated模式缺少阈值", []models.ComparatorConfig{
			{Label: "name", FieldA: "name", FieldB: "name",
				Kind: models.ComparatorStringSimilarity, Mode: models.ScoreModeGated},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildComparators(tt.configs)
			assert.Error(t, err)
			assert.True(t, IsConfigError(err), "应为配置错误: %v", err)
		})
	}
}
