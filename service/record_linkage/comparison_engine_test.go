/*
 * @module service/record_linkage/comparison_engine_test
 * @description 比较引擎单元测试
 * @architecture 单元测试 - 验证特征表生成、并行求值的确定性和字段校验
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 候选对准备 -> 并行计算 -> 特征表验证
 * @rules 不同并行度下结果必须完全一致
 * @dependencies testing, context, github.com/stretchr/testify/assert
 * @refs comparison_engine.go
 */

package record_linkage

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"linkage-service/service/models"

	"github.com/stretchr/testify/assert"
)

func testComparatorConfigs() []models.ComparatorConfig {
	return []models.ComparatorConfig{
		{Label: "name", FieldA: "name", FieldB: "name", Kind: models.ComparatorExact},
		{Label: "city", FieldA: "city", FieldB: "city", Kind: models.ComparatorExact},
	}
}

func TestComparisonEngine_Compute(t *testing.T) {
	schema := []string{"name", "city"}
	collectionA := newTestCollection("A", schema, []models.Record{
		{ID: "a1", Fields: map[string]interface{}{"name": "alice", "city": "sydney"}},
		{ID: "a2", Fields: map[string]interface{}{"name": "bob", "city": "perth"}},
	})
	collectionB := newTestCollection("B", schema, []models.Record{
		{ID: "b1", Fields: map[string]interface{}{"name": "alice", "city": "melbourne"}},
	})

	pairs := []CandidatePair{
		{AID: "a1", BID: "b1", AIndex: 0, BIndex: 0},
		{AID: "a2", BID: "b1", AIndex: 1, BIndex: 0},
	}

	comparators, err := BuildComparators(testComparatorConfigs())
	assert.NoError(t, err)

	engine := NewComparisonEngine(2)
	table, err := engine.Compute(context.Background(), pairs, collectionA, collectionB, comparators)

	assert.NoError(t, err)
	assert.Equal(t, []string{"name", "city"}, table.Labels)
	assert.Len(t, table.Rows, 2)

	// 行顺序与候选对顺序一致
	assert.Equal(t, "a1", table.Rows[0].Pair.AID)
	assert.Equal(t, map[string]float64{"name": 1, "city": 0}, table.Rows[0].Features)
	assert.Equal(t, "a2", table.Rows[1].Pair.AID)
	assert.Equal(t, map[string]float64{"name": 0, "city": 0}, table.Rows[1].Features)
}

func TestComparisonEngine_Compute_EmptyPairs(t *testing.T) {
	schema := []string{"name", "city"}
	collectionA := newTestCollection("A", schema, nil)
	collectionB := newTestCollection("B", schema, nil)

	comparators, err := BuildComparators(testComparatorConfigs())
	assert.NoError(t, err)

	engine := NewComparisonEngine(4)
	table, err := engine.Compute(context.Background(), nil, collectionA, collectionB, comparators)

	assert.NoError(t, err)
	assert.Equal(t, []string{"name", "city"}, table.Labels)
	assert.Empty(t, table.Rows)
}

func TestComparisonEngine_Compute_DeterministicAcrossWorkerCounts(t *testing.T) {
	schema := []string{"name", "city"}

	var recordsA, recordsB []models.Record
	for i := 0; i < 20; i++ {
		recordsA = append(recordsA, models.Record{
			ID: fmt.Sprintf("a%d", i),
			Fields: map[string]interface{}{
				"name": fmt.Sprintf("name%d", i),
				"city": fmt.Sprintf("city%d", i%3),
			},
		})
		recordsB = append(recordsB, models.Record{
			ID: fmt.Sprintf("b%d", i),
			Fields: map[string]interface{}{
				"name": fmt.Sprintf("name%d", i),
				"city": fmt.Sprintf("city%d", i%3),
			},
		})
	}
	collectionA := newTestCollection("A", schema, recordsA)
	collectionB := newTestCollection("B", schema, recordsB)

	var pairs []CandidatePair
	for ia := 0; ia < 20; ia++ {
		for ib := 0; ib < 5; ib++ {
			pairs = append(pairs, CandidatePair{
				AID:    recordsA[ia].ID,
				BID:    recordsB[ib].ID,
				AIndex: ia,
				BIndex: ib,
			})
		}
	}

	comparators, err := BuildComparators(testComparatorConfigs())
	assert.NoError(t, err)

	baseline, err := NewComparisonEngine(1).Compute(context.Background(), pairs, collectionA, collectionB, comparators)
	assert.NoError(t, err)

	for _, workers := range []int{2, 4, 8, 100} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			table, err := NewComparisonEngine(workers).Compute(context.Background(), pairs, collectionA, collectionB, comparators)
			assert.NoError(t, err)
			assert.Equal(t, baseline, table)
		})
	}
}

func TestComparisonEngine_Compute_UnknownField(t *testing.T) {
	collectionA := newTestCollection("A", []string{"name"}, nil)
	collectionB := newTestCollection("B", []string{"name", "city"}, nil)

	comparators, err := BuildComparators(testComparatorConfigs())
	assert.NoError(t, err)

	engine := NewComparisonEngine(2)
	_, err = engine.Compute(context.Background(), nil, collectionA, collectionB, comparators)

	assert.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestComparisonEngine_Compute_CancelledContext(t *testing.T) {
	schema := []string{"name", "city"}
	collectionA := newTestCollection("A", schema, []models.Record{
		{ID: "a1", Fields: map[string]interface{}{"name": "alice", "city": "sydney"}},
	})
	collectionB := newTestCollection("B", schema, []models.Record{
		{ID: "b1", Fields: map[string]interface{}{"name": "alice", "city": "sydney"}},
	})
	pairs := []CandidatePair{{AID: "a1", BID: "b1"}}

	comparators, err := BuildComparators(testComparatorConfigs())
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewComparisonEngine(2)
	_, err = engine.Compute(ctx, pairs, collectionA, collectionB, comparators)

	assert.ErrorIs(t, err, context.Canceled)
}

// countingComparator 统计Compare被调用的次数
type countingComparator struct {
	calls *int64
}

func (c *countingComparator) Label() string  { return "count" }
func (c *countingComparator) FieldA() string { return "name" }
func (c *countingComparator) FieldB() string { return "name" }
func (c *countingComparator) Compare(valueA, valueB interface{}) float64 {
	atomic.AddInt64(c.calls, 1)
	return 0
}

func TestComparisonEngine_Compute_CancelStopsWorkers(t *testing.T) {
	schema := []string{"name"}
	collectionA := newTestCollection("A", schema, []models.Record{
		{ID: "a1", Fields: map[string]interface{}{"name": "alice"}},
	})
	collectionB := newTestCollection("B", schema, []models.Record{
		{ID: "b1", Fields: map[string]interface{}{"name": "alice"}},
	})

	// 大量候选对，已取消的上下文不应触发任何比较
	var pairs []CandidatePair
	for i := 0; i < 500; i++ {
		pairs = append(pairs, CandidatePair{AID: "a1", BID: "b1", BIndex: i})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int64
	engine := NewComparisonEngine(4)
	_, err := engine.Compute(ctx, pairs, collectionA, collectionB,
		[]Comparator{&countingComparator{calls: &calls}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt64(&calls))
}
