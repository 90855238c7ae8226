/*
 * @module service/record_linkage/comparison_engine
 * @description 比较引擎，对每个候选对应用全部配置的比较器，生成特征表
 * @architecture 分块工作池 - 候选对分片并行求值，无共享可变状态
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 字段校验 -> 候选对分片 -> 并行求值 -> 按对排序输出
 * @rules 比较器引用的字段必须存在于两侧模式，否则配置错误终止；输出顺序确定
 * @dependencies context, runtime, sort, sync
 * @refs comparators.go, blocking_indexer.go
 */

package record_linkage

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"linkage-service/service/models"
)

// 分片内每处理这么多候选对检查一次取消信号
const cancelCheckStride = 64

// ComparisonEngine 比较引擎
type ComparisonEngine struct {
	workers int
}

// NewComparisonEngine 创建比较引擎，workers 为 0 时使用 CPU 核数
func NewComparisonEngine(workers int) *ComparisonEngine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &ComparisonEngine{workers: workers}
}

// Compute 为每个候选对计算特征向量
// 每对的比较相互独立，按分片并行；结果按(A位置,B位置)排序保证可复现
func (ce *ComparisonEngine) Compute(ctx context.Context, pairs []CandidatePair,
	collectionA, collectionB *models.RecordCollection,
	comparators []Comparator) (*FeatureTable, error) {

	// 字段缺失是配置错误，不允许静默跳过
	for _, comparator := range comparators {
		if !collectionA.HasField(comparator.FieldA()) {
			return nil, NewConfigError("comparators",
				"比较器 "+comparator.Label()+" 引用的字段 "+comparator.FieldA()+
					" 不存在于集合 "+collectionA.Name+" 的模式中")
		}
		if !collectionB.HasField(comparator.FieldB()) {
			return nil, NewConfigError("comparators",
				"比较器 "+comparator.Label()+" 引用的字段 "+comparator.FieldB()+
					" 不存在于集合 "+collectionB.Name+" 的模式中")
		}
	}

	labels := make([]string, len(comparators))
	for i, comparator := range comparators {
		labels[i] = comparator.Label()
	}

	table := &FeatureTable{Labels: labels}
	if len(pairs) == 0 {
		return table, nil
	}

	// 输入顺序可能未排序，先固定顺序再分片
	sorted := make([]CandidatePair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})

	rows := make([]PairFeatures, len(sorted))

	workers := ce.workers
	if workers > len(sorted) {
		workers = len(sorted)
	}
	chunkSize := (len(sorted) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if start >= len(sorted) {
			break
		}
		if end > len(sorted) {
			end = len(sorted)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				// 取消后尽早放弃剩余分片，避免白算
				if (i-start)%cancelCheckStride == 0 && ctx.Err() != nil {
					return
				}
				// 每个worker只写自己分片内的行，无需加锁
				rows[i] = ce.computePair(sorted[i], collectionA, collectionB, comparators)
			}
		}(start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table.Rows = rows
	return table, nil
}

// computePair 计算单个候选对的特征向量，键为比较器标签
func (ce *ComparisonEngine) computePair(pair CandidatePair,
	collectionA, collectionB *models.RecordCollection,
	comparators []Comparator) PairFeatures {

	recordA := collectionA.RecordByIndex(pair.AIndex)
	recordB := collectionB.RecordByIndex(pair.BIndex)

	features := make(map[string]float64, len(comparators))
	for _, comparator := range comparators {
		var valueA, valueB interface{}
		if recordA != nil {
			valueA = recordA.GetField(comparator.FieldA())
		}
		if recordB != nil {
			valueB = recordB.GetField(comparator.FieldB())
		}
		features[comparator.Label()] = comparator.Compare(valueA, valueB)
	}

	return PairFeatures{Pair: pair, Features: features}
}
