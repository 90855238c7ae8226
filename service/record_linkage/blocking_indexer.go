/*
 * @module service/record_linkage/blocking_indexer
 * @description 分块索引器，通过共享键分组生成候选记录对，避免全量笛卡尔积比较
 * @architecture 哈希分组 - 显式内存哈希表分组，不依赖数据框抽象
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 分块键校验 -> 两侧分组 -> 共有键交集 -> 组内笛卡尔积 -> 排序输出
 * @rules 分块键缺失的记录不参与配对；结果按(A位置,B位置)排序保证可复现
 * @dependencies service/utils, sort, strings
 * @refs comparison_engine.go, linkage_engine.go
 */

package record_linkage

import (
	"sort"
	"strings"

	"linkage-service/service/models"
	"linkage-service/service/utils"
)

// 分块键各分量间的连接符，避免不同键值组合产生同一分块键
const blockKeySeparator = "\x1f"

// BlockingIndexer 分块索引器
//
// 复杂度为 O(Σ |组A|·|组B|) 而非 O(|A|·|B|)，代价是分块键不一致的
// 真实匹配会被漏掉：当且仅当真实匹配的记录在所有分块键上取值一致时，
// 候选对集合才是真实匹配的超集。这是设计上接受的权衡，不是缺陷。
type BlockingIndexer struct {
	converter *utils.DataConverter
}

// NewBlockingIndexer 创建分块索引器
func NewBlockingIndexer() *BlockingIndexer {
	return &BlockingIndexer{
		converter: utils.NewDataConverter(),
	}
}

// Index 生成候选对集合
// 空集合或无共有分块键时返回空集合，不报错；未知分块键返回配置错误
func (bi *BlockingIndexer) Index(collectionA, collectionB *models.RecordCollection,
	blockingKeys []string) ([]CandidatePair, *IndexStats, error) {

	if len(blockingKeys) == 0 {
		return nil, nil, NewConfigError("blocking_keys", "至少需要一个分块键")
	}

	// 分块键必须同时存在于两侧模式中
	for _, key := range blockingKeys {
		if !collectionA.HasField(key) {
			return nil, nil, NewConfigError("blocking_keys",
				"分块键 "+key+" 不存在于集合 "+collectionA.Name+" 的模式中")
		}
		if !collectionB.HasField(key) {
			return nil, nil, NewConfigError("blocking_keys",
				"分块键 "+key+" 不存在于集合 "+collectionB.Name+" 的模式中")
		}
	}

	stats := &IndexStats{}

	groupsA, skippedA := bi.buildGroups(collectionA, blockingKeys)
	groupsB, skippedB := bi.buildGroups(collectionB, blockingKeys)
	stats.GroupCountA = len(groupsA)
	stats.GroupCountB = len(groupsB)
	stats.SkippedRecordsA = skippedA
	stats.SkippedRecordsB = skippedB

	var pairs []CandidatePair
	for key, indicesA := range groupsA {
		indicesB, ok := groupsB[key]
		if !ok {
			continue
		}
		stats.SharedKeyCount++

		// 共有分块内的全量笛卡尔积
		for _, ia := range indicesA {
			for _, ib := range indicesB {
				pairs = append(pairs, CandidatePair{
					AID:    collectionA.Records[ia].ID,
					BID:    collectionB.Records[ib].ID,
					AIndex: ia,
					BIndex: ib,
				})
			}
		}
	}

	// map遍历顺序随机，排序保证结果可复现
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Less(pairs[j])
	})

	stats.PairCount = len(pairs)
	return pairs, stats, nil
}

// buildGroups 按标准化后的分块键值分组，返回分块键到记录位置列表的映射
// 任一分块键分量缺失的记录被跳过并计数
func (bi *BlockingIndexer) buildGroups(collection *models.RecordCollection,
	blockingKeys []string) (map[string][]int, int) {

	groups := make(map[string][]int)
	skipped := 0

	for idx := range collection.Records {
		record := &collection.Records[idx]

		parts := make([]string, 0, len(blockingKeys))
		missing := false
		for _, key := range blockingKeys {
			normalized := bi.converter.NormalizeString(record.GetField(key))
			if normalized == "" {
				missing = true
				break
			}
			parts = append(parts, normalized)
		}
		if missing {
			skipped++
			continue
		}

		blockKey := strings.Join(parts, blockKeySeparator)
		groups[blockKey] = append(groups[blockKey], idx)
	}

	return groups, skipped
}
