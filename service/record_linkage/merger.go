/*
 * @module service/record_linkage/merger
 * @description 合并器，将两个集合按匹配结果去重合并：A 全量保留，B 中未匹配的追加
 * @architecture 集合差运算 - 匹配的 B 侧记录ID集合决定保留范围
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 匹配ID收集 -> A全量输出 -> B过滤追加 -> 重复行诊断
 * @rules 输出顺序为A原始顺序在前、B存活记录原始顺序在后；|输出|=|A|+|B|-|匹配B ID数|
 * @dependencies service/models, service/utils, strings
 * @refs match_rule.go, linkage_engine.go
 */

package record_linkage

import (
	"strings"

	"linkage-service/service/models"
	"linkage-service/service/utils"
)

// Merger 合并器
type Merger struct {
	converter *utils.DataConverter
}

// NewMerger 创建合并器
func NewMerger() *Merger {
	return &Merger{
		converter: utils.NewDataConverter(),
	}
}

// Merge 合并两个集合
// A 的记录不会被丢弃；B 中出现在任一匹配对里的记录被视为重复剔除
func (m *Merger) Merge(collectionA, collectionB *models.RecordCollection,
	matched []CandidatePair) *models.RecordCollection {

	matchedBIDs := make(map[string]bool, len(matched))
	for _, pair := range matched {
		matchedBIDs[pair.BID] = true
	}

	merged := &models.RecordCollection{
		Name:   collectionA.Name,
		Schema: collectionA.Schema,
	}
	if merged.Name == "" {
		merged.Name = "merged"
	}
	if len(merged.Schema) == 0 {
		merged.Schema = collectionB.Schema
	}

	merged.Records = make([]models.Record, 0, len(collectionA.Records)+len(collectionB.Records))
	merged.Records = append(merged.Records, collectionA.Records...)

	for _, record := range collectionB.Records {
		if !matchedBIDs[record.ID] {
			merged.Records = append(merged.Records, record)
		}
	}

	return merged
}

// DuplicateRow 完全重复的行对（按模式全字段标准化后相等）
type DuplicateRow struct {
	FirstIndex  int    `json:"first_index"`
	SecondIndex int    `json:"second_index"`
	FirstID     string `json:"first_id"`
	SecondID    string `json:"second_id"`
}

// CheckExactDuplicates 合并后诊断：检查是否残留字段完全相同的行
// 这是诊断项而不是正确性保证，字段不完全一致的近似重复不在检查范围内
func (m *Merger) CheckExactDuplicates(collection *models.RecordCollection) []DuplicateRow {
	seen := make(map[string]int, len(collection.Records))
	var duplicates []DuplicateRow

	for idx := range collection.Records {
		record := &collection.Records[idx]

		parts := make([]string, 0, len(collection.Schema))
		for _, field := range collection.Schema {
			parts = append(parts, m.converter.NormalizeString(record.GetField(field)))
		}
		fingerprint := strings.Join(parts, blockKeySeparator)

		if firstIdx, ok := seen[fingerprint]; ok {
			duplicates = append(duplicates, DuplicateRow{
				FirstIndex:  firstIdx,
				SecondIndex: idx,
				FirstID:     collection.Records[firstIdx].ID,
				SecondID:    record.ID,
			})
		} else {
			seen[fingerprint] = idx
		}
	}

	return duplicates
}
