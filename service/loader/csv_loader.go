/*
 * @module service/loader/csv_loader
 * @description CSV加载器，将CSV文件解析为记录集合，属于流水线的外部协作者
 * @architecture 适配器模式 - 表格输入到内存记录集合的转换
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 文件读取 -> 编码转换 -> 表头解析 -> 逐行构建记录
 * @rules 表头行定义模式；记录ID在集合内必须唯一；支持GBK编码输入
 * @dependencies encoding/csv, golang.org/x/text, github.com/spf13/cast
 * @refs service/models/linkage.go, service/linkage/linkage_service.go
 */

package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"linkage-service/service/models"
	"linkage-service/service/utils"
)

// CSVLoadOptions CSV加载配置
type CSVLoadOptions struct {
	// 集合名称，为空时使用文件名
	Name string
	// 记录ID所在列名，默认 "id"
	IDColumn string
	// 输入编码：utf-8（默认）或 gbk
	Encoding string
	// 字段分隔符，默认逗号
	Comma rune
}

// CSVLoader CSV加载器
type CSVLoader struct {
	converter *utils.DataConverter
}

// NewCSVLoader 创建CSV加载器
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{
		converter: utils.NewDataConverter(),
	}
}

// LoadFile 从文件加载记录集合
func (l *CSVLoader) LoadFile(path string, opts CSVLoadOptions) (*models.RecordCollection, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开CSV文件失败: %w", err)
	}
	defer file.Close()

	if opts.Name == "" {
		opts.Name = path
	}

	return l.Load(file, opts)
}

// Load 从Reader加载记录集合
// 第一行为表头并定义集合模式，之后每行构建一条记录
func (l *CSVLoader) Load(r io.Reader, opts CSVLoadOptions) (*models.RecordCollection, error) {
	if strings.EqualFold(opts.Encoding, "gbk") || strings.EqualFold(opts.Encoding, "gb2312") {
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	}

	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV内容为空，缺少表头行")
	}
	if err != nil {
		return nil, fmt.Errorf("读取CSV表头失败: %w", err)
	}

	schema := make([]string, len(header))
	for i, column := range header {
		schema[i] = strings.TrimSpace(column)
	}

	idColumn := opts.IDColumn
	if idColumn == "" {
		idColumn = "id"
	}
	idIndex := -1
	for i, column := range schema {
		if column == idColumn {
			idIndex = i
			break
		}
	}
	if idIndex < 0 {
		return nil, fmt.Errorf("CSV表头中缺少ID列 %q", idColumn)
	}

	collection := &models.RecordCollection{
		Name:   opts.Name,
		Schema: schema,
	}

	seenIDs := make(map[string]bool)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取CSV第%d行失败: %w", line+1, err)
		}
		line++

		fields := make(map[string]interface{}, len(schema))
		for i, column := range schema {
			if i < len(row) {
				fields[column] = row[i]
			}
		}

		id := l.converter.ToString(fields[idColumn])
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("CSV第%d行记录ID为空", line)
		}
		if seenIDs[id] {
			// 记录ID要求在集合内唯一
			return nil, fmt.Errorf("CSV第%d行记录ID重复: %s", line, id)
		}
		seenIDs[id] = true

		collection.Records = append(collection.Records, models.Record{
			ID:     id,
			Fields: fields,
		})
	}

	return collection, nil
}
