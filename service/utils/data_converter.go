/*
 * @module data_converter
 * @description 数据转换工具模块，负责值的松散类型转换、字符串标准化和编码转换
 * @architecture 工具函数模式，提供无状态转换方法集合
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 无状态转换：输入 -> 转换逻辑 -> 输出
 * @rules
 *   - 转换失败返回零值而不是panic，比较器按"缺失即不匹配"处理
 *   - 标准化规则（去空白+小写）在分块和比较之间保持一致
 *   - 编码转换支持GBK/GB2312字符集
 * @dependencies
 *   - github.com/spf13/cast: 松散类型转换
 *   - golang.org/x/text: 编码转换
 * @refs
 *   - service/record_linkage/*: 记录链接引擎
 *   - service/loader/csv_loader.go: CSV加载器
 */

package utils

import (
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DataConverter 数据转换器
type DataConverter struct{}

// NewDataConverter 创建新的数据转换器实例
func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// ToString 转换为字符串，nil 返回空字符串
func (dc *DataConverter) ToString(value interface{}) string {
	if value == nil {
		return ""
	}
	return cast.ToString(value)
}

// ToFloat 转换为浮点数
func (dc *DataConverter) ToFloat(value interface{}) (float64, error) {
	return cast.ToFloat64E(value)
}

// NormalizeString 字符串标准化：去除首尾空白并转换为小写
// 分块键和精确比较共用同一套标准化规则
func (dc *DataConverter) NormalizeString(value interface{}) string {
	return strings.ToLower(strings.TrimSpace(dc.ToString(value)))
}

// IsMissing 判断值是否缺失（nil 或标准化后为空字符串）
func (dc *DataConverter) IsMissing(value interface{}) bool {
	if value == nil {
		return true
	}
	return dc.NormalizeString(value) == ""
}

// ConvertGBKToUTF8 GBK/GB2312 到 UTF-8
func (dc *DataConverter) ConvertGBKToUTF8(data []byte) ([]byte, error) {
	decoder := simplifiedchinese.GBK.NewDecoder()
	result, _, err := transform.Bytes(decoder, data)
	return result, err
}

// ConvertUTF8ToGBK UTF-8 到 GBK/GB2312
func (dc *DataConverter) ConvertUTF8ToGBK(data []byte) ([]byte, error) {
	encoder := simplifiedchinese.GBK.NewEncoder()
	result, _, err := transform.Bytes(encoder, data)
	return result, err
}
