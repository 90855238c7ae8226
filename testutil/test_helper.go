/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 测试数据创建 -> 测试执行 -> 断言校验
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies testify, net/http/httptest
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"linkage-service/service/models"

	"github.com/stretchr/testify/assert"
)

// TestDataFactory 测试数据工厂
type TestDataFactory struct{}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

// RecordOption 记录选项函数类型
type RecordOption func(*models.Record)

// CreateRecord 创建测试记录
func (f *TestDataFactory) CreateRecord(id string, fields map[string]interface{}, opts ...RecordOption) models.Record {
	record := models.Record{
		ID:     id,
		Fields: fields,
	}

	for _, opt := range opts {
		opt(&record)
	}

	return record
}

// CreatePersonCollection 创建人员记录集合
// 包含常见的姓名、地区、出生日期字段，用于链接流水线测试
func (f *TestDataFactory) CreatePersonCollection(name string, records []models.Record) *models.RecordCollection {
	return &models.RecordCollection{
		Name:    name,
		Schema:  []string{"given_name", "surname", "region", "date_of_birth"},
		Records: records,
	}
}

// CreateMatchingPersonPair 创建一对同名人员集合
// 集合A与集合B各含一条记录，姓名与地区均可匹配
func (f *TestDataFactory) CreateMatchingPersonPair() (*models.RecordCollection, *models.RecordCollection) {
	a := f.CreatePersonCollection("hospital", []models.Record{
		{ID: "a1", Fields: map[string]interface{}{
			"given_name":    "Michaela",
			"surname":       "Neumann",
			"region":        "nsw",
			"date_of_birth": "19150210",
		}},
	})
	b := f.CreatePersonCollection("registry", []models.Record{
		{ID: "b1", Fields: map[string]interface{}{
			"given_name":    "Michaela",
			"surname":       "Neumann",
			"region":        "nsw",
			"date_of_birth": "19150210",
		}},
	})
	return a, b
}

// DefaultLinkageConfig 创建默认链接配置
// 在 region 上分块，姓名字段做编辑距离相似度比较
func (f *TestDataFactory) DefaultLinkageConfig() *models.LinkageConfig {
	threshold := 0.85
	return &models.LinkageConfig{
		BlockingKeys: []string{"region"},
		Comparators: []models.ComparatorConfig{
			{
				Label:     "given_name",
				FieldA:    "given_name",
				FieldB:    "given_name",
				Kind:      models.ComparatorStringSimilarity,
				Method:    models.MethodLevenshtein,
				Threshold: &threshold,
			},
			{
				Label:     "surname",
				FieldA:    "surname",
				FieldB:    "surname",
				Kind:      models.ComparatorStringSimilarity,
				Method:    models.MethodLevenshtein,
				Threshold: &threshold,
			},
			{
				Label:  "date_of_birth",
				FieldA: "date_of_birth",
				FieldB: "date_of_birth",
				Kind:   models.ComparatorExact,
			},
		},
		MatchRule: models.MatchRuleConfig{
			Type:  models.RuleSumThreshold,
			Value: 2.0,
		},
	}
}

// CreateLinkageTaskRequest 创建测试链接任务请求参数
func (f *TestDataFactory) CreateLinkageTaskRequest(trigger string) (string, *models.LinkageConfig) {
	return generateID("task"), f.DefaultLinkageConfig()
}

// 生成唯一ID
func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// HTTPTestHelper HTTP测试辅助器
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助器
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, url, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int) map[string]interface{} {
	assert.Equal(t, expectedStatus, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "响应体应为合法JSON")

	return response
}
