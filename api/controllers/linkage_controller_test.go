/*
 * @module api/controllers/linkage_controller_test
 * @description 记录链接控制器单元测试
 * @architecture 测试层
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 确保链接API的正确性和错误码语义
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkage-service/service/linkage"
	"linkage-service/service/models"
	"linkage-service/service/record_linkage"
)

func newTestLinkageController() *LinkageController {
	engine := record_linkage.NewLinkageEngine(2)
	return NewLinkageController(linkage.NewLinkageService(engine, nil))
}

func testCollection(name string, ids []string) *models.RecordCollection {
	records := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, models.Record{
			ID: id,
			Fields: map[string]interface{}{
				"name":   "michaela neumann",
				"region": "nsw",
			},
		})
	}
	return &models.RecordCollection{
		Name:    name,
		Schema:  []string{"name", "region"},
		Records: records,
	}
}

func testRunRequest() *record_linkage.LinkageRequest {
	return &record_linkage.LinkageRequest{
		CollectionA: testCollection("A", []string{"a1"}),
		CollectionB: testCollection("B", []string{"b1", "b2"}),
		Config: models.LinkageConfig{
			BlockingKeys: []string{"region"},
			Comparators: []models.ComparatorConfig{
				{Label: "name", FieldA: "name", FieldB: "name", Kind: models.ComparatorExact},
			},
			MatchRule: models.MatchRuleConfig{
				Type:  models.RuleSumThreshold,
				Value: 1.0,
			},
		},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, url string, body interface{}) (*httptest.ResponseRecorder, *APIResponse) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return w, &response
}

func TestLinkageController_RunLinkage(t *testing.T) {
	controller := newTestLinkageController()

	w, response := postJSON(t, controller.RunLinkage, "/linkage/run", testRunRequest())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, response.Status)
	require.NotNil(t, response.Data)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "success", data["status"])

	result, ok := data["result"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), result["candidate_pair_count"])
	assert.Equal(t, float64(2), result["matched_pair_count"])

	merged, ok := result["merged_collection"].(map[string]interface{})
	require.True(t, ok)
	records, ok := merged["records"].([]interface{})
	require.True(t, ok)
	assert.Len(t, records, 1)
}

func TestLinkageController_RunLinkage_MissingCollections(t *testing.T) {
	controller := newTestLinkageController()

	_, response := postJSON(t, controller.RunLinkage, "/linkage/run",
		&record_linkage.LinkageRequest{})

	assert.Equal(t, http.StatusBadRequest, response.Status)
}

func TestLinkageController_RunLinkage_ConfigError(t *testing.T) {
	controller := newTestLinkageController()

	req := testRunRequest()
	req.Config.BlockingKeys = []string{"postcode"}

	_, response := postJSON(t, controller.RunLinkage, "/linkage/run", req)

	assert.Equal(t, http.StatusBadRequest, response.Status)
	assert.Contains(t, response.Msg, "链接配置错误")
}

func TestLinkageController_PreviewCandidates(t *testing.T) {
	controller := newTestLinkageController()

	_, response := postJSON(t, controller.PreviewCandidates, "/linkage/preview-candidates",
		&PreviewCandidatesRequest{
			CollectionA:  testCollection("A", []string{"a1"}),
			CollectionB:  testCollection("B", []string{"b1"}),
			BlockingKeys: []string{"region"},
		})

	assert.Equal(t, 0, response.Status)
	require.NotNil(t, response.Data)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	pairs, ok := data["pairs"].([]interface{})
	require.True(t, ok)
	assert.Len(t, pairs, 1)
}

func TestLinkageController_PreviewCandidates_BadBlockingKey(t *testing.T) {
	controller := newTestLinkageController()

	_, response := postJSON(t, controller.PreviewCandidates, "/linkage/preview-candidates",
		&PreviewCandidatesRequest{
			CollectionA:  testCollection("A", []string{"a1"}),
			CollectionB:  testCollection("B", []string{"b1"}),
			BlockingKeys: []string{"postcode"},
		})

	assert.Equal(t, http.StatusBadRequest, response.Status)
}

func TestLinkageController_ComputeFeatureTable(t *testing.T) {
	controller := newTestLinkageController()

	_, response := postJSON(t, controller.ComputeFeatureTable, "/linkage/feature-table",
		testRunRequest())

	assert.Equal(t, 0, response.Status)
	require.NotNil(t, response.Data)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	table, ok := data["feature_table"].(map[string]interface{})
	require.True(t, ok)
	rows, ok := table["rows"].([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, 2)
}
