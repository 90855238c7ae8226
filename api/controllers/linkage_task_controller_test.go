/*
 * @module api/controllers/linkage_task_controller_test
 * @description 链接任务控制器单元测试
 * @architecture 测试层
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 确保任务API的错误码语义：404任务不存在、400参数错误
 * @dependencies testing, net/http/httptest, stretchr/testify, testutil
 */

package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkage-service/service/linkage"
	"linkage-service/service/models"
	"linkage-service/service/record_linkage"
	"linkage-service/service/scheduler"
	"linkage-service/testutil"
)

func newTestTaskController() (*LinkageTaskController, *linkage.LinkageService) {
	linkageService := linkage.NewLinkageService(record_linkage.NewLinkageEngine(2), nil)
	schedulerService := scheduler.NewSchedulerService(linkageService)
	return NewLinkageTaskController(linkageService, schedulerService), linkageService
}

// withURLParam 注入chi路由参数
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestLinkageTaskController_CreateTask(t *testing.T) {
	controller, _ := newTestTaskController()
	factory := testutil.NewTestDataFactory()
	helper := testutil.NewHTTPTestHelper()

	collectionA, collectionB := factory.CreateMatchingPersonPair()

	req, err := helper.CreateJSONRequest(http.MethodPost, "/linkage/tasks",
		&linkage.CreateLinkageTaskRequest{
			TaskName: "病历去重任务",
			SourceA:  models.SourceSpec{Inline: collectionA},
			SourceB:  models.SourceSpec{Inline: collectionB},
			Config:   *factory.DefaultLinkageConfig(),
		})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	controller.CreateTask(w, req)

	response := helper.AssertJSONResponse(t, w, http.StatusOK)
	assert.Equal(t, float64(0), response["status"])

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "manual", data["trigger_type"])
	assert.Equal(t, "active", data["status"])
}

func TestLinkageTaskController_CreateTask_BadTrigger(t *testing.T) {
	controller, _ := newTestTaskController()
	helper := testutil.NewHTTPTestHelper()

	req, err := helper.CreateJSONRequest(http.MethodPost, "/linkage/tasks",
		&linkage.CreateLinkageTaskRequest{
			TaskName:    "坏调度",
			TriggerType: "hourly",
		})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	controller.CreateTask(w, req)

	response := helper.AssertJSONResponse(t, w, http.StatusOK)
	assert.Equal(t, float64(http.StatusBadRequest), response["status"])
}

func TestLinkageTaskController_GetTask_NotFound(t *testing.T) {
	controller, _ := newTestTaskController()
	helper := testutil.NewHTTPTestHelper()

	req := httptest.NewRequest(http.MethodGet, "/linkage/tasks/missing", nil)
	req = withURLParam(req, "id", "missing")

	w := httptest.NewRecorder()
	controller.GetTask(w, req)

	response := helper.AssertJSONResponse(t, w, http.StatusOK)
	assert.Equal(t, float64(http.StatusNotFound), response["status"])
}

func TestLinkageTaskController_ExecuteTask(t *testing.T) {
	controller, linkageService := newTestTaskController()
	factory := testutil.NewTestDataFactory()
	helper := testutil.NewHTTPTestHelper()

	collectionA, collectionB := factory.CreateMatchingPersonPair()
	task, err := linkageService.CreateTask(&linkage.CreateLinkageTaskRequest{
		TaskName: "立即执行",
		SourceA:  models.SourceSpec{Inline: collectionA},
		SourceB:  models.SourceSpec{Inline: collectionB},
		Config:   *factory.DefaultLinkageConfig(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/linkage/tasks/"+task.ID+"/execute", nil)
	req = withURLParam(req, "id", task.ID)

	w := httptest.NewRecorder()
	controller.ExecuteTask(w, req)

	response := helper.AssertJSONResponse(t, w, http.StatusOK)
	assert.Equal(t, float64(0), response["status"])

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, float64(1), data["matched_pair_count"])
}

func TestLinkageTaskController_DeleteTask(t *testing.T) {
	controller, linkageService := newTestTaskController()
	factory := testutil.NewTestDataFactory()
	helper := testutil.NewHTTPTestHelper()

	task, err := linkageService.CreateTask(&linkage.CreateLinkageTaskRequest{
		TaskName: "待删除",
		Config:   *factory.DefaultLinkageConfig(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/linkage/tasks/"+task.ID, nil)
	req = withURLParam(req, "id", task.ID)

	w := httptest.NewRecorder()
	controller.DeleteTask(w, req)

	response := helper.AssertJSONResponse(t, w, http.StatusOK)
	assert.Equal(t, float64(0), response["status"])

	_, err = linkageService.GetTask(task.ID)
	assert.ErrorIs(t, err, linkage.ErrTaskNotFound)
}
