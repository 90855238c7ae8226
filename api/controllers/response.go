package controllers

import "net/http"

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// SuccessResponse 成功响应
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
	}
}

// BadRequestResponse 请求参数错误响应
func BadRequestResponse(msg string, err error) *APIResponse {
	return errorResponse(http.StatusBadRequest, msg, err)
}

// NotFoundResponse 资源不存在响应
func NotFoundResponse(msg string, err error) *APIResponse {
	return errorResponse(http.StatusNotFound, msg, err)
}

// InternalErrorResponse 服务器内部错误响应
func InternalErrorResponse(msg string, err error) *APIResponse {
	return errorResponse(http.StatusInternalServerError, msg, err)
}

// errorResponse 构造错误响应，错误详情放入msg便于排查
func errorResponse(status int, msg string, err error) *APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &APIResponse{
		Status: status,
		Msg:    msg,
	}
}
