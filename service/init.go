/*
 * @module service/init
 * @description 服务初始化模块，负责日志、链接引擎、调度器等初始化工作
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/record_linkage_design.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务；不初始化任何持久化存储
 * @refs main.go, service/linkage/linkage_service.go
 */

package service

import (
	"log"
	"os"
	"strconv"

	"linkage-service/logger"
	"linkage-service/service/linkage"
	"linkage-service/service/monitoring"
	"linkage-service/service/record_linkage"
	"linkage-service/service/scheduler"
)

var (
	GlobalLinkageService   *linkage.LinkageService
	GlobalSchedulerService *scheduler.SchedulerService
	GlobalMetricsCollector *monitoring.MetricsCollector
)

func init() {
	logger.InitLogger()
	initServices()
}

// initServices 初始化所有服务
func initServices() {
	workers := 0
	if val := os.Getenv("COMPARISON_WORKERS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			workers = parsed
		}
	}

	engine := record_linkage.NewLinkageEngine(workers)

	GlobalMetricsCollector = monitoring.NewMetricsCollector()
	GlobalLinkageService = linkage.NewLinkageService(engine, GlobalMetricsCollector)
	GlobalSchedulerService = scheduler.NewSchedulerService(GlobalLinkageService)

	if err := GlobalSchedulerService.Start(); err != nil {
		log.Fatalf("启动调度器失败: %v", err)
	}
}
