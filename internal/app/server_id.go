package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateServerID 生成进程实例ID，写入发布的快照消息
// 优先使用环境变量SERVER_ID，否则生成UUID
func GenerateServerID(appName string) string {
	if serverID := os.Getenv("SERVER_ID"); serverID != "" {
		return serverID
	}
	if appName == "" {
		appName = "mc3000d"
	}

	// 格式：{app}-{hostname}-{uuid前8位}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("%s-%s-%s", appName, hostname, shortUUID)
}
