package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateServerID 生成服务实例ID
// 优先使用环境变量 SERVER_ID，否则为 cec-server-{hostname}-{uuid前8位}
func GenerateServerID() string {
	if serverID := os.Getenv("SERVER_ID"); serverID != "" {
		return serverID
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("cec-server-%s-%s", hostname, uuid.New().String()[:8])
}
