package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "bizledger"

// NewLogger 初始化 Zap Logger
// 根据环境不同（Dev/Prod/Test）输出不同格式
func NewLogger(mode string) (*zap.Logger, error) {
	var config zap.Config

	switch mode {
	case "test":
		// 测试环境：不输出
		return zap.NewNop(), nil
	case "debug":
		// 开发环境：控制台彩色输出，人类可读
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		// 生产环境：JSON 输出，机器可读 (ELK)
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := config.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return logger, nil
}
