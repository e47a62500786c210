package logging

import (
	"context"

	"github.com/ledgerline/bankledger/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	logger *zap.Logger
}

type ctxFieldsKey struct{}

func NewZapLogger(cfg *config.Config) (*ZapLogger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.Level(cfg.LogLevel))
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: logger}, nil
}

// WithContextFields stores zap fields in the context. Every *Ctx logging call
// appends them, so per-request or per-worker fields travel with the context.
func (l *ZapLogger) WithContextFields(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxFieldsKey{}, append(l.contextFields(ctx), fields...))
}

func (l *ZapLogger) contextFields(ctx context.Context) []zap.Field {
	fields, ok := ctx.Value(ctxFieldsKey{}).([]zap.Field)
	if !ok {
		return []zap.Field{}
	}

	return fields
}

func (l *ZapLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Debug(msg, append(l.contextFields(ctx), fields...)...)
}

func (l *ZapLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Info(msg, append(l.contextFields(ctx), fields...)...)
}

func (l *ZapLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Warn(msg, append(l.contextFields(ctx), fields...)...)
}

func (l *ZapLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Error(msg, append(l.contextFields(ctx), fields...)...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
