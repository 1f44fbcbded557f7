package plugin

// Logger Hook 실행 중 발생한 에러를 기록하는 로거
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NopLogger 아무것도 기록하지 않는 로거
type NopLogger struct{}

func (NopLogger) Debug(_ string, _ ...interface{}) {}
func (NopLogger) Info(_ string, _ ...interface{})  {}
func (NopLogger) Warn(_ string, _ ...interface{})  {}
func (NopLogger) Error(_ string, _ ...interface{}) {}
