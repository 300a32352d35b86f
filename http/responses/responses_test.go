package responses_test

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xy-planning-network/trailhead/logger"
)

const browserAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func newLogger() *testLogger { return new(testLogger) }

func (tl *testLogger) Debug(msg string, _ *logger.LogContext) { tl.log("DEBUG", msg) }
func (tl *testLogger) Error(msg string, _ *logger.LogContext) { tl.log("ERROR", msg) }
func (tl *testLogger) Fatal(msg string, _ *logger.LogContext) { tl.log("FATAL", msg) }
func (tl *testLogger) Info(msg string, _ *logger.LogContext)  { tl.log("INFO", msg) }
func (tl *testLogger) Warn(msg string, _ *logger.LogContext)  { tl.log("WARN", msg) }
func (tl *testLogger) LogLevel() logger.LogLevel              { return logger.LogLevelDebug }

func (tl *testLogger) log(level, msg string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.lines = append(tl.lines, fmt.Sprintf("%s %s", level, msg))
}

func (tl *testLogger) String() string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return strings.Join(tl.lines, "\n")
}
