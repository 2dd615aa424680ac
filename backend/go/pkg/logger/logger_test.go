package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"

	"pdf-collab/backend/go/internal/models"

	"github.com/sirupsen/logrus"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	Init(logrus.InfoLevel)
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(os.Stdout) })
	return &buf
}

// 同一个 Logger 实例会被多个请求共享, With* 必须返回派生实例而不是
// 修改接收者, 否则一条日志的附加字段会泄漏到后续所有日志中。
func TestWithErrorDoesNotMutateReceiver(t *testing.T) {
	buf := captureOutput(t)
	l := New("test_service", "", "")

	l.WithError(models.ErrorInfo{Message: "boom"}).Error("操作失败")
	l.Info("routine info")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	var first, second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line is not JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("second line is not JSON: %v", err)
	}

	if _, ok := first["error"]; !ok {
		t.Errorf("error line should carry the error field")
	}
	if _, ok := second["error"]; ok {
		t.Errorf("plain Info after WithError must not inherit the error field: %s", lines[1])
	}
}

func TestWithPayloadReturnsDerivedLogger(t *testing.T) {
	captureOutput(t)
	l := New("test_service", "", "")

	derived := l.WithPayload(map[string]interface{}{"k": "v"})
	if derived == l {
		t.Fatalf("WithPayload must return a new instance")
	}
	if l.entry.Data["payload"] != nil {
		t.Errorf("receiver must stay untouched")
	}
}

// 并发地从共享实例派生并写日志。在 -race 下运行时验证 With* 不再
// 写接收者字段。
func TestConcurrentLoggingIsRaceFree(t *testing.T) {
	captureOutput(t)
	l := New("test_service", "", "")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.WithError(models.ErrorInfo{Message: "boom"}).Error("并发错误")
				l.WithPayload(map[string]interface{}{"n": j}).Info("并发信息")
			}
		}()
	}
	wg.Wait()
}
