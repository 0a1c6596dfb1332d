package log

import (
	"bytes"

	"go.uber.org/zap/zaptest"
)

// testSink 将日志逐行转发到 t.Logf，failOnWrite 为 true 时任何写入都会让测试失败。
type testSink struct {
	t           zaptest.TestingT
	failOnWrite bool
}

func (s testSink) failing() testSink {
	s.failOnWrite = true
	return s
}

func (s testSink) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		s.t.Logf("%s", line)
	}
	if s.failOnWrite {
		s.t.Fail()
	}
	return len(p), nil
}

func (testSink) Sync() error { return nil }
