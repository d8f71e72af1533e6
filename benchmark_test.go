package trace

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/monoview/trace/sink"
)

func benchTracer(b *testing.B, mode Mode) *Tracer {
	b.Helper()
	cfg := DefaultConfig()
	cfg.Mode = string(mode)
	tr, err := New(cfg, sink.NewWriter(io.Discard))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = tr.Shutdown() })
	return tr
}

// BenchmarkTracerSync measures a formatted record written on the calling goroutine
func BenchmarkTracerSync(b *testing.B) {
	tr := benchTracer(b, ModeSync)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Infof("benchmark message %d", i)
	}
}

// BenchmarkTracerAsync measures the producer side of async delivery
func BenchmarkTracerAsync(b *testing.B) {
	tr := benchTracer(b, ModeAsync)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Infof("benchmark message %d", i)
	}
	b.StopTimer()
	_ = tr.Flush(time.Second)
}

// BenchmarkTracerFiltered measures the cost of a record below the threshold
func BenchmarkTracerFiltered(b *testing.B) {
	tr := benchTracer(b, ModeSync)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Debugf("filtered message")
	}
}

// BenchmarkTracerLocation includes caller lookup for file, function and line
func BenchmarkTracerLocation(b *testing.B) {
	tr := benchTracer(b, ModeSync)
	tr.SetFlags(FlagAll)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Infof("benchmark message")
	}
}

// BenchmarkConcurrentTracing benchmarks the tracer's performance under concurrent load
func BenchmarkConcurrentTracing(b *testing.B) {
	for _, mode := range []Mode{ModeSync, ModeAsync} {
		b.Run(string(mode), func(b *testing.B) {
			tr := benchTracer(b, mode)

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					tr.Infof("concurrent message %d", i)
					i++
				}
			})
		})
	}
}

// BenchmarkZapSugar is a baseline against a widely used structured logger
func BenchmarkZapSugar(b *testing.B) {
	encCfg := zap.NewProductionEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(io.Discard), zapcore.InfoLevel)
	logger := zap.New(core).Sugar()
	defer logger.Sync()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Infof("benchmark message %d", i)
	}
}

// BenchmarkLogrus is a baseline against the classic printf-capable logger
func BenchmarkLogrus(b *testing.B) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Infof("benchmark message %d", i)
	}
}
