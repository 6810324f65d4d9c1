package metrics

import (
	"testing"
	"time"

	"mercator-hq/loadext/pkg/loadext"

	"github.com/prometheus/client_golang/prometheus"
)

func Benchmark_Collector_LoadObserved(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	ext := loadext.Extension{Path: "/usr/lib/sqlite3/vec0.so"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.LoadObserved(ext, nil)
	}
}

func Benchmark_Collector_LoadObserved_Parallel(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	ext := loadext.Extension{Path: "/usr/lib/sqlite3/vec0.so"}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			collector.LoadObserved(ext, nil)
		}
	})
}

func Benchmark_Collector_BatchObserved(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.BatchObserved(2, time.Millisecond, nil)
	}
}
