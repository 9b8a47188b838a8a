// Package benchmarks provides memory footprint benchmarks.
package benchmarks

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/comalice/loginflow"
	"github.com/comalice/loginflow/internal/core"
)

func BenchmarkMemoryFootprint(b *testing.B) {
	numStores := 1000
	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	stores := make([]*loginflow.LoginStore, numStores)
	for i := 0; i < numStores; i++ {
		s, err := loginflow.NewLoginStore(InstantService)
		if err != nil {
			b.Fatal(err)
		}
		stores[i] = s
	}
	runtime.GC()
	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	bytesPerStore := (after.TotalAlloc - before.TotalAlloc) / uint64(numStores)
	b.ReportMetric(float64(bytesPerStore)/1024, "KB/store")
}

func BenchmarkMemoryQueueSize(b *testing.B) {
	for _, n := range []int{10, 1000, 100000} {
		b.Run(fmt.Sprintf("queue=%d", n), func(b *testing.B) {
			numStores := 100
			var before runtime.MemStats
			runtime.ReadMemStats(&before)
			stores := make([]*loginflow.LoginStore, numStores)
			for i := 0; i < numStores; i++ {
				s, err := loginflow.NewLoginStore(InstantService,
					loginflow.WithStoreOptions(core.WithQueueSize[loginflow.LoginState](n)))
				if err != nil {
					b.Fatal(err)
				}
				stores[i] = s
			}
			runtime.GC()
			var after runtime.MemStats
			runtime.ReadMemStats(&after)
			bytesPerStore := (after.TotalAlloc - before.TotalAlloc) / uint64(numStores)
			b.ReportMetric(float64(bytesPerStore)/1024, "KB/store")
		})
	}
}

// BenchmarkMemoryRunning counts the goroutines and heap of started stores
// with a pending login each.
func BenchmarkMemoryRunning(b *testing.B) {
	numStores := 100
	goroutinesBefore := runtime.NumGoroutine()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	stores := make([]*loginflow.LoginStore, numStores)
	for i := range stores {
		stores[i] = NewStartedStore(b.Fatal, LatentService(time.Minute), loginflow.WithInitialState(loginflow.LoginState{
			Username: "john",
			Password: "password",
			CanLogin: true,
		}))
		if err := stores[i].Send(loginflow.Commands.Login.Create()); err != nil {
			b.Fatal(err)
		}
	}
	time.Sleep(50 * time.Millisecond)
	runtime.GC()
	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	goroutines := runtime.NumGoroutine() - goroutinesBefore
	for _, s := range stores {
		_ = s.Stop()
	}
	b.ReportMetric(float64(goroutines)/float64(numStores), "goroutines/store")
	b.ReportMetric(float64(int64(after.HeapAlloc)-int64(before.HeapAlloc))/float64(numStores)/1024, "KB/store")
}
