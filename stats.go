package staticzip

import (
	"sync"
	"sync/atomic"
)

// Stats holds serving statistics
type Stats struct {
	SiblingHits  int64
	CacheHits    int64
	Compressions int64
	Fallthroughs int64

	EncodeFailures     int64
	CacheWriteFailures int64

	BytesIn  int64 // original bytes handed to encoders
	BytesOut int64 // compressed bytes published to the cache

	AlgorithmCounts sync.Map // map[Algorithm]int64, served responses per algorithm
}

// GetAlgorithmCount returns the served-response count for an algorithm
func (s *Stats) GetAlgorithmCount(algo Algorithm) int64 {
	if val, ok := s.AlgorithmCounts.Load(algo); ok {
		return val.(int64)
	}
	return 0
}

// IncrementAlgorithmCount increments the count for a specific algorithm
func (s *Stats) IncrementAlgorithmCount(algo Algorithm) {
	val, _ := s.AlgorithmCounts.LoadOrStore(algo, int64(0))
	s.AlgorithmCounts.Store(algo, val.(int64)+1)
}

// CompressionRatio returns compressed output size over original
// input size across all on-the-fly compressions
func (s *Stats) CompressionRatio() float64 {
	in := atomic.LoadInt64(&s.BytesIn)
	if in == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&s.BytesOut)) / float64(in)
}
