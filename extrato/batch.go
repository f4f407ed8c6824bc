package extrato

// =============================================================================
// BATCH EXECUTOR - Fixed-size, fail-fast chunking
// =============================================================================

// DefaultBatchSize is used when the configured batch size is missing or
// invalid.
const DefaultBatchSize = 100

// NormalizeBatchSize replaces non-positive sizes with the default.
func NormalizeBatchSize(size int) int {
	if size <= 0 {
		return DefaultBatchSize
	}
	return size
}

// ForEachBatch slices items into consecutive chunks of at most size and
// invokes fn on each. The first error stops iteration immediately and is
// returned unwrapped; remaining chunks are not processed. Each call
// iterates from the start and holds no cross-call state.
func ForEachBatch[T any](items []T, size int, fn func(batch []T) error) error {
	size = NormalizeBatchSize(size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		if err := fn(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}
