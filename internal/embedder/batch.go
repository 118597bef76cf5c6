package embedder

import (
	"context"
	"sync"
)

// BatchResult pairs an input index with its embedding or error.
type BatchResult struct {
	Index  int
	Vector []float32
	Err    error
}

// BatchEmbed embeds every text in texts using a bounded pool of workers,
// joining before it returns so callers never proceed to the next cell
// decision with embeddings still in flight. Results are returned in input
// order.
func BatchEmbed(ctx context.Context, p Provider, texts []string, workers int) []BatchResult {
	if workers <= 0 {
		workers = 1
	}
	results := make([]BatchResult, len(texts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vec, err := p.Embed(ctx, texts[i])
				results[i] = BatchResult{Index: i, Vector: vec, Err: err}
			}
		}()
	}

	for i := range texts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
