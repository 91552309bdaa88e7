package streaming

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helioforge/terrastream/internal/engine/noise"
	"github.com/helioforge/terrastream/internal/engine/terrain"
)

// idlePoll is how long a worker sleeps when the pending queue is empty.
const idlePoll = time.Millisecond

// workerPool runs tile generation on background goroutines. Workers pull
// from the shared pending queue and push results to the completed queue;
// they never touch the cache or the active-request table.
type workerPool struct {
	pending   *pendingQueue
	completed *completedQueue
	stop      atomic.Bool
	wg        sync.WaitGroup
}

func newWorkerPool(pending *pendingQueue, completed *completedQueue) *workerPool {
	return &workerPool{
		pending:   pending,
		completed: completed,
	}
}

func (p *workerPool) start(n int) {
	p.stop.Store(false)
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// halt stops all workers and waits for them to finish their current tile.
func (p *workerPool) halt() {
	p.stop.Store(true)
	p.wg.Wait()
}

func (p *workerPool) run() {
	defer p.wg.Done()

	// Per-worker noise field memo: requests in a session almost always
	// share one generation config, and rebuilding permutation tables per
	// tile would dominate generation cost.
	var memoCfg terrain.GenerationConfig
	var memoFields *noise.Fields

	fieldsFor := func(cfg terrain.GenerationConfig) *noise.Fields {
		if memoFields == nil || cfg.Seed != memoCfg.Seed || cfg.Octaves != memoCfg.Octaves ||
			cfg.Persistence != memoCfg.Persistence || cfg.Lacunarity != memoCfg.Lacunarity {
			memoFields = noise.NewFields(cfg.Seed, cfg.Octaves, cfg.Persistence, cfg.Lacunarity)
			memoCfg = cfg
		}
		return memoFields
	}

	for !p.stop.Load() {
		req := p.pending.pop()
		if req == nil {
			time.Sleep(idlePoll)
			continue
		}
		p.completed.push(generateTile(req, fieldsFor(req.GenConfig)))
	}
}

// generateTile runs one generation and converts any panic into a failed
// result, so a malformed config can never take down a worker loop.
func generateTile(req *Request, fields *noise.Fields) (res *result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = &result{
				id:         req.ID,
				err:        fmt.Errorf("tile generation panicked: %v", r),
				durationMs: float64(time.Since(start).Microseconds()) / 1000,
			}
		}
	}()

	tile, err := terrain.GenerateEnhanced(req.Position, req.Size, req.LODLevel, req.Resolution, req.GenConfig, fields)
	return &result{
		id:         req.ID,
		tile:       tile,
		err:        err,
		durationMs: float64(time.Since(start).Microseconds()) / 1000,
	}
}
