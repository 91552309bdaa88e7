package streaming

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/helioforge/terrastream/internal/engine/noise"
	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/pkg/geom"
)

// ErrUnknownRequest is returned by GetLoadedTile for an ID that was never
// issued, was cancelled, or was already consumed.
var ErrUnknownRequest = errors.New("unknown or already consumed request")

// Config controls the streaming manager.
type Config struct {
	MaxFrameTimeMs      float64 `yaml:"max_frame_time_ms"`
	MaxTilesPerFrame    int     `yaml:"max_tiles_per_frame"`
	MaxCacheSize        int     `yaml:"max_cache_size"`
	UseBackgroundThread bool    `yaml:"use_background_thread"`
	NumWorkerThreads    int     `yaml:"num_worker_threads"`
	MaxPendingRequests  int     `yaml:"max_pending_requests"`
}

// DefaultConfig returns streaming settings tuned for a 60 Hz update loop.
func DefaultConfig() Config {
	return Config{
		MaxFrameTimeMs:      4,
		MaxTilesPerFrame:    8,
		MaxCacheSize:        256,
		UseBackgroundThread: true,
		NumWorkerThreads:    4,
		MaxPendingRequests:  64,
	}
}

// Stats holds streaming counters. AverageLoadTimeMs covers generation time
// of successfully completed requests.
type Stats struct {
	TotalRequests     int64
	CompletedRequests int64
	FailedRequests    int64
	CacheHits         int64
	CacheMisses       int64
	AverageLoadTimeMs float64
}

// Manager owns the worker pool, the request queues and the tile cache.
//
// All exported methods must be called from the same goroutine (the game's
// update loop). The pending and completed queues are the only structures
// shared with workers.
type Manager struct {
	cfg Config
	log *zap.Logger

	pending   *pendingQueue
	completed *completedQueue
	cache     *tileCache
	pool      *workerPool

	active  map[RequestID]*Request
	nextID  RequestID
	running bool

	currentTime float64 // advanced by Update, seconds

	stats       Stats
	totalLoadMs float64

	// inline generation memo for non-threaded mode
	inlineCfg    terrain.GenerationConfig
	inlineFields *noise.Fields
}

// NewManager creates a streaming manager. Pass nil for logger to disable
// logging.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		cfg: cfg,
		log: log,
	}
	m.reset()
	return m
}

// reset clears all queues, caches and statistics.
func (m *Manager) reset() {
	m.pending = newPendingQueue()
	m.completed = newCompletedQueue()
	m.cache = newTileCache(m.cfg.MaxCacheSize)
	m.active = make(map[RequestID]*Request)
	m.nextID = 0
	m.currentTime = 0
	m.stats = Stats{}
	m.totalLoadMs = 0
	m.pool = newWorkerPool(m.pending, m.completed)
}

// Start launches the background workers when threading is enabled. Safe to
// call on a non-threaded manager; it is a no-op there.
func (m *Manager) Start() {
	if m.running || !m.cfg.UseBackgroundThread {
		return
	}
	n := m.cfg.NumWorkerThreads
	if n < 1 {
		n = 1
	}
	m.pool.start(n)
	m.running = true
	m.log.Info("streaming workers started", zap.Int("workers", n))
}

// Stop halts the workers. In-flight generation completes; its results stay
// queued and are discarded or consumed as usual.
func (m *Manager) Stop() {
	if !m.running {
		return
	}
	m.pool.halt()
	m.running = false
	m.log.Info("streaming workers stopped")
}

// RequestTileLoad submits a tile load and returns its request ID, or
// InvalidRequestID when the active-request table is at capacity.
//
// A cache hit synthesizes an already-complete request: no queueing, the
// tile is available on the next GetLoadedTile call.
func (m *Manager) RequestTileLoad(pos geom.Vec2, size float32, lod, resolution int, genCfg terrain.GenerationConfig, priority Priority, viewer geom.Vec3) RequestID {
	m.stats.TotalRequests++

	if tile, ok := m.cache.get(cacheKey(pos, lod)); ok {
		m.stats.CacheHits++
		id := m.nextID
		m.nextID++
		m.active[id] = &Request{
			ID:          id,
			Position:    pos,
			Size:        size,
			LODLevel:    lod,
			Resolution:  resolution,
			Priority:    priority,
			RequestedAt: m.currentTime,
			Complete:    true,
			Tile:        tile,
		}
		return id
	}
	m.stats.CacheMisses++

	if len(m.active) >= m.cfg.MaxPendingRequests {
		m.log.Warn("tile load refused: request table full",
			zap.Int("active", len(m.active)),
			zap.Int("max", m.cfg.MaxPendingRequests))
		return InvalidRequestID
	}

	id := m.nextID
	m.nextID++
	req := &Request{
		ID:          id,
		Position:    pos,
		Size:        size,
		LODLevel:    lod,
		Resolution:  resolution,
		GenConfig:   genCfg,
		Priority:    priority,
		Distance:    pos.Distance(viewer.XY()),
		RequestedAt: m.currentTime,
	}
	m.active[id] = req

	if m.cfg.UseBackgroundThread {
		m.pending.push(req)
	} else {
		// Non-threaded mode: generate now, deliver through the completed
		// queue so consumption still goes through the frame budget.
		m.completed.push(generateTile(req, m.inlineFieldsFor(genCfg)))
	}
	return id
}

func (m *Manager) inlineFieldsFor(cfg terrain.GenerationConfig) *noise.Fields {
	if m.inlineFields == nil || cfg.Seed != m.inlineCfg.Seed || cfg.Octaves != m.inlineCfg.Octaves ||
		cfg.Persistence != m.inlineCfg.Persistence || cfg.Lacunarity != m.inlineCfg.Lacunarity {
		m.inlineFields = noise.NewFields(cfg.Seed, cfg.Octaves, cfg.Persistence, cfg.Lacunarity)
		m.inlineCfg = cfg
	}
	return m.inlineFields
}

// IsTileReady reports whether the request has completed (successfully or
// not). Unknown IDs return false.
func (m *Manager) IsTileReady(id RequestID) bool {
	req, ok := m.active[id]
	return ok && req.Complete
}

// GetLoadedTile returns the generated tile for a completed request and
// removes it from the active table; each request can be consumed once.
// A failed generation returns its error; an unknown or not-yet-complete ID
// returns ErrUnknownRequest.
func (m *Manager) GetLoadedTile(id RequestID) (*terrain.TileData, error) {
	req, ok := m.active[id]
	if !ok || !req.Complete {
		return nil, ErrUnknownRequest
	}
	delete(m.active, id)
	if req.Err != nil {
		return nil, req.Err
	}
	return req.Tile, nil
}

// CancelRequest removes the request from the active table. Best-effort: a
// worker already generating the tile finishes, and its orphaned result is
// discarded during ProcessCompletedRequests.
func (m *Manager) CancelRequest(id RequestID) bool {
	if _, ok := m.active[id]; !ok {
		return false
	}
	delete(m.active, id)
	return true
}

// Update advances the manager clock and drains completed results within the
// configured frame budget.
func (m *Manager) Update(deltaTime float64) {
	m.currentTime += deltaTime
	m.ProcessCompletedRequests(m.cfg.MaxFrameTimeMs)
}

// ProcessCompletedRequests consumes worker results until the queue is empty,
// maxTilesPerFrame items were handled, or maxTimeMs elapsed. An item popped
// after the budget ran out is pushed back to the queue head, so overflow
// carries into the next frame instead of spiking this one.
func (m *Manager) ProcessCompletedRequests(maxTimeMs float64) {
	start := time.Now()
	processed := 0

	for processed < m.cfg.MaxTilesPerFrame {
		res := m.completed.pop()
		if res == nil {
			return
		}
		if elapsed := float64(time.Since(start).Microseconds()) / 1000; elapsed > maxTimeMs {
			m.completed.pushFront(res)
			return
		}

		m.applyResult(res)
		processed++
	}
}

// applyResult moves a worker result into the active-request table and, on
// success, the cache.
func (m *Manager) applyResult(res *result) {
	req, ok := m.active[res.id]
	if !ok {
		// Cancelled while in flight; discard.
		return
	}

	req.Complete = true
	if res.err != nil {
		req.Err = res.err
		m.stats.FailedRequests++
		m.log.Error("tile generation failed",
			zap.Int64("request", int64(res.id)),
			zap.Float32("x", req.Position.X),
			zap.Float32("y", req.Position.Y),
			zap.Int("lod", req.LODLevel),
			zap.Error(res.err))
		return
	}

	req.Tile = res.tile
	m.stats.CompletedRequests++
	m.totalLoadMs += res.durationMs
	m.cache.add(cacheKey(req.Position, req.LODLevel), res.tile)
}

// Stats returns a snapshot of the streaming counters.
func (m *Manager) Stats() Stats {
	s := m.stats
	if s.CompletedRequests > 0 {
		s.AverageLoadTimeMs = m.totalLoadMs / float64(s.CompletedRequests)
	}
	return s
}

// CacheSize returns the number of cached tiles.
func (m *Manager) CacheSize() int {
	return m.cache.len()
}

// ActiveRequestCount returns the number of requests not yet consumed.
func (m *Manager) ActiveRequestCount() int {
	return len(m.active)
}

// PendingCount returns the number of requests waiting for a worker.
func (m *Manager) PendingCount() int {
	return m.pending.len()
}
