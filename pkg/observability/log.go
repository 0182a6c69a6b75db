package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log lines.
// The CLI installs it when verbose logging is enabled.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to l, or to log.Default() when l is nil.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{Logger: l}
}

// Install registers h for all hook categories.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnGenerateStart(_ context.Context, template string, labels int) {
	h.Logger.Debug("generate start", "template", template, "labels", labels)
}

func (h *LogHooks) OnPageRendered(_ context.Context, page, occupied int) {
	h.Logger.Debug("page rendered", "page", page, "occupied", occupied)
}

func (h *LogHooks) OnGenerateComplete(_ context.Context, pages int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("generate failed", "pages", pages, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("generate done", "pages", pages, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, tier string) {
	h.Logger.Debug("cache hit", "tier", tier)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, tier string) {
	h.Logger.Debug("cache miss", "tier", tier)
}

func (h *LogHooks) OnCacheSet(_ context.Context, tier string, size int) {
	h.Logger.Debug("cache set", "tier", tier, "bytes", size)
}

func (h *LogHooks) OnCacheEvict(_ context.Context, tier, reason string, count int) {
	h.Logger.Debug("cache evict", "tier", tier, "reason", reason, "count", count)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
