package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"SPX-VAL/internal/fields"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrSuperseded is returned by a render that a newer request for the same
// view replaced before it finished.
var ErrSuperseded = errors.New("preview superseded by a newer request")

type Result struct {
	Root    *html.Node
	Markers []*Marker
}

// HTML serializes the rendered tree.
func (r *Result) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, r.Root); err != nil {
		return "", fmt.Errorf("failed to serialize preview: %w", err)
	}
	return buf.String(), nil
}

type job struct {
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Previewer runs render-then-highlight with at most one live job per view.
type Previewer struct {
	renderer Renderer
	logger   *zap.Logger

	mu       sync.Mutex
	inflight map[string]*job
}

func NewPreviewer(renderer Renderer, logger *zap.Logger) *Previewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Previewer{
		renderer: renderer,
		logger:   logger.With(zap.String("component", "previewer")),
		inflight: make(map[string]*job),
	}
}

// Preview renders pkg and highlights changes. view identifies the document
// being shown; a second call for the same view cancels the first, which
// then returns ErrSuperseded without producing highlights.
func (p *Previewer) Preview(ctx context.Context, view string, pkg []byte, changes fields.ChangeSet, onClick ClickFunc) (*Result, error) {
	jobCtx, cancel := context.WithCancel(ctx)
	current := &job{cancel: cancel}

	p.mu.Lock()
	if prev, ok := p.inflight[view]; ok {
		prev.cancelled.Store(true)
		prev.cancel()
	}
	p.inflight[view] = current
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.inflight[view] == current {
			delete(p.inflight, view)
		}
		p.mu.Unlock()
		cancel()
	}()

	root, err := p.renderer.Render(jobCtx, pkg)
	if current.cancelled.Load() {
		p.logger.Debug("preview discarded", zap.String("view", view))
		return nil, ErrSuperseded
	}
	if err != nil {
		p.logger.Warn("preview render failed", zap.String("view", view), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	markers := Highlight(root, changes, onClick)
	p.logger.Debug("preview rendered",
		zap.String("view", view),
		zap.Int("changes", changes.Len()),
		zap.Int("markers", len(markers)))

	return &Result{Root: root, Markers: markers}, nil
}

// Cancel abandons any in-flight render for view.
func (p *Previewer) Cancel(view string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.inflight[view]; ok {
		prev.cancelled.Store(true)
		prev.cancel()
		delete(p.inflight, view)
	}
}
