package labelmask

import (
	"time"

	"github.com/pixtag/labelmask/history"
	"github.com/pixtag/labelmask/present"
)

type options struct {
	presenter     present.Presenter
	flushInterval time.Duration
	tileSize      int
	history       *history.Stack
}

func defaultOptions() options {
	return options{
		flushInterval: DefaultFlushInterval,
		tileSize:      DefaultTileSize,
	}
}

// Option configures a Session.
type Option func(*options)

// WithPresenter sets the display backend overlay pushes go to. Without
// one the session runs headless: masks and overlays are maintained, but
// nothing is shown.
func WithPresenter(p present.Presenter) Option {
	return func(o *options) { o.presenter = p }
}

// WithFlushInterval overrides the display push throttle interval.
// Values <= 0 select DefaultFlushInterval.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) { o.flushInterval = d }
}

// WithTileSize overrides the undo snapshot tile edge length.
// Values <= 0 select DefaultTileSize.
func WithTileSize(n int) Option {
	return func(o *options) { o.tileSize = n }
}

// WithHistory attaches an undo stack; finished strokes are pushed onto
// it automatically.
func WithHistory(h *history.Stack) Option {
	return func(o *options) { o.history = h }
}
