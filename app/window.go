package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/sputnik-relay/ui/model"
	"github.com/soocke/sputnik-relay/ui/presenter"
	"github.com/soocke/sputnik-relay/ui/theme"
	"github.com/soocke/sputnik-relay/ui/view"
)

const tick = time.Millisecond

// window runs the controller from the Tk event loop so diagnostics render
// on the same goroutine that steps the mission.
type window struct {
	c       *Container
	width   int
	height  int
	afterID string
	loop    *presenter.Loop
	err     error
	closed  bool
}

// RunWindow shows the diagnostics window and steps the controller once per
// Tk tick until ESC, the close button, ctx cancellation or a capture
// failure. The container is closed before RunWindow returns.
func RunWindow(ctx context.Context, c *Container, title string, width, height int) error {
	w := &window{c: c, width: width, height: height}

	theme.SetDark(c.Config.UI.Dark)
	App.WmTitle(title)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))

	preview := &model.PreviewModel{}
	preview.SetEnabled(true)
	diag := &model.DiagnosticsModel{}
	sess := model.NewSessionModel()

	root := view.NewRootView(c.Logger)
	previewP := presenter.NewPreviewPresenter(preview, root)
	root.Build(previewP.Toggle, c.Controller.Stop)
	c.Controller.AddSink(presenter.NewDiagnosticsPresenter(diag, preview, root))
	sessionP := presenter.NewSessionPresenter(sess, diag, root)

	WmProtocol(App, "WM_DELETE_WINDOW", c.Controller.Stop)
	Bind(App, "<Escape>", Command(c.Controller.Stop))

	svcCtx, cancel := context.WithCancel(ctx)
	var g errgroup.Group
	c.startServices(svcCtx, &g)

	w.loop = presenter.NewLoop(
		func() error { return c.Controller.Step(ctx) },
		func() bool { return ctx.Err() != nil || c.Controller.Stopped() },
		sessionP,
		w.schedule,
		w.done,
	)
	c.Logger.Info("mission started", "ui", true, "link_open", c.Port != nil)
	w.schedule()
	App.Wait()

	cancel()
	svcErr := g.Wait()
	return errors.Join(w.err, svcErr, c.Close())
}

// schedule queues the next tick on Tk's event loop thread.
func (w *window) schedule() {
	w.afterID = TclAfter(tick, w.loop.Tick)
}

func (w *window) done(err error) {
	if w.closed {
		return
	}
	w.closed = true
	w.err = err
	if err != nil {
		w.c.Logger.Error("capture failed, ending mission", "error", err)
	} else {
		w.c.Logger.Info("mission stopped", "frames", w.c.Controller.State().FrameIndex)
	}
	if w.afterID != "" {
		TclAfterCancel(w.afterID)
	}
	Destroy(App)
}
