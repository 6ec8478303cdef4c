// Package ui drives the interactive editing session. It implements the
// Ebiten game loop that presents the board surface with the circular
// magnifier on top, draws a small HUD strip below it, and turns pointer
// and keyboard input into paint requests against the sync controller.
package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/go-pixelcanvas/internal/client"
	"github.com/opd-ai/go-pixelcanvas/internal/grid"
	"github.com/opd-ai/go-pixelcanvas/internal/render"
)

// ErrGameTerminated is returned when the game loop is terminated via context cancellation.
var ErrGameTerminated = errors.New("game terminated")

// ErrorHandler is a function type for handling errors during game updates.
type ErrorHandler func(err error)

// DefaultErrorHandler writes errors to stderr.
func DefaultErrorHandler(err error) {
	fmt.Fprintf(os.Stderr, "update error: %v\n", err)
}

// TextRendererInterface defines the interface for text rendering.
// This allows for mocking in tests.
type TextRendererInterface interface {
	DrawText(screen *ebiten.Image, textStr string, x, y float64, clr color.RGBA)
	MeasureText(textStr string) (width, height float64)
	LineHeight() float64
	SetFontSize(size float64)
	FontSize() float64
}

// Session is the slice of the sync controller the game loop needs:
// HUD statistics, paint submission, and the local cooldown readout.
type Session interface {
	Data() client.Snapshot
	Paint(ctx context.Context, cell grid.Cell, colorHex string) (client.PaintResult, error)
	CanPaint(now time.Time) bool
	CooldownRemaining(now time.Time) int
}

// Config carries the presentation settings for one editing session.
type Config struct {
	// Title is the window title.
	Title string
	// Palette lists the selectable colors in canonical #RRGGBB form.
	// The digit keys 1 through 9 select entries in order.
	Palette []string
	// CooldownSeconds scales the cooldown bar until the first stats
	// refresh reports the store's authoritative value.
	CooldownSeconds int
	// ExportDir is where PNG snapshots are written. Defaults to the
	// working directory.
	ExportDir string
}

// HUD strip geometry, in pixels below the board surface.
const (
	hudHeight  = 64
	hudPad     = 8
	swatchSize = 20
	swatchGap  = 6
	barTop     = 36
	barHeight  = 10
	statusTop  = 47

	noticeDuration = 4 * time.Second
)

var (
	hudBackground = color.RGBA{R: 24, G: 24, B: 32, A: 255}
	hudText       = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	noticeText    = color.RGBA{R: 255, G: 196, B: 0, A: 255}
	swatchBorder  = color.RGBA{R: 90, G: 90, B: 100, A: 255}
	selectionRing = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	cooldownFill  = color.RGBA{R: 255, G: 140, B: 0, A: 255}
)

// Game implements ebiten.Game. One instance is constructed per
// application lifecycle and owns the board presentation, the magnifier
// lens state, and the HUD.
type Game struct {
	cfg     Config
	session Session
	model   *grid.Grid
	board   *render.Board
	lens    *render.Magnifier

	textRenderer  TextRendererInterface
	input         InputSource
	errorHandler  ErrorHandler
	frameObserver func()
	ctx           context.Context

	// swatches holds the parsed palette colors, index-aligned with
	// cfg.Palette. selected indexes both.
	swatches []color.RGBA
	selected int

	cooldownBar   *ProgressBar
	cooldownTotal int
	cooldownText  string
	cooldownX     float64
	statusText    string

	// frame caches the uploaded surface. It is re-uploaded only when
	// the board generation moves or the lens is (or just was) visible.
	frame     *ebiten.Image
	frameGen  uint64
	lensShown bool

	notice      string
	noticeUntil time.Time

	lastTick time.Time
	running  bool
	mu       sync.RWMutex
}

// New creates a Game presenting the given board and magnifier, painting
// through session into model. The palette must hold at least one
// parseable color.
func New(session Session, model *grid.Grid, board *render.Board, lens *render.Magnifier, cfg Config) (*Game, error) {
	if session == nil {
		return nil, errors.New("session must not be nil")
	}
	if model == nil {
		return nil, errors.New("grid must not be nil")
	}
	if board == nil {
		return nil, errors.New("board must not be nil")
	}
	if lens == nil {
		return nil, errors.New("magnifier must not be nil")
	}
	if len(cfg.Palette) == 0 {
		return nil, errors.New("palette must not be empty")
	}
	swatches := make([]color.RGBA, len(cfg.Palette))
	for i, entry := range cfg.Palette {
		clr, err := grid.ParseColor(entry)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i+1, err)
		}
		swatches[i] = clr
	}
	if cfg.Title == "" {
		cfg.Title = "pixel canvas"
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}
	if cfg.CooldownSeconds < 0 {
		cfg.CooldownSeconds = 0
	}

	boardW, boardH := board.Size()
	barWidth := float64(boardW) - 2*hudPad
	if barWidth > 200 {
		barWidth = 200
	}
	if barWidth < 10 {
		barWidth = 10
	}
	bar := NewProgressBar(hudPad, float64(boardH)+barTop, barWidth, barHeight)
	style := DefaultWidgetStyle()
	style.FillColor = cooldownFill
	bar.SetStyle(style)

	total := cfg.CooldownSeconds
	if total < 1 {
		total = 1
	}
	bar.SetRange(0, float64(total))

	return &Game{
		cfg:           cfg,
		session:       session,
		model:         model,
		board:         board,
		lens:          lens,
		textRenderer:  NewTextRenderer(),
		input:         ebitenInput{},
		errorHandler:  DefaultErrorHandler,
		swatches:      swatches,
		cooldownBar:   bar,
		cooldownTotal: cfg.CooldownSeconds,
		cooldownX:     hudPad + barWidth + hudPad,
		cooldownText:  "ready",
	}, nil
}

// SetErrorHandler sets a custom error handler for update errors.
// Passing nil restores the default stderr handler.
func (g *Game) SetErrorHandler(handler ErrorHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if handler == nil {
		handler = DefaultErrorHandler
	}
	g.errorHandler = handler
}

// SetTextRenderer replaces the text renderer. This is useful for testing.
func (g *Game) SetTextRenderer(tr TextRendererInterface) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tr != nil {
		g.textRenderer = tr
	}
}

// SetInputSource replaces the input source. This is useful for testing.
func (g *Game) SetInputSource(in InputSource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if in != nil {
		g.input = in
	}
}

// SetContext sets a context for the game loop. When the context is
// cancelled, the game loop terminates gracefully.
func (g *Game) SetContext(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctx = ctx
}

// SetFrameObserver installs a callback invoked once per presented
// frame, for frame accounting. The callback must not block.
func (g *Game) SetFrameObserver(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frameObserver = fn
}

// SelectedColor returns the palette entry the next paint will use.
func (g *Game) SelectedColor() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg.Palette[g.selected]
}

// SetPalette replaces the selectable colors while the session runs.
// The whole set is validated first; one bad entry rejects the change
// and keeps the current palette. The selection survives when its index
// still exists, otherwise it resets to the first entry.
func (g *Game) SetPalette(entries []string) error {
	if len(entries) == 0 {
		return errors.New("palette must not be empty")
	}
	swatches := make([]color.RGBA, len(entries))
	for i, entry := range entries {
		clr, err := grid.ParseColor(entry)
		if err != nil {
			return fmt.Errorf("palette entry %d: %w", i+1, err)
		}
		swatches[i] = clr
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.Palette = append([]string(nil), entries...)
	g.swatches = swatches
	if g.selected >= len(swatches) {
		g.selected = 0
	}
	return nil
}

// SetMagnifierStrategy switches how lens content is produced. Takes
// effect the next frame the lens is visible.
func (g *Game) SetMagnifierStrategy(s render.Strategy) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lens.SetStrategy(s)
}

// Update implements ebiten.Game.Update.
// It is called every tick (typically 60 times per second).
func (g *Game) Update() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Check for context cancellation (used for programmatic shutdown)
	if g.ctx != nil {
		select {
		case <-g.ctx.Done():
			return ErrGameTerminated
		default:
		}
	}

	now := time.Now()

	// Refresh the HUD readouts once a second.
	if now.Sub(g.lastTick) >= time.Second {
		g.lastTick = now
		g.refreshReadouts(now)
	}

	if g.notice != "" && now.After(g.noticeUntil) {
		g.notice = ""
	}

	// Catch the surface up with the grid. Covers both the initial bulk
	// load and the local echo after a confirmed paint.
	if g.model.Generation() != g.board.Generation() {
		if err := g.board.RedrawAll(g.model); err != nil {
			g.errorHandler(fmt.Errorf("redraw: %w", err))
		}
	}

	px, py := g.input.CursorPosition()

	// The lens follows the cursor only while M is held and the pointer
	// stays on the board surface.
	if g.input.MagnifierHeld() && g.onSurface(px, py) {
		if g.lens.Active() {
			g.lens.Move(px, py)
		} else {
			g.lens.Activate(px, py)
		}
	} else if g.lens.Active() {
		g.lens.Deactivate()
	}

	if g.input.StrategyToggled() {
		g.lens.ToggleStrategy()
	}

	if d := g.input.PaletteDigit(); d >= 1 && d <= len(g.swatches) {
		g.selected = d - 1
	}

	if g.input.ExportPressed() {
		g.exportPNG(now)
	}

	if g.input.PaintClicked() {
		g.handleClick(px, py, now)
	}

	return nil
}

// onSurface reports whether a pointer position lies on the board.
func (g *Game) onSurface(px, py int) bool {
	w, h := g.board.Size()
	return px >= 0 && px < w && py >= 0 && py < h
}

// refreshReadouts recomputes the cooldown bar and the status line from
// the controller snapshot. Caller holds g.mu.
func (g *Game) refreshReadouts(now time.Time) {
	snap := g.session.Data()
	if snap.Stats.CooldownSeconds > 0 {
		g.cooldownTotal = snap.Stats.CooldownSeconds
	}
	total := g.cooldownTotal
	if total < 1 {
		total = 1
	}
	remaining := g.session.CooldownRemaining(now)
	g.cooldownBar.SetRange(0, float64(total))
	g.cooldownBar.SetValue(float64(remaining))
	if remaining > 0 {
		g.cooldownText = fmt.Sprintf("%ds", remaining)
	} else {
		g.cooldownText = "ready"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, fmt.Sprintf("%d painted", snap.Stats.TotalPainted))
	if snap.User.TotalPlaced > 0 {
		parts = append(parts, fmt.Sprintf("you %d", snap.User.TotalPlaced))
	}
	if snap.LastSync.IsZero() {
		parts = append(parts, "syncing")
	} else {
		age := int(now.Sub(snap.LastSync).Seconds())
		if age < 0 {
			age = 0
		}
		parts = append(parts, fmt.Sprintf("sync %ds ago", age))
	}
	g.statusText = strings.Join(parts, " | ")
}

// handleClick resolves a click to a cell and submits the paint without
// blocking the game loop. Clicks outside the grid are ignored; a running
// cooldown is reported as a notice instead of a request. Caller holds g.mu.
func (g *Game) handleClick(px, py int, now time.Time) {
	cell, ok := g.board.Mapper().ScreenToCell(px, py)
	if !ok {
		return
	}
	if !g.session.CanPaint(now) {
		g.setNotice(fmt.Sprintf("cooldown: %ds left", g.session.CooldownRemaining(now)), now)
		return
	}
	colorHex := g.cfg.Palette[g.selected]
	ctx := g.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		result, err := g.session.Paint(ctx, cell, colorHex)
		g.finishPaint(cell, result, err)
	}()
}

// finishPaint posts the outcome of an asynchronous paint as a notice.
// Rejections and cooldowns are user feedback; only transport faults and
// unexpected errors reach the error handler.
func (g *Game) finishPaint(cell grid.Cell, _ client.PaintResult, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()

	if err == nil {
		g.setNotice(fmt.Sprintf("painted (%d, %d)", cell.X, cell.Y), now)
		g.refreshReadouts(now)
		return
	}

	var rateLimit *client.RateLimitError
	var rejection *client.RejectionError
	var transport *client.TransportError
	switch {
	case errors.Is(err, grid.ErrOutOfBounds):
		// Stale mapper race; the click resolved to a cell the store
		// does not have. Nothing useful to tell the user.
	case errors.Is(err, client.ErrCooldownActive):
		g.setNotice(fmt.Sprintf("cooldown: %ds left", g.session.CooldownRemaining(now)), now)
	case errors.As(err, &rateLimit):
		g.setNotice(fmt.Sprintf("cooldown: %ds left", rateLimit.Remaining), now)
	case errors.As(err, &rejection):
		g.setNotice("rejected: "+rejection.Message, now)
	case errors.As(err, &transport):
		g.setNotice("store unreachable, try again", now)
		g.errorHandler(err)
	default:
		g.setNotice("paint failed", now)
		g.errorHandler(err)
	}
}

// setNotice replaces the transient HUD notice. Caller holds g.mu.
func (g *Game) setNotice(msg string, now time.Time) {
	g.notice = msg
	g.noticeUntil = now.Add(noticeDuration)
}

// exportPNG writes a timestamped snapshot of the board surface.
// Caller holds g.mu.
func (g *Game) exportPNG(now time.Time) {
	name := fmt.Sprintf("canvas-%s.png", now.Format("20060102-150405"))
	f, err := os.Create(filepath.Join(g.cfg.ExportDir, name))
	if err != nil {
		g.errorHandler(fmt.Errorf("export: %w", err))
		g.setNotice("export failed", now)
		return
	}
	err = g.board.WritePNG(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		g.errorHandler(fmt.Errorf("export: %w", err))
		g.setNotice("export failed", now)
		return
	}
	g.setNotice("saved "+name, now)
}

// Draw implements ebiten.Game.Draw.
// It is called every frame to render the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.presentBoard(screen)
	g.drawHUD(screen)
	if g.frameObserver != nil {
		g.frameObserver()
	}
}

// presentBoard uploads the current frame to the GPU when needed and
// blits it. While the lens is visible every frame is composed fresh so
// it tracks the cursor; otherwise the cached upload is reused until the
// board generation moves. Caller holds g.mu.
func (g *Game) presentBoard(screen *ebiten.Image) {
	active := g.lens.Active()
	gen := g.board.Generation()
	if g.frame == nil || gen != g.frameGen || active || g.lensShown {
		var src image.Image
		if active {
			frame, frameGen, err := g.lens.Frame(g.board, g.model)
			if err != nil {
				g.errorHandler(fmt.Errorf("magnifier: %w", err))
				src = g.board.Image()
			} else {
				src = frame
				gen = frameGen
			}
		} else {
			src = g.board.Image()
		}
		g.uploadFrame(src)
		g.frameGen = gen
		g.lensShown = active
	}
	screen.DrawImage(g.frame, nil)
}

// uploadFrame pushes pixels into the cached GPU image, reallocating
// only when the shape changes.
func (g *Game) uploadFrame(src image.Image) {
	if rgba, ok := src.(*image.RGBA); ok && g.frame != nil {
		b := rgba.Bounds()
		w, h := g.frame.Bounds().Dx(), g.frame.Bounds().Dy()
		if b.Min.X == 0 && b.Min.Y == 0 && b.Dx() == w && b.Dy() == h && rgba.Stride == 4*w {
			g.frame.WritePixels(rgba.Pix)
			return
		}
	}
	g.frame = ebiten.NewImageFromImage(src)
}

// drawHUD renders the strip below the board: palette swatches, the
// cooldown bar, and the status line. A transient notice replaces the
// status line while it lasts. Caller holds g.mu.
func (g *Game) drawHUD(screen *ebiten.Image) {
	boardW, boardH := g.board.Size()
	top := float64(boardH)

	vector.DrawFilledRect(screen, 0, float32(top), float32(boardW), hudHeight, hudBackground, false)

	for i, clr := range g.swatches {
		x := float32(hudPad + i*(swatchSize+swatchGap))
		y := float32(top) + hudPad
		vector.DrawFilledRect(screen, x, y, swatchSize, swatchSize, clr, false)
		if i == g.selected {
			vector.StrokeRect(screen, x-1, y-1, swatchSize+2, swatchSize+2, 2, selectionRing, false)
		} else {
			vector.StrokeRect(screen, x, y, swatchSize, swatchSize, 1, swatchBorder, false)
		}
	}

	g.cooldownBar.Draw(screen)
	g.textRenderer.DrawText(screen, g.cooldownText, g.cooldownX, top+barTop-2, hudText)

	line := g.statusText
	clr := hudText
	if g.notice != "" {
		line = g.notice
		clr = noticeText
	}
	g.textRenderer.DrawText(screen, line, hudPad, top+statusTop, clr)
}

// Layout implements ebiten.Game.Layout.
// The logical screen is the board surface plus the HUD strip.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.board.Size()
	return w, h + hudHeight
}

// Run starts the Ebiten game loop.
// This function blocks until the window is closed.
func (g *Game) Run() error {
	w, h := g.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	err := ebiten.RunGame(g)

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()

	return err
}

// IsRunning returns whether the game loop is currently running.
func (g *Game) IsRunning() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.running
}
