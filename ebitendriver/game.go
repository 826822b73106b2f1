// Package ebitendriver runs a match inside an ebiten window, one tick per
// frame, and shows the tail of each player's debug log.
package ebitendriver

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/plus3/tickbox/match"
	"github.com/plus3/tickbox/state"
)

const (
	ScreenWidth  = 640
	ScreenHeight = 480

	tailLines = 8
)

// Game implements ebiten.Game for a single match.
type Game struct {
	Match *match.Match

	// Quit reports whether the user asked to close the window.
	Quit func() bool

	result *match.Result
}

func NewGame(m *match.Match) *Game {
	return &Game{
		Match: m,
		Quit: func() bool {
			return ebiten.IsKeyPressed(ebiten.KeyQ) || ebiten.IsKeyPressed(ebiten.KeyEscape)
		},
	}
}

// Run opens the window and blocks until the match ends or the window closes.
// It returns the match result, which is UNDEFINED if the window was closed
// early.
func (g *Game) Run() (*match.Result, error) {
	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle("tickbox - " + g.Match.ID())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		return nil, err
	}
	return g.Result(), nil
}

func (g *Game) Update() error {
	if g.Quit != nil && g.Quit() {
		return ebiten.Termination
	}
	if g.Match.Done() {
		g.result = g.Match.Result()
		return ebiten.Termination
	}
	return g.Match.Step()
}

func (g *Game) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, g.Text())
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

// Result returns the final result once Update has seen the match finish,
// otherwise the match's current (UNDEFINED) result.
func (g *Game) Result() *match.Result {
	if g.result != nil {
		return g.result
	}
	return g.Match.Result()
}

// Text is the overlay drawn each frame.
func (g *Game) Text() string {
	var b strings.Builder
	cfg := g.Match.Config()
	fmt.Fprintf(&b, "match %s  tick %d/%d  TPS %.0f\n", g.Match.ID(), g.Match.Tick(), cfg.Ticks, ebiten.ActualTPS())

	for i, p := range state.Players {
		fmt.Fprintf(&b, "\n[%s]\n", p)
		for _, line := range g.Match.PlayerLog(i).Tail(tailLines) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	if g.result != nil {
		fmt.Fprintf(&b, "\n%s\n", g.result)
	}
	return b.String()
}
