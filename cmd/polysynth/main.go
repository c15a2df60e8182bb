// Command polysynth is the graphical front end: the physical keyboard plays
// notes, letter keys toggle engines and effects, the mouse edits the step
// pattern, and the oscilloscope draws the rendered output.
package main

import (
	"fmt"
	"image/color"
	"log"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	polysynth "github.com/telleri/polysynth-go"
	"github.com/telleri/polysynth-go/internal/drums"
	"github.com/telleri/polysynth-go/internal/notes"
	"github.com/telleri/polysynth-go/internal/state"
)

const (
	sampleRate = 48000
	windowW    = 800
	windowH    = 480

	scopeX, scopeY = 20, 40
	scopeW, scopeH = 760, 160

	stepX, stepY = 20, 230
	stepCell     = 44
	stepGap      = 4
	stepH        = 36
)

var (
	bgColor      = color.RGBA{18, 20, 28, 255}
	panelColor   = color.RGBA{30, 34, 46, 255}
	traceColor   = color.RGBA{120, 220, 160, 255}
	stepOffColor = color.RGBA{50, 56, 72, 255}
	stepOnColor  = color.RGBA{90, 140, 220, 255}
	stepNowColor = color.RGBA{230, 200, 90, 255}
)

// keyNotes is the playable layout: home row white keys from C4, the row
// above for black keys.
var keyNotes = map[ebiten.Key]string{
	ebiten.KeyA:         "C4",
	ebiten.KeyW:         "C#4",
	ebiten.KeyS:         "D4",
	ebiten.KeyE:         "D#4",
	ebiten.KeyD:         "E4",
	ebiten.KeyF:         "F4",
	ebiten.KeyT:         "F#4",
	ebiten.KeyG:         "G4",
	ebiten.KeyY:         "G#4",
	ebiten.KeyH:         "A4",
	ebiten.KeyU:         "A#4",
	ebiten.KeyJ:         "B4",
	ebiten.KeyK:         "C5",
	ebiten.KeyO:         "C#5",
	ebiten.KeyL:         "D5",
	ebiten.KeyP:         "D#5",
	ebiten.KeySemicolon: "E5",
}

type game struct {
	synth *polysynth.Synth
	msgs  <-chan string
	held  map[ebiten.Key]string

	stepMu  sync.Mutex
	curStep int

	message string
	msgTTL  int
}

func newGame() (*game, error) {
	g := &game{held: map[ebiten.Key]string{}, curStep: -1}
	synth, err := polysynth.New(sampleRate, polysynth.WithStepCallback(g.onStep))
	if err != nil {
		return nil, err
	}
	g.synth = synth
	g.msgs = synth.Messages()
	return g, nil
}

// onStep runs on the sequencer goroutine; just record the cursor.
func (g *game) onStep(step int, _ bool) {
	g.stepMu.Lock()
	g.curStep = step
	g.stepMu.Unlock()
}

func (g *game) Update() error {
	g.drainMessages()

	pressed := inpututil.AppendJustPressedKeys(nil)
	clicked := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	if len(pressed) > 0 || clicked {
		// First gesture starts the audio stream; later calls no-op.
		g.synth.InitAudioEngine()
	}

	g.handleNoteKeys()
	g.handleControlKeys(pressed)
	if clicked {
		g.handleStepClick(ebiten.CursorPosition())
	}
	return nil
}

func (g *game) drainMessages() {
	for {
		select {
		case m := <-g.msgs:
			g.message = m
			g.msgTTL = 150
		default:
			if g.msgTTL > 0 {
				g.msgTTL--
				if g.msgTTL == 0 {
					g.message = ""
				}
			}
			return
		}
	}
}

func (g *game) handleNoteKeys() {
	for key, note := range keyNotes {
		if inpututil.IsKeyJustPressed(key) {
			if g.synth.ArpeggiatorRunning() {
				g.synth.AddToArp(note)
				continue
			}
			if id, ok := g.synth.PlayNote(note); ok && id != "" {
				g.held[key] = id
			}
		}
		if inpututil.IsKeyJustReleased(key) {
			if g.synth.ArpeggiatorRunning() {
				g.synth.RemoveFromArp(note)
				continue
			}
			if id, ok := g.held[key]; ok {
				g.synth.StopNote(id, false)
				delete(g.held, key)
			}
		}
	}
}

func (g *game) handleControlKeys(pressed []ebiten.Key) {
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	st := g.synth.Settings()

	for _, key := range pressed {
		switch key {
		case ebiten.KeyTab:
			g.synth.SetEngine((st.Engine + 1) % 3)
		case ebiten.KeyQ:
			g.synth.SetWaveform(nextIn(notes.Waveforms, st.Sub.Waveform))
		case ebiten.KeyI:
			algs := []string{
				string(state.FMSimple), string(state.FMParallel),
				string(state.FMSeries), string(state.FMFeedback),
			}
			g.synth.SetFMAlgorithm(state.FMAlgorithm(nextIn(algs, string(st.FM.Algorithm))))
		case ebiten.KeyR:
			g.synth.SetKit(nextIn(drums.KitNames, st.Drum.Kit))
		case ebiten.KeyZ:
			g.synth.ToggleEffect(polysynth.EffectReverb)
		case ebiten.KeyX:
			g.synth.ToggleEffect(polysynth.EffectDelay)
		case ebiten.KeyC:
			g.synth.ToggleEffect(polysynth.EffectDistortion)
		case ebiten.KeyV:
			g.synth.SetHold(!st.Global.Hold)
		case ebiten.KeyB:
			g.synth.SetMono(!st.Global.Mono)
		case ebiten.KeyN:
			if g.synth.ArpeggiatorRunning() {
				g.synth.StopArpeggiator()
			} else {
				g.synth.StartArpeggiator()
			}
		case ebiten.KeyM:
			if st.Global.Dir == state.ArpUp {
				g.synth.SetArpDirection(state.ArpDown)
			} else {
				g.synth.SetArpDirection(state.ArpUp)
			}
		case ebiten.KeySpace:
			if g.synth.SequencerRunning() {
				g.synth.StopSequencer()
			} else {
				g.synth.StartSequencer()
			}
		case ebiten.KeyArrowUp:
			g.synth.SetTempo(st.Global.Tempo + 5)
		case ebiten.KeyArrowDown:
			g.synth.SetTempo(st.Global.Tempo - 5)
		case ebiten.KeyArrowRight:
			g.synth.SetFader(st.Global.Cutoff + 200)
		case ebiten.KeyArrowLeft:
			g.synth.SetFader(st.Global.Cutoff - 200)
		case ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4:
			slot := int(key - ebiten.KeyDigit1)
			if shift {
				g.synth.SavePreset(slot)
			} else {
				g.synth.LoadPreset(slot)
			}
		case ebiten.KeyEscape:
			g.synth.StopAllNotes(true)
		}
	}
}

func nextIn(list []string, cur string) string {
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

func (g *game) handleStepClick(mx, my int) {
	if my < stepY || my > stepY+stepH {
		return
	}
	for i := 0; i < polysynth.SequencerSteps; i++ {
		x := stepX + i*(stepCell+stepGap)
		if mx >= x && mx < x+stepCell {
			g.synth.ToggleStep(i)
			return
		}
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	g.drawScope(screen)
	g.drawSteps(screen)
	g.drawPanel(screen)
}

func (g *game) drawScope(screen *ebiten.Image) {
	ebitenutil.DrawRect(screen, scopeX, scopeY, scopeW, scopeH, panelColor)
	samples := g.synth.Waveform(scopeW)
	mid := float64(scopeY + scopeH/2)
	for x, s := range samples {
		h := float64(s) * float64(scopeH) / 2
		if h < 0 {
			h = -h
		}
		if h < 1 {
			h = 1
		}
		y := mid
		if s > 0 {
			y = mid - h
		}
		ebitenutil.DrawRect(screen, float64(scopeX+x), y, 1, h, traceColor)
	}
}

func (g *game) drawSteps(screen *ebiten.Image) {
	pattern := g.synth.Pattern()
	g.stepMu.Lock()
	cur := g.curStep
	g.stepMu.Unlock()
	for i, on := range pattern {
		x := float64(stepX + i*(stepCell+stepGap))
		col := stepOffColor
		if on {
			col = stepOnColor
		}
		if i == cur {
			col = stepNowColor
		}
		ebitenutil.DrawRect(screen, x, stepY, stepCell, stepH, col)
	}
}

func (g *game) drawPanel(screen *ebiten.Image) {
	st := g.synth.Settings()
	flags := []string{}
	if st.Global.Reverb {
		flags = append(flags, "REV")
	}
	if st.Global.Delay {
		flags = append(flags, "DLY")
	}
	if st.Global.Distortion {
		flags = append(flags, "DST")
	}
	if st.Global.Hold {
		flags = append(flags, "HOLD")
	}
	if st.Global.Mono {
		flags = append(flags, "MONO")
	}
	if g.synth.ArpeggiatorRunning() {
		flags = append(flags, "ARP:"+string(st.Global.Dir))
	}

	line1 := fmt.Sprintf("engine:%s  wave:%s  fm:%s  kit:%s", st.Engine, st.Sub.Waveform, st.FM.Algorithm, st.Drum.Kit)
	line2 := fmt.Sprintf("cutoff:%.0fHz  tempo:%.0f  poly:%d  %s", st.Global.Cutoff, st.Global.Tempo, st.Global.Polyphony, strings.Join(flags, " "))
	ebitenutil.DebugPrintAt(screen, line1, 20, 290)
	ebitenutil.DebugPrintAt(screen, line2, 20, 308)

	if hit, ok := g.synth.LastDrumHit(); ok {
		ebitenutil.DebugPrintAt(screen, "drum: "+string(hit.Instrument), 20, 326)
	}
	if g.message != "" {
		ebitenutil.DebugPrintAt(screen, g.message, 20, 352)
	}

	help := "a..; play | tab engine | q wave | i fm-alg | r kit | z/x/c fx | v hold | b mono | n arp | m dir\n" +
		"space seq | click steps | arrows tempo/fader | 1-4 load, shift+1-4 save | esc panic"
	ebitenutil.DebugPrintAt(screen, help, 20, windowH-46)
}

func (g *game) Layout(int, int) (int, int) {
	return windowW, windowH
}

func main() {
	g, err := newGame()
	if err != nil {
		log.Fatal(err)
	}
	defer g.synth.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("polysynth")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
