// Command polysynth-cli drives the synthesizer from a line-editing REPL:
// play notes, tweak parameters, toggle effects, and run the sequencer
// without a graphical front end.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	polysynth "github.com/telleri/polysynth-go"
	"github.com/telleri/polysynth-go/internal/state"
)

const sampleRate = 48000

type command struct {
	name  string
	usage string
	run   func(*polysynth.Synth, []string) error
	arity int // -n means len(args) must be >= n
}

var commands = []command{
	{"play", "play <note>... e.g. play C4 E4 G4", playCommand, -1},
	{"stop", "stop", stopCommand, 0},
	{"engine", "engine <subtractive|fm|drum>", engineCommand, 1},
	{"wave", "wave <sine|square|sawtooth|triangle>", waveCommand, 1},
	{"adsr", "adsr <attack> <decay> <sustain> <release>", adsrCommand, 4},
	{"cutoff", "cutoff <hz>", cutoffCommand, 1},
	{"lfo", "lfo <rateHz> <depthHz>", lfoCommand, 2},
	{"poly", "poly <voices>", polyCommand, 1},
	{"fx", "fx <reverb|delay|distortion>", fxCommand, 1},
	{"hold", "hold <on|off>", holdCommand, 1},
	{"mono", "mono <on|off>", monoCommand, 1},
	{"arp", "arp <on|off>", arpCommand, 1},
	{"arpdir", "arpdir <up|down>", arpdirCommand, 1},
	{"fmalg", "fmalg <simple|parallel|series|feedback>", fmalgCommand, 1},
	{"ratio", "ratio <n>", ratioCommand, 1},
	{"index", "index <n>", indexCommand, 1},
	{"kit", "kit <analog|punch|boom|tight>", kitCommand, 1},
	{"tempo", "tempo <bpm>", tempoCommand, 1},
	{"step", "step <1..16>... toggles pattern steps", stepCommand, -1},
	{"seq", "seq <on|off>", seqCommand, 1},
	{"save", "save <1..4>", saveCommand, 1},
	{"load", "load <1..4>", loadCommand, 1},
	{"notes", "notes", notesCommand, 0},
}

func main() {
	synth, err := polysynth.New(sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	defer synth.Close()

	msgs := synth.Messages()
	go func() {
		for m := range msgs {
			fmt.Println("* " + m)
		}
	}()

	synth.InitAudioEngine()

	rl, err := readline.New("> ")
	if err != nil {
		log.Fatal(err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		if fields[0] == "help" {
			for _, cmd := range commands {
				fmt.Println("  " + cmd.usage)
			}
			continue
		}
		if err := eval(synth, fields[0], fields[1:]); err != nil {
			fmt.Println(err)
		}
	}
}

func eval(s *polysynth.Synth, name string, args []string) error {
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			if len(args) < -cmd.arity {
				return fmt.Errorf("usage: %s", cmd.usage)
			}
		} else if len(args) != cmd.arity {
			return fmt.Errorf("usage: %s", cmd.usage)
		}
		return cmd.run(s, args)
	}
	return fmt.Errorf("unknown command: %s (try help)", name)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", s)
	}
	return v, nil
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %s", s)
}

func playCommand(s *polysynth.Synth, args []string) error {
	for _, note := range args {
		if s.ArpeggiatorRunning() {
			s.AddToArp(note)
			continue
		}
		if _, ok := s.PlayNote(note); !ok {
			return fmt.Errorf("unknown note: %s", note)
		}
	}
	return nil
}

func stopCommand(s *polysynth.Synth, _ []string) error {
	s.StopAllNotes(false)
	return nil
}

func engineCommand(s *polysynth.Synth, args []string) error {
	switch args[0] {
	case "subtractive":
		s.SetEngine(state.Subtractive)
	case "fm":
		s.SetEngine(state.FM)
	case "drum":
		s.SetEngine(state.Drum)
	default:
		return fmt.Errorf("unknown engine: %s", args[0])
	}
	return nil
}

func waveCommand(s *polysynth.Synth, args []string) error {
	s.SetWaveform(args[0])
	return nil
}

func adsrCommand(s *polysynth.Synth, args []string) error {
	var vals [4]float64
	for i, a := range args {
		v, err := parseFloat(a)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	s.SetADSR(state.ADSR{Attack: vals[0], Decay: vals[1], Sustain: vals[2], Release: vals[3]})
	return nil
}

func cutoffCommand(s *polysynth.Synth, args []string) error {
	v, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	s.SetCutoff(v)
	return nil
}

func lfoCommand(s *polysynth.Synth, args []string) error {
	rate, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	depth, err := parseFloat(args[1])
	if err != nil {
		return err
	}
	s.SetLFORate(rate)
	s.SetLFODepth(depth)
	return nil
}

func polyCommand(s *polysynth.Synth, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return errors.New("poly wants a positive voice count")
	}
	s.SetPolyphony(n)
	return nil
}

func fxCommand(s *polysynth.Synth, args []string) error {
	switch args[0] {
	case "reverb":
		s.ToggleEffect(polysynth.EffectReverb)
	case "delay":
		s.ToggleEffect(polysynth.EffectDelay)
	case "distortion":
		s.ToggleEffect(polysynth.EffectDistortion)
	default:
		return fmt.Errorf("unknown effect: %s", args[0])
	}
	return nil
}

func holdCommand(s *polysynth.Synth, args []string) error {
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	s.SetHold(on)
	return nil
}

func monoCommand(s *polysynth.Synth, args []string) error {
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	s.SetMono(on)
	return nil
}

func arpCommand(s *polysynth.Synth, args []string) error {
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if on {
		s.StartArpeggiator()
	} else {
		s.StopArpeggiator()
	}
	return nil
}

func arpdirCommand(s *polysynth.Synth, args []string) error {
	switch args[0] {
	case "up":
		s.SetArpDirection(state.ArpUp)
	case "down":
		s.SetArpDirection(state.ArpDown)
	default:
		return fmt.Errorf("want up or down, got %s", args[0])
	}
	return nil
}

func fmalgCommand(s *polysynth.Synth, args []string) error {
	switch alg := state.FMAlgorithm(args[0]); alg {
	case state.FMSimple, state.FMParallel, state.FMSeries, state.FMFeedback:
		s.SetFMAlgorithm(alg)
		return nil
	}
	return fmt.Errorf("unknown algorithm: %s", args[0])
}

func ratioCommand(s *polysynth.Synth, args []string) error {
	v, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	s.SetFMRatio(v)
	return nil
}

func indexCommand(s *polysynth.Synth, args []string) error {
	v, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	s.SetFMIndex(v)
	return nil
}

func kitCommand(s *polysynth.Synth, args []string) error {
	s.SetKit(args[0])
	return nil
}

func tempoCommand(s *polysynth.Synth, args []string) error {
	v, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	s.SetTempo(v)
	return nil
}

func stepCommand(s *polysynth.Synth, args []string) error {
	for _, a := range args {
		i, err := strconv.Atoi(a)
		if err != nil || i < 1 || i > polysynth.SequencerSteps {
			return fmt.Errorf("step wants 1..%d, got %s", polysynth.SequencerSteps, a)
		}
		s.ToggleStep(i - 1)
	}
	printPattern(s)
	return nil
}

func seqCommand(s *polysynth.Synth, args []string) error {
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if on {
		s.StartSequencer()
	} else {
		s.StopSequencer()
	}
	return nil
}

func saveCommand(s *polysynth.Synth, args []string) error {
	slot, err := parseSlot(args[0])
	if err != nil {
		return err
	}
	s.SavePreset(slot)
	return nil
}

func loadCommand(s *polysynth.Synth, args []string) error {
	slot, err := parseSlot(args[0])
	if err != nil {
		return err
	}
	s.LoadPreset(slot)
	return nil
}

func parseSlot(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > polysynth.PresetSlots {
		return 0, fmt.Errorf("slot wants 1..%d", polysynth.PresetSlots)
	}
	return n - 1, nil
}

func notesCommand(s *polysynth.Synth, _ []string) error {
	active := s.ActiveNotes()
	if len(active) == 0 {
		fmt.Println("(silence)")
		return nil
	}
	fmt.Println(strings.Join(active, " "))
	return nil
}

func printPattern(s *polysynth.Synth) {
	pattern := s.Pattern()
	var b strings.Builder
	for _, on := range pattern {
		if on {
			b.WriteString("[x]")
		} else {
			b.WriteString("[ ]")
		}
	}
	fmt.Println(b.String())
}
