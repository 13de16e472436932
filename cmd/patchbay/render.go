package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vsariola/patchbay"
	pcmd "github.com/vsariola/patchbay/cmd"
	"github.com/vsariola/patchbay/config"
	"github.com/vsariola/patchbay/engine"
	"github.com/vsariola/patchbay/graph"
	"github.com/vsariola/patchbay/units"
	"gitlab.com/gomidi/midi/v2"
)

type renderOptions struct {
	output   string
	duration time.Duration
	note     int
	tone     float64
	pcm16    bool
	raw      bool
}

func renderCmd() *cobra.Command {
	var opts renderOptions
	c := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a graph offline into a .wav file",
		Long: "Render a graph offline into a .wav file. The audio input units receive a\n" +
			"sine tone if --tone is given, and the MIDI input units a note if --note is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			prefs := config.MakePreferences()
			logger, err := newLogger(prefs, false)
			if err != nil {
				return fmt.Errorf("could not create logger: %w", err)
			}
			defer logger.Sync()
			doc, _, err := pcmd.ReadDocumentFile(args[0], nil)
			if err != nil {
				return err
			}
			model := graph.New(units.Factory{SampleRate: prefs.Audio.SampleRate}, logger)
			if err := model.Load(doc); err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}
			buf, err := render(model, prefs.Audio, opts)
			if err != nil {
				return err
			}
			var data []byte
			if opts.raw {
				data, err = buf.Raw(opts.pcm16)
			} else {
				data, err = buf.Wav(opts.pcm16, prefs.Audio.SampleRate)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.output, data, 0o644); err != nil {
				return fmt.Errorf("could not write %v: %w", opts.output, err)
			}
			fmt.Printf("  %s %s %s\n", Good.Sprint("✓"), opts.output,
				Subtle.Sprintf("(%d frames, peak %.3f)", len(buf), peak(buf)))
			return nil
		},
	}
	c.Flags().StringVarP(&opts.output, "output", "o", "out.wav", "Write the audio to `file`")
	c.Flags().DurationVarP(&opts.duration, "duration", "d", 2*time.Second, "Length of the rendered audio")
	c.Flags().IntVar(&opts.note, "note", -1, "MIDI note played from the start, -1 for none")
	c.Flags().Float64Var(&opts.tone, "tone", 0, "Frequency of the sine tone fed to the audio input, 0 for silence")
	c.Flags().BoolVar(&opts.pcm16, "pcm16", false, "Write 16-bit integer samples instead of 32-bit floats")
	c.Flags().BoolVar(&opts.raw, "raw", false, "Write raw interleaved samples with no header")
	return c
}

func render(model *graph.Model, prefs config.AudioPreferences, opts renderOptions) (patchbay.AudioBuffer, error) {
	if opts.note > 127 {
		return nil, fmt.Errorf("invalid note %d", opts.note)
	}
	frames := int(opts.duration.Seconds() * float64(prefs.SampleRate))
	if frames <= 0 {
		return nil, fmt.Errorf("invalid duration %v", opts.duration)
	}
	e := engine.New(engine.Options{BlockSize: prefs.BlockSize, SampleRate: prefs.SampleRate})
	e.Update(model.Snapshot())
	if opts.note >= 0 {
		e.QueueMIDI(midi.NoteOn(0, uint8(opts.note), 100))
	}
	var input patchbay.AudioBuffer
	if opts.tone > 0 {
		input = make(patchbay.AudioBuffer, frames)
		for i := range input {
			v := float32(0.5 * math.Sin(2*math.Pi*opts.tone*float64(i)/float64(prefs.SampleRate)))
			input[i] = [2]float32{v, v}
		}
	}
	out := make(patchbay.AudioBuffer, frames)
	e.Render(out, input)
	return out, nil
}

func peak(buf patchbay.AudioBuffer) float64 {
	var ret float64
	for _, f := range buf {
		ret = max(ret, math.Abs(float64(f[0])), math.Abs(float64(f[1])))
	}
	return ret
}
