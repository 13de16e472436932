package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vsariola/patchbay"
	pcmd "github.com/vsariola/patchbay/cmd"
	"github.com/vsariola/patchbay/config"
	"github.com/vsariola/patchbay/engine"
	"github.com/vsariola/patchbay/graph"
	"github.com/vsariola/patchbay/oto"
	"github.com/vsariola/patchbay/tui"
	"github.com/vsariola/patchbay/units"
	"go.uber.org/zap"
)

const defaultDocumentName = "patchbay.yml"

func editCmd() *cobra.Command {
	var (
		noAudio   bool
		midiInput string
		metrics   string
	)
	c := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a graph in the terminal while it plays",
		Long: "Edit a graph in the terminal while it plays. The file is created on the first\n" +
			"save if it does not exist; without a file, " + defaultDocumentName + " is used.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			prefs := config.MakePreferences()
			logger, err := newLogger(prefs, true)
			if err != nil {
				return fmt.Errorf("could not create logger: %w", err)
			}
			defer logger.Sync()
			if prefs.YmlError != nil {
				logger.Warn("preferences.yml ignored", zap.Error(prefs.YmlError))
			}
			path := defaultDocumentName
			if len(args) > 0 {
				path = args[0]
			}
			fallback := func() patchbay.Document { return patchbay.Document{} }
			if prefs.DefaultNodes {
				fallback = units.DefaultDocument
			}
			doc, _, err := pcmd.ReadDocumentFile(path, fallback)
			if err != nil {
				return err
			}
			model := graph.New(units.Factory{SampleRate: prefs.Audio.SampleRate}, logger)
			if err := model.Load(doc); err != nil {
				return fmt.Errorf("%v: %w", path, err)
			}
			eng := engine.New(engine.Options{
				BlockSize:  prefs.Audio.BlockSize,
				SampleRate: prefs.Audio.SampleRate,
				Logger:     logger,
			})
			defer eng.Attach(model)()
			if metrics != "" {
				defer serveMetrics(metrics, logger)()
			}
			if prefs.Audio.Enabled && !noAudio {
				audioContext, err := oto.NewContext(prefs.Audio.SampleRate)
				if err != nil {
					return err
				}
				defer audioContext.Close()
				player := audioContext.Play(eng.Source())
				defer player.Close()
			}
			midiContext := pcmd.NewMIDIContext(eng.QueueMIDI, logger)
			defer midiContext.Close()
			prefix := prefs.MIDI.InputPrefix
			if c.Flags().Changed("midi-input") {
				prefix = midiInput
			}
			if err := midiContext.TryToOpenBy(prefix, false); err != nil {
				logger.Warn("no MIDI input", zap.String("prefix", prefix), zap.Error(err))
			}
			keys, err := config.MakeKeyMap()
			if err != nil {
				logger.Warn("keybindings.yml ignored", zap.Error(err))
			}
			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("could not open terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("could not open terminal: %w", err)
			}
			defer screen.Fini()
			app := tui.New(screen, model, tui.Options{
				Keys:    keys,
				Levels:  eng.Levels,
				Save:    func() error { return pcmd.WriteDocumentFile(path, model.Document()) },
				Catalog: units.Catalog(),
				Logger:  logger,
			})
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt)
			defer stop()
			return app.Run(ctx)
		},
	}
	c.Flags().BoolVar(&noAudio, "no-audio", false, "Do not open the audio device")
	c.Flags().StringVar(&midiInput, "midi-input", "", "Connect the MIDI input whose name starts with `prefix`")
	c.Flags().StringVar(&metrics, "metrics", "", "Serve Prometheus metrics of the engine on `address`, e.g. localhost:9100")
	return c
}

// serveMetrics serves /metrics in the background until the returned function
// is called.
func serveMetrics(addr string, logger *zap.Logger) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
