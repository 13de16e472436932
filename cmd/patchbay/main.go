package main

import (
	"os"

	"github.com/spf13/cobra"
	pcmd "github.com/vsariola/patchbay/cmd"
	"github.com/vsariola/patchbay/config"
	"github.com/vsariola/patchbay/version"
	"go.uber.org/zap"
)

var (
	verbose bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "patchbay",
	Short: "patchbay routes audio and MIDI between units in a node graph",
	Long: Brand.Sprint("patchbay") + " edits and plays audio routing graphs\n" +
		Subtle.Sprint("Connect audio inputs, units and outputs with patch cords in the terminal"),
	Version:       version.VersionOrHash,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("patchbay {{ .Version }}\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to `file`")
	rootCmd.AddCommand(
		editCmd(),
		checkCmd(),
		unitsCmd(),
		renderCmd(),
	)
}

// newLogger honors --log-file, then the log file of the preferences.
func newLogger(prefs config.Preferences, discard bool) (*zap.Logger, error) {
	file := logFile
	if file == "" {
		file = prefs.LogFile
	}
	return pcmd.NewLogger(verbose, file, discard)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		Bad.Fprintf(os.Stderr, "patchbay: %v\n", err)
		os.Exit(1)
	}
}
