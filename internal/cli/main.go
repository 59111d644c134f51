package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/farrelfz/clipper/internal/logging"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	var verbose bool

	root := &cobra.Command{
		Use:           "clipper",
		Short:         "Turn one long-form video into platform-tailored short clips",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verbose)
		},
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	plan := &cobra.Command{
		Use:   "plan <input>",
		Short: "Build the export plan from analysis artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0])
		},
	}
	plan.Flags().String("analysis", "", "Directory holding the analysis artifacts (required)")
	plan.Flags().String("config", "", "Config YAML (defaults apply when omitted)")
	plan.Flags().String("out", "out", "Output directory")
	_ = plan.MarkFlagRequired("analysis")

	audio := &cobra.Command{
		Use:   "audio <input> [out.wav]",
		Short: "Extract mono 16 kHz audio for the ASR/VAD collaborators",
		Long:  "Without an explicit output path the WAV lands in the input-keyed cache directory and is reused on later runs.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudio(cmd, args)
		},
	}
	audio.Flags().String("cache", ".cache", "Base directory for cached artifacts")

	root.AddCommand(plan, audio)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
