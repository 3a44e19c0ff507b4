package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().Bool("no-audio", false, "Skip the audio stream")
}

var probeCmd = &cobra.Command{
	Use:   "probe <path>",
	Short: "Print stream information of a media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := setup(cmd); err != nil {
			return err
		}
		noAudio, _ := cmd.Flags().GetBool("no-audio")

		src, err := newOpener(afero.NewOsFs()).Open(args[0], !noAudio)
		if err != nil {
			return err
		}
		defer src.Close()

		info := src.Info()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "path:       %s\n", info.Path)
		fmt.Fprintf(out, "duration:   %.3fs\n", info.Duration.Seconds())
		fmt.Fprintf(out, "fps:        %.3f\n", info.FPS)
		fmt.Fprintf(out, "resolution: %s\n", info.Resolution())
		if format, ok := info.Audio.Get(); ok {
			fmt.Fprintf(out, "audio:      %s\n", format)
		} else {
			fmt.Fprintf(out, "audio:      none\n")
		}
		return nil
	},
}
