package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/audio"
)

func NewDevicesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := audio.ListDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No input devices found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCHANNELS\tSAMPLE RATE")
			for _, d := range devices {
				fmt.Fprintf(w, "%d\t%s\t%d\t%.0f\n", d.ID, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
			}
			return w.Flush()
		},
	}
}
