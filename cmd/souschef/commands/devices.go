package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/souschef-live/souschef/internal/capture"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		mic, err := capture.NewMicrophone()
		if err != nil {
			return fmt.Errorf("failed to initialize audio: %w", err)
		}
		defer mic.Close()

		devices, err := mic.ListDevices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Printf("%s %-24s %s\n", marker, d.ID, d.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
