package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/focusorder/internal/client"
	"github.com/mj1618/focusorder/internal/output"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe an annotation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		c := client.New(serverURL, timeout)
		defer c.Close()
		h, err := c.Health(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(h)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().String("server", "http://localhost:8787", "Annotation service URL")
	healthCmd.Flags().Duration("timeout", client.DefaultTimeout, "Probe timeout")
}
