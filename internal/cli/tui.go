package cli

import (
	"github.com/spf13/cobra"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Full-screen chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		assistant, idx, err := newAssistant()
		if err != nil {
			return err
		}
		defer idx.Close()

		return tui.Run(cmd.Context(), assistant, "🎓 Asistente de Burocracia US")
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
