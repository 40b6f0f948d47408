package cli

import (
	"github.com/spf13/cobra"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdio",
	Long: `Publish the assistant as the MCP tool consultar_asistente so that MCP
clients can ask questions. Diagnostics go to stderr; stdout carries the
protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		assistant, idx, err := newAssistant()
		if err != nil {
			return err
		}
		defer idx.Close()

		server, err := mcpserver.NewServer(assistant)
		if err != nil {
			return err
		}
		logging.Info("MCP server ready on stdio")
		return server.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
