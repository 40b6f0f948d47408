package cli

import (
	"github.com/spf13/cobra"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	Long: `Expose the assistant as an HTTP API:
  POST /api/ask         {"question": "...", "history": [...]}
  POST /api/ask/stream  same body, answer as server-sent events
  GET  /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		assistant, idx, err := newAssistant()
		if err != nil {
			return err
		}
		defer idx.Close()

		addr := GetConfig().Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return httpapi.New(assistant).Run(cmd.Context(), addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
