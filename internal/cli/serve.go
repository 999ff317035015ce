package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/linkctl/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the control API over HTTP",
	Long: `Run the device session and expose it over HTTP.

Endpoints:
  GET  /api/devices                 all device states
  GET  /api/devices/{id}            one device state
  POST /api/devices/{id}/play       also pause, stop, next, prev
  PUT  /api/devices/{id}/source     {"name": "Optical In"}
  PUT  /api/devices/{id}/shuffle    {"enabled": true}
  PUT  /api/devices/{id}/repeat     {"mode": "all"}
  PUT  /api/devices/{id}/seek       {"position": 90}
  GET  /api/devices/{id}/ws         live state over a websocket`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}

	m := newManager()
	srv := server.New(m, server.Options{Addr: addr, Logger: log})
	return srv.Run(cmd.Context())
}
