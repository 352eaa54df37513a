package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/application/tools"
)

func newServeMCPCmd() *cobra.Command {
	var (
		transport string
		addr      string
		client    string
	)

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve page tools to agents over MCP",
		Long:  "Exposes page reading, editing and search of one site as MCP tools over stdio or streamable HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withDeps(cmd.Context(), func(d *Deps) error {
				t := tools.New(tools.Deps{
					Pages:  d.Pages,
					Edits:  d.Edits,
					Search: d.Search,
					Client: client,
					Logger: d.Logger,
				})

				mcpCfg := d.Config.MCP
				if cmd.Flags().Changed("transport") {
					mcpCfg.Transport = transport
				}
				if cmd.Flags().Changed("addr") {
					mcpCfg.Addr = addr
				}
				return tools.Serve(cmd.Context(), t.Server(mcpCfg.Name), mcpCfg.Transport, mcpCfg.Addr, d.Logger)
			})
			if err != nil {
				return respond(cmd, nil, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&transport, "transport", tools.TransportStdio, "Transport (stdio, http); overrides the config")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address for the http transport; overrides the config")
	cmd.Flags().StringVar(&client, "client", "mcp", "Client name recorded in revision tags as agent:<client>")

	return cmd
}
