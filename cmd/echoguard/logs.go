package main

import (
	"github.com/dagbolade/echoguard/internal/textsink"
	"github.com/dagbolade/echoguard/internal/viewmodel"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the current access log once.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := clientConfig(cmd)
		store := newStore(queryFromFlags(cmd))

		poller := viewmodel.NewPoller(store, newClient(cfg), textsink.New(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			viewmodel.WithSanitizer(viewmodel.SanitizeTerminal),
			viewmodel.WithRequestTimeout(cfg.RequestTimeout),
		)
		return poller.Refresh(cmd.Context())
	},
}

func init() {
	addClientFlags(logsCmd)
	addQueryFlags(logsCmd)
}
