package main

import (
	"strings"

	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/dagbolade/echoguard/internal/client"
	"github.com/spf13/cobra"
)

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "http://127.0.0.1:5000", "backend base URL (env ECHOGUARD_URL)")
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("filter", string(accesslog.FilterAll), "all, suspicious or normal")
	cmd.Flags().String("search", "", "case-insensitive app or permission substring")
}

// clientConfig merges env defaults with explicitly set flags.
func clientConfig(cmd *cobra.Command) client.Config {
	cfg := client.LoadConfig()
	flags := cmd.Flags()

	if flags.Changed("url") {
		cfg.BaseURL, _ = flags.GetString("url")
	}
	if flags.Lookup("interval") != nil && flags.Changed("interval") {
		cfg.PollInterval, _ = flags.GetDuration("interval")
	}
	if flags.Lookup("push") != nil && flags.Changed("push") {
		cfg.Push, _ = flags.GetBool("push")
	}
	return cfg
}

func queryFromFlags(cmd *cobra.Command) accesslog.Query {
	filter, _ := cmd.Flags().GetString("filter")
	search, _ := cmd.Flags().GetString("search")
	return accesslog.Query{
		Filter: accesslog.Filter(strings.ToLower(filter)).Normalize(),
		Search: strings.ToLower(strings.TrimSpace(search)),
	}
}

func newClient(cfg client.Config) *client.Client {
	return client.New(cfg.BaseURL, cfg.RequestTimeout)
}
