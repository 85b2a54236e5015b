package main

import (
	"errors"

	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/dagbolade/echoguard/internal/textsink"
	"github.com/dagbolade/echoguard/internal/viewmodel"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Record one permission access event.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := clientConfig(cmd)
		app, _ := cmd.Flags().GetString("app")
		perm, _ := cmd.Flags().GetString("permission")

		sink := textsink.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctrl := viewmodel.NewSubmissionController(newClient(cfg), sink,
			viewmodel.WithNotificationSanitizer(viewmodel.SanitizeTerminal),
		)

		err := ctrl.Submit(cmd.Context(), app, perm)
		if err == nil {
			return nil
		}

		var ve *accesslog.ValidationError
		if errors.As(err, &ve) {
			return &exitError{code: 2, err: errors.New(viewmodel.MsgFillAllFields)}
		}
		// Failures were already reported through the sink.
		return &exitError{code: 1, err: err, silent: true}
	},
}

func init() {
	addClientFlags(submitCmd)
	submitCmd.Flags().String("app", "", "application name")
	submitCmd.Flags().String("permission", "", "permission, e.g. camera or location")
}
