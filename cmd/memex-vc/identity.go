package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentityCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Print the local author identity, generating it if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := e.identity()
			if err != nil {
				return err
			}
			author, err := id.AuthorAddress()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "did:    %s\n", id.DID)
			fmt.Fprintf(out, "author: %s\n", author)
			fmt.Fprintf(out, "file:   %s\n", e.cfg.Identity.Path)
			return nil
		},
	}
}
