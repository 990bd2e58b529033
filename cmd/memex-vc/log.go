package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/systemshift/memex-vc/internal/dag"
)

func newLogCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log <commit>",
		Short: "Show the ancestry of a commit, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := dag.ParseAddress(args[0])
			if err != nil {
				return err
			}
			entries, err := e.graph.Log(cmd.Context(), addr, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("commit %s: %w", addr, dag.ErrNotFound)
			}
			out := cmd.OutOrStdout()
			for i, le := range entries {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "commit %s\n", le.Address)
				if le.Commit.IsMerge() {
					parents := make([]string, len(le.Commit.ParentCommitsAddresses))
					for j, p := range le.Commit.ParentCommitsAddresses {
						parents[j] = p.String()
					}
					fmt.Fprintf(out, "Merge:  %s\n", strings.Join(parents, " "))
				}
				fmt.Fprintf(out, "Author: %s\n", le.Commit.AuthorAddress)
				fmt.Fprintf(out, "\n    %s\n", le.Commit.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits (0 for all)")
	return cmd
}
