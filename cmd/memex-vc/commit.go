package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systemshift/memex-vc/internal/dag"
)

func newCommitCmd(e *env) *cobra.Command {
	var (
		contextAddr string
		message     string
		content     string
		parents     []string
	)
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Create a commit authored by the local identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctxAddr, err := dag.ParseAddress(contextAddr)
			if err != nil {
				return fmt.Errorf("--context: %w", err)
			}
			contentAddr, err := dag.ParseAddress(content)
			if err != nil {
				return fmt.Errorf("--content: %w", err)
			}
			parentAddrs, err := parseAddresses(parents)
			if err != nil {
				return fmt.Errorf("--parent: %w", err)
			}
			id, err := e.identity()
			if err != nil {
				return err
			}
			addr, err := e.graph.CreateCommit(cmd.Context(), id, ctxAddr, message, contentAddr, parentAddrs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
	cmd.Flags().StringVarP(&contextAddr, "context", "c", "", "address of the repository context")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&content, "content", "", "address of the blob or tree snapshot")
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit address (repeatable, order kept)")
	cmd.MarkFlagRequired("context")
	cmd.MarkFlagRequired("content")
	return cmd
}

func newCatCommitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "cat-commit <addr>",
		Short: "Print a commit as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := dag.ParseAddress(args[0])
			if err != nil {
				return err
			}
			c, found, err := e.graph.GetCommitInfo(cmd.Context(), addr)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("commit %s: %w", addr, dag.ErrNotFound)
			}
			data, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newCatContentCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "cat-content <addr>",
		Short: "Print blob bytes or a tree listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := dag.ParseAddress(args[0])
			if err != nil {
				return err
			}
			content, found, err := e.graph.GetContent(cmd.Context(), addr)
			if errors.Is(err, dag.ErrSerialization) {
				// A commit address: show the content it points at.
				content, found, err = e.graph.GetCommitContent(cmd.Context(), addr)
			}
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("content %s: %w", addr, dag.ErrNotFound)
			}
			out := cmd.OutOrStdout()
			switch c := content.(type) {
			case *dag.Blob:
				_, err = out.Write(c.Content)
				return err
			case *dag.Tree:
				for _, te := range c.Entries {
					fmt.Fprintf(out, "%-6s %s\t%s\n", te.Kind, te.Address, te.Name)
				}
			}
			return nil
		},
	}
}
