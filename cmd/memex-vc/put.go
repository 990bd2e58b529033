package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/systemshift/memex-vc/internal/dag"
)

func newPutBlobCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "put-blob <file|->",
		Short: "Store a file (or stdin) as a blob and print its address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			addr, err := e.graph.PutBlob(cmd.Context(), dag.NewBlob(data))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}

func newPutTreeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "put-tree <dir>",
		Short: "Store a directory recursively and print the root tree address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := e.putDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}

// putDir stores dir bottom-up. Only regular files and directories are
// captured; symlinks and special files are skipped.
func (e *env) putDir(ctx context.Context, dir string) (dag.Address, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return dag.Undef, err
	}
	var entries []dag.TreeEntry
	for _, c := range children {
		p := filepath.Join(dir, c.Name())
		switch {
		case c.IsDir():
			addr, err := e.putDir(ctx, p)
			if err != nil {
				return dag.Undef, err
			}
			entries = append(entries, dag.TreeEntry{Name: c.Name(), Address: addr, Kind: dag.KindTree})
		case c.Type().IsRegular():
			data, err := os.ReadFile(p)
			if err != nil {
				return dag.Undef, err
			}
			addr, err := e.graph.PutBlob(ctx, dag.NewBlob(data))
			if err != nil {
				return dag.Undef, fmt.Errorf("%s: %w", p, err)
			}
			entries = append(entries, dag.TreeEntry{Name: c.Name(), Address: addr, Kind: dag.KindBlob})
		default:
			e.logger.Printf("skipping %s (%s)", p, c.Type())
		}
	}
	tree, err := dag.NewTree(entries...)
	if err != nil {
		return dag.Undef, fmt.Errorf("%s: %w", dir, err)
	}
	return e.graph.PutTree(ctx, tree)
}
