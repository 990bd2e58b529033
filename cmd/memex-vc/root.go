package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/systemshift/memex-vc/internal/config"
	"github.com/systemshift/memex-vc/internal/dag"
	"github.com/systemshift/memex-vc/internal/graph"
	"github.com/systemshift/memex-vc/internal/store"
)

// env is the state shared by every subcommand once the config is loaded.
type env struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	store  store.Store
	graph  *graph.Graph
	logger *log.Logger
}

// execute runs root and closes the store whether or not the command failed;
// cobra skips post-run hooks after an error.
func execute(root *cobra.Command, e *env) error {
	err := root.Execute()
	if cerr := e.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd() (*cobra.Command, *env) {
	e := &env{}
	root := &cobra.Command{
		Use:   "memex-vc",
		Short: "Content-addressed commit graph",
		Long: `memex-vc stores blobs, trees and commits as content-addressed entries
and walks the commit graph they form.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&e.cfgFile, "config", "",
		"config file (default is $HOME/.memex-vc/config.toml)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false,
		"log publications to stderr")

	root.AddCommand(
		newIdentityCmd(e),
		newPutBlobCmd(e),
		newPutTreeCmd(e),
		newCommitCmd(e),
		newCatCommitCmd(e),
		newCatContentCmd(e),
		newLogCmd(e),
		newMountCmd(e),
	)
	return root, e
}

func (e *env) open(stderr io.Writer) error {
	cfg, err := config.Load(e.cfgFile)
	if err != nil {
		return err
	}
	e.cfg = cfg

	out := io.Discard
	if e.verbose {
		out = stderr
	}
	e.logger = log.New(out, "memex-vc: ", log.LstdFlags)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return err
	}
	s, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return err
	}
	v, err := cfg.Validator()
	if err != nil {
		store.Close(s)
		return err
	}
	if k, ok := s.(*store.KuboStore); ok && !k.IsAvailable(context.Background()) {
		e.logger.Printf("Kubo not available at %s", cfg.Store.KuboAPI)
	}
	e.store = s
	e.graph = graph.New(s, v,
		graph.WithLogger(e.logger),
		graph.WithMaxChain(cfg.Policy.MaxChain),
	)
	e.logger.Printf("opened %s store", cfg.Store.Backend)
	return nil
}

func (e *env) close() error {
	if e.store == nil {
		return nil
	}
	err := store.Close(e.store)
	e.store = nil
	return err
}

func (e *env) identity() (*dag.Identity, error) {
	return dag.LoadIdentity(e.cfg.Identity.Path)
}

func parseAddresses(ss []string) ([]dag.Address, error) {
	out := make([]dag.Address, 0, len(ss))
	for _, s := range ss {
		a, err := dag.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
