package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/systemshift/memex-vc/internal/dag"
	memexfuse "github.com/systemshift/memex-vc/internal/fuse"
)

func newMountCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "mount <commit> <mountpoint>",
		Short: "Mount a commit's snapshot read-only until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := dag.ParseAddress(args[0])
			if err != nil {
				return err
			}
			mountpoint := args[1]
			if err := os.MkdirAll(mountpoint, 0755); err != nil {
				return err
			}

			log := e.logger
			log.Printf("mounting %s at %s", addr, mountpoint)
			server, err := memexfuse.MountCommit(cmd.Context(), mountpoint, e.graph, addr)
			if err != nil {
				return err
			}

			done := make(chan os.Signal, 1)
			signal.Notify(done, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-done
				log.Println("unmounting")
				server.Unmount()
			}()

			log.Printf("ready (pid %d)", os.Getpid())
			server.Wait()
			log.Println("stopped")
			return nil
		},
	}
}
