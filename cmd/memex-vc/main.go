package main

import (
	"fmt"
	"os"
)

func main() {
	root, e := newRootCmd()
	if err := execute(root, e); err != nil {
		fmt.Fprintln(os.Stderr, "memex-vc:", err)
		os.Exit(1)
	}
}
