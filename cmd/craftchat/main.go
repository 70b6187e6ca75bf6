package main

import (
	"fmt"
	"os"

	"go.craftchat.dev/craftchat/pkg/cmd/craftchat"
)

func main() {
	if err := craftchat.App().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
