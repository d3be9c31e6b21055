package main

import (
	"context"
	"fmt"
	"os"

	"github.com/teranos/taxa/cmd/taxa/commands"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/logger"
)

func main() {
	err := commands.NewRootCmd().ExecuteContext(context.Background())
	logger.Cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
