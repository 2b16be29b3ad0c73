package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/issuedesk/internal/admincli"
	"github.com/dmitrijs2005/issuedesk/internal/logging"
)

func main() {
	logger := logging.New(os.Stderr, "warn")

	err := admincli.Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, admincli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
