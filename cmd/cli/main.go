package main

import (
	"fmt"
	"os"

	apperrors "github.com/potencialpi/sentiment-cx/internal/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", apperrors.GetCode(err), err)
		os.Exit(1)
	}
}
