package main

import (
	"fmt"
	"os"

	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/style"
)

func main() {
	if err := Execute(); err != nil {
		msg := err.Error()
		if errors.IsErrorCode(err, errors.ErrUnrecoverableState) {
			msg += "\nThe game directory may be inconsistent. Run 'modlay restore' to return it to vanilla."
		}
		fmt.Fprintln(os.Stderr, style.Error.Render("Error:")+" "+msg)
		os.Exit(1)
	}
}
