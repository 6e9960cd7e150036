package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
)

// main runs the loansync-cli command tree under fang, which adds styled
// usage output and error rendering on top of cobra.
func main() {
	root := newRootCommand()
	err := fang.Execute(
		context.Background(),
		root,
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			if err == nil {
				return
			}
			fmt.Fprintln(w, errorStyle.Render(err.Error()))
		}),
	)
	if err != nil {
		os.Exit(1)
	}
}
