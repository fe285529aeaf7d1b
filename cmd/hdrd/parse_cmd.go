// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ManuGH/hdrkit/internal/header"
)

// runParseCLI parses one header with its typed model and prints the
// canonical serialization. Each extra argument is one field line.
func runParseCLI(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hdrd parse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	list := fs.Bool("list", false, "list headers with a typed model")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  hdrd parse <Header-Name> <value> [value...]")
		fmt.Fprintln(stderr, "  hdrd parse --list")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		for _, name := range header.KnownNames() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return 2
	}

	name := fs.Arg(0)
	canonical, err := header.Canonicalize(name, header.Raw(fs.Args()[1:]))
	switch {
	case errors.Is(err, header.ErrUnknownHeader):
		fmt.Fprintf(stderr, "%s has no typed model (see --list)\n", name)
		return 2
	case err != nil:
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, canonical)
	return 0
}
