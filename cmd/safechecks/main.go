package main

import "github.com/safechecks/safechecks/internal/cli"

func main() {
	cli.Execute()
}
