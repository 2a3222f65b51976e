package main

import "github.com/LeJamon/goXRPLrwa/internal/cli"

func main() {
	cli.Execute()
}
