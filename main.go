package main

import "github.com/farrelfz/clipper/internal/cli"

func main() {
	cli.Main()
}
