package main

import "github.com/mcoot/veriloc/internal/cli"

func main() {
	cli.Execute()
}
