package main

import "bootstrapper/internal/cli"

func main() {
	cli.Execute()
}
