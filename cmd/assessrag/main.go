package main

import "assessrag/internal/cli"

func main() {
	cli.Execute()
}
