package main

import "hegemonia/internal/cli"

func main() {
	cli.Execute()
}
