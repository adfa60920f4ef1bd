package main

import "github.com/fakeyudi/locus/cmd"

func main() {
	cmd.Execute()
}
