package main

import "github.com/relloyd/tableload/cmd"

func main() {
	cmd.Execute()
}
