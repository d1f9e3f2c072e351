package main

import "github.com/rupali59/devnotes/cmd"

func main() {
	cmd.Execute()
}
