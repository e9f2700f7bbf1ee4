// Package main is the entry point for kai.
package main

import "github.com/dvieira/kai/internal/commands"

func main() {
	commands.Execute()
}
