package main

import (
	"os"

	"ui_harness/presentation/terminal"
)

func main() {
	os.Exit(terminal.Execute())
}
