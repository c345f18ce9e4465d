// Command termout renders aligned, styled terminal output.
package main

import (
	"os"

	"github.com/Iron-Ham/termout/internal/cmd"
)

func main() {
	os.Exit(int(cmd.Execute()))
}
