// Command sbak is the content-addressed incremental directory backup tool.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sbak-archive/sbak/cli"
	"github.com/sbak-archive/sbak/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	kp := kingpin.New("sbak", "Content-addressed incremental directory backup.")
	kp.Version(fmt.Sprintf("sbak %s", version.Version))
	kp.HelpFlag.Short('h')

	app := cli.NewApp()
	app.Attach(kp)

	if _, err := kp.Parse(os.Args[1:]); err != nil {
		cli.PrintError(os.Stderr, err)
		return 1
	}

	return 0
}
