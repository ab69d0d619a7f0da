package main

import (
	"os"

	"github.com/michalmalik/keyfinder/cmd"
)

func main() {
	os.Exit(cmd.RunCmdline(os.Args))
}
