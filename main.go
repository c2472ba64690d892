package main

import (
	"github.com/mirrorsync/mirrorsync/cmd"
	"github.com/mirrorsync/mirrorsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
