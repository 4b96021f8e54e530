package main

import (
	"github.com/samber/lo"
	"github.com/vidora/vidora/cmd"
	"github.com/vidora/vidora/config"
	"github.com/vidora/vidora/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
