package main

import (
	"github.com/robotalks/crsf.go/pkg/cli/sh"
	"github.com/robotalks/crsf.go/pkg/env"

	_ "github.com/robotalks/crsf.go/pkg/cli/cmds/all"
	_ "github.com/robotalks/crsf.go/pkg/sim"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
