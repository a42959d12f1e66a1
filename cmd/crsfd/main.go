package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/crsf.go/pkg/env"
	fx "github.com/robotalks/crsf.go/pkg/framework"
	"github.com/robotalks/crsf.go/pkg/joystick"

	_ "github.com/robotalks/crsf.go/pkg/sim"
)

func init() {
	env.SetupFlags()
	joystick.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv()
	defer e.Close()

	loop := fx.NewLoop()
	e.AddToLoop(loop)
	if jsConf := joystick.NewConfig(); jsConf.Enabled() {
		ctl, err := jsConf.NewController(e.Failover)
		if err != nil {
			glog.Fatalf("joystick: %v", err)
		}
		loop.Add(ctl)
	}

	runner := fx.NewRunner().HandleSignals().Go(fx.NamedRun("loop", loop))
	if err := runner.Wait(); err != nil {
		glog.Errorf("stopped: %v", err)
	}
}
