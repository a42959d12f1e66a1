package env

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/crsf.go/pkg/crsf"
	fx "github.com/robotalks/crsf.go/pkg/framework"
	"github.com/robotalks/crsf.go/pkg/link"
	"github.com/robotalks/crsf.go/pkg/telemetry"
	"github.com/robotalks/crsf.go/pkg/telemetry/mqtt"
	"github.com/robotalks/crsf.go/pkg/telemetry/store"
	"github.com/robotalks/crsf.go/pkg/transport"
)

// TelemetryQueueSize is the number of events buffered for slow sinks.
const TelemetryQueueSize = 256

// MQTTRetryInterval is the wait between broker connection attempts.
const MQTTRetryInterval = 5 * time.Second

// Env is the assembled runtime: links, failover and telemetry sinks.
type Env struct {
	Config    *Config
	Failover  *link.Failover
	Queue     *mqtt.Queue
	Publisher *mqtt.Publisher
	Recorder  *store.Recorder
	// Sinks receive events of both links, off the engine loop.
	Sinks telemetry.Fanout

	async   *telemetry.Async
	closers []io.Closer
}

// NewEnv opens the links and telemetry sinks.
func (c *Config) NewEnv() (env *Env, err error) {
	env = &Env{Config: c}
	defer func() {
		if err != nil {
			env.Close()
			env = nil
		}
	}()
	var engines [2]*crsf.Engine
	for n, port := range []string{c.Port, c.BackupPort} {
		if port == "" {
			continue
		}
		rwc, err := transport.Open(c.PortURL(port))
		if err != nil {
			return env, fmt.Errorf("%s link: %w", link.Name(n), err)
		}
		env.closers = append(env.closers, rwc)
		engines[n] = crsf.NewEngine(rwc, c.EngineConfig())
	}
	if engines[link.Primary] == nil {
		return env, fmt.Errorf("primary port required")
	}
	env.Failover = link.NewFailover(engines[link.Primary], engines[link.Backup], c.SwitchTimeout)
	env.Failover.OnSwitch = env.recordSwitch

	if c.MQTTURL != "" {
		if env.Queue, err = mqtt.NewQueueFromURL(c.MQTTURL, c.ID()); err != nil {
			return env, fmt.Errorf("MQTT: %w", err)
		}
		env.Publisher = mqtt.NewPublisher(env.Queue)
		env.Sinks = append(env.Sinks, env.Publisher)
	}
	if c.DBPath != "" {
		if env.Recorder, err = store.Open(store.Config{Path: c.DBPath}); err != nil {
			return env, fmt.Errorf("recorder: %w", err)
		}
		env.closers = append(env.closers, env.Recorder)
		env.Sinks = append(env.Sinks, env.Recorder)
	}
	env.async = telemetry.NewAsync(telemetry.SinkFunc(func(source string, ev crsf.Event) error {
		return env.Sinks.Consume(source, ev)
	}), TelemetryQueueSize)
	for n, e := range engines {
		if e != nil {
			e.Handler = telemetry.Handler(env.async, link.Name(n))
		}
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

func (e *Env) recordSwitch(from, to int, reason string) {
	now := time.Now()
	if e.Publisher != nil {
		if err := e.Publisher.PublishSwitch(link.Name(from), link.Name(to), reason, now); err != nil {
			glog.Warningf("publish switch: %v", err)
		}
	}
	if e.Recorder != nil {
		if err := e.Recorder.RecordSwitch(link.Name(from), link.Name(to), reason, now); err != nil {
			glog.Warningf("record switch: %v", err)
		}
	}
}

// AddToLoop adds the links, the senders and the telemetry delivery to
// the loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Failover, link.NewChannelSender(e.Failover, e.Config.SendInterval))
	if e.Config.BatteryPath != "" {
		ps := PowerSupply{Dir: e.Config.BatteryPath}
		loop.Add(link.NewBatterySender(e.Failover, ps.Read, e.Config.BatteryInterval))
	}
	loop.AddRunnable(fx.NamedRun("telemetry", e.async))
	if e.Queue != nil {
		loop.AddRunnable(fx.NamedRun("mqtt", fx.RunFunc(e.runMQTT)))
	}
}

// runMQTT keeps retrying the broker; publishing is best effort until
// connected.
func (e *Env) runMQTT(ctx context.Context) error {
	for {
		err := e.Queue.Connect()
		if err == nil {
			break
		}
		glog.Warningf("MQTT connect: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(MQTTRetryInterval):
		}
	}
	<-ctx.Done()
	e.Queue.Close()
	return ctx.Err()
}

// Close closes links and sinks.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	for n := len(e.closers) - 1; n >= 0; n-- {
		errs.Add(e.closers[n].Close())
	}
	e.closers = nil
	return errs.Aggregate()
}
