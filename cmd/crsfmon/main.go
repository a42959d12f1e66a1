package main

import (
	"flag"
	"log"
	"os"
	"reflect"

	"github.com/robotalks/crsf.go/pkg/env"
	fx "github.com/robotalks/crsf.go/pkg/framework"
	"github.com/robotalks/crsf.go/pkg/telemetry/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/crsf/"
	pattern = "#"
)

func init() {
	if val := os.Getenv("CRSF_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&pattern, "topic", pattern, "Topic pattern under the prefix, e.g. +/gps.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL, "crsfmon-"+env.ClientID())
	if err != nil {
		log.Fatalln(err)
	}
	mon := &mqtt.Monitor{
		Queue:   q,
		Pattern: pattern,
		Handler: func(r mqtt.Received) {
			log.Printf("%s: [%s] %s", r.Topic,
				reflect.Indirect(reflect.ValueOf(r.Msg)).Type().Name(),
				r.Msg.String())
		},
	}
	err = fx.NewRunner().HandleSignals().Go(mon).Wait()
	if err != nil {
		log.Fatalln(err)
	}
}
