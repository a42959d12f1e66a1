package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// appID scopes the hashed machine ID to this application.
const appID = "crsf.go"

// ClientID identifies this vehicle towards the MQTT broker. It is derived
// from the machine ID, and falls back to the host name.
func ClientID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return appID
}
