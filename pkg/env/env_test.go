package env

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/crsf.go/pkg/crsf"
	"github.com/robotalks/crsf.go/pkg/link"
	"github.com/robotalks/crsf.go/pkg/telemetry/store"
	"github.com/robotalks/crsf.go/pkg/transport"
)

type memPort struct {
	bytes.Buffer
	closed bool
}

func (p *memPort) Read(b []byte) (int, error) { return 0, nil }
func (p *memPort) Close() error {
	p.closed = true
	return nil
}

var (
	portsLock sync.Mutex
	ports     = make(map[string]*memPort)
)

func init() {
	transport.Register("mem", func(u *url.URL) (io.ReadWriteCloser, error) {
		portsLock.Lock()
		defer portsLock.Unlock()
		p := &memPort{}
		ports[u.Host] = p
		return p, nil
	})
}

func TestPortURL(t *testing.T) {
	conf := NewConfig()
	conf.Baud = 115200
	assert.Equal(t, "serial:///dev/ttyAMA0?baud=115200", conf.PortURL("serial:///dev/ttyAMA0"))
	assert.Equal(t, "tarm:///dev/ttyUSB0?baud=420000", conf.PortURL("tarm:///dev/ttyUSB0?baud=420000"))
	conf.Baud = 0
	assert.Equal(t, "/dev/ttyS1", conf.PortURL("/dev/ttyS1"))
}

func TestEngineConfig(t *testing.T) {
	conf := NewConfig()
	conf.PacketTimeout, conf.Failsafe = 0, 250*time.Millisecond
	ec := conf.EngineConfig()
	assert.Equal(t, crsf.DefaultConfig().PacketTimeout, ec.PacketTimeout)
	assert.Equal(t, 250*time.Millisecond, ec.Failsafe)
}

func TestNewEnv(t *testing.T) {
	conf := NewConfig()
	conf.Port, conf.BackupPort = "mem://rx1", "mem://rx2"
	conf.DBPath = filepath.Join(t.TempDir(), "telemetry.db")
	conf.ClientID = "quad"
	env, err := conf.NewEnv()
	require.NoError(t, err)
	require.NotNil(t, env.Failover.Engines[link.Backup])
	require.NotNil(t, env.Recorder)
	require.Nil(t, env.Queue)
	require.Equal(t, "quad", conf.ID())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.async.Run(ctx) }()

	frame, err := crsf.Encode(crsf.AddressFlightController, crsf.FrameFlightMode, []byte("ANGL\x00"))
	require.NoError(t, err)
	env.Failover.Engines[link.Backup].Feed(frame)

	recorded := func() int64 {
		n, err := env.Recorder.Count(&store.FlightModeRecord{})
		require.NoError(t, err)
		return n
	}
	for deadline := time.Now().Add(5 * time.Second); recorded() == 0 && time.Now().Before(deadline); {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, int64(1), recorded())
	cancel()
	<-done
	require.NoError(t, env.Close())
	portsLock.Lock()
	defer portsLock.Unlock()
	require.True(t, ports["rx1"].closed)
	require.True(t, ports["rx2"].closed)
}

func TestNewEnvErrors(t *testing.T) {
	conf := NewConfig()
	conf.Port = ""
	_, err := conf.NewEnv()
	require.Error(t, err)

	conf.Port = "nope://x"
	_, err = conf.NewEnv()
	require.Error(t, err)

	conf.Port, conf.MQTTURL = "mem://rx3", "mqtt://broker?format=xml"
	_, err = conf.NewEnv()
	require.Error(t, err)
	portsLock.Lock()
	defer portsLock.Unlock()
	require.True(t, ports["rx3"].closed)
}
