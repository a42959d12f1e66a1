package sim

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/crsf.go/pkg/crsf"
	"github.com/robotalks/crsf.go/pkg/transport"
)

// Defaults of the receiver.
const (
	DefaultChannelsInterval  = 20 * time.Millisecond
	DefaultTelemetryInterval = 200 * time.Millisecond
	DefaultFlightMode        = "ANGL"
)

// DefaultHome is where the vehicle starts unless configured.
var DefaultHome = Geo{Latitude: 47.3977, Longitude: 8.5456, Altitude: 488}

// timeoutError is returned by Read when nothing is due within ReadTimeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "sim: read timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// Receiver is the byte stream of a receiver on a simulated vehicle. It
// emits channel frames and telemetry, and steers the vehicle by the
// channel frames written to it. Until the first channel frame is written
// the vehicle follows Sticks.
type Receiver struct {
	Vehicle           *Vehicle
	Sticks            crsf.Channels
	FlightMode        string
	ChannelsInterval  time.Duration
	TelemetryInterval time.Duration
	ReadTimeout       time.Duration
	// SilentAfter stops all output after the duration, 0 never.
	SilentAfter time.Duration
	Now         func() time.Time

	lock          sync.Mutex
	framer        *crsf.Framer
	written       *crsf.Channels
	out           []byte
	started       time.Time
	nextChannels  time.Time
	nextTelemetry time.Time
	closed        chan struct{}
	closeOnce     sync.Once
}

// NewReceiver creates a Receiver with throttle low and other sticks
// centered.
func NewReceiver(v *Vehicle) *Receiver {
	conf := crsf.DefaultConfig()
	sticks := crsf.Neutral()
	sticks[ChannelThrottle-1] = crsf.MicrosMin
	return &Receiver{
		Vehicle:           v,
		Sticks:            sticks,
		FlightMode:        DefaultFlightMode,
		ChannelsInterval:  DefaultChannelsInterval,
		TelemetryInterval: DefaultTelemetryInterval,
		ReadTimeout:       transport.DefaultReadTimeout,
		Now:               time.Now,
		framer:            crsf.NewFramer(conf.BufferSize, conf.MaxPayload),
		closed:            make(chan struct{}),
	}
}

func (r *Receiver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// channels returns the channels steering the vehicle.
func (r *Receiver) channels() crsf.Channels {
	if r.written != nil {
		return *r.written
	}
	return r.Sticks
}

func (r *Receiver) silent(now time.Time) bool {
	return r.SilentAfter > 0 && now.Sub(r.started) >= r.SilentAfter
}

func (r *Receiver) emit(samples ...crsf.Sample) {
	for _, s := range samples {
		b, err := crsf.Encode(crsf.AddressFlightController, s.FrameType(), s.Payload())
		if err != nil {
			glog.Errorf("sim: encode %s: %v", s.FrameType(), err)
			continue
		}
		r.out = append(r.out, b...)
	}
}

// generate appends the frames due at now and returns the next due time.
func (r *Receiver) generate(now time.Time) time.Time {
	if r.started.IsZero() {
		r.started, r.nextChannels, r.nextTelemetry = now, now, now
	}
	r.Vehicle.Update(now)
	if !now.Before(r.nextChannels) {
		r.nextChannels = now.Add(r.ChannelsInterval)
		if !r.silent(now) {
			ch := r.channels()
			if r.written == nil {
				r.Vehicle.Steer(ch, now)
			}
			r.emit(ch.Raw())
		}
	}
	if !now.Before(r.nextTelemetry) {
		r.nextTelemetry = now.Add(r.TelemetryInterval)
		if !r.silent(now) {
			r.emit(
				r.Vehicle.GPS(),
				r.Vehicle.Attitude(),
				r.Vehicle.Battery(),
				&crsf.FlightMode{Mode: r.FlightMode},
				linkStats(),
			)
		}
	}
	if r.nextTelemetry.Before(r.nextChannels) {
		return r.nextTelemetry
	}
	return r.nextChannels
}

func linkStats() *crsf.LinkStatistics {
	// rssi 1/2, lq, snr, antenna, rf mode, tx power, downlink rssi, lq, snr
	return &crsf.LinkStatistics{Raw: [10]byte{48, 50, 100, 9, 0, 4, 2, 52, 100, 8}}
}

// Read implements io.Reader. It waits for the next due frame, and fails
// with a timeout error when none is due within ReadTimeout.
func (r *Receiver) Read(p []byte) (int, error) {
	start := time.Now()
	for {
		select {
		case <-r.closed:
			return 0, io.EOF
		default:
		}
		r.lock.Lock()
		due := r.generate(r.now())
		if len(r.out) > 0 {
			n := copy(p, r.out)
			r.out = r.out[n:]
			r.lock.Unlock()
			return n, nil
		}
		wait := due.Sub(r.now())
		r.lock.Unlock()

		if left := r.ReadTimeout - time.Since(start); r.ReadTimeout > 0 && left < wait {
			if left > 0 {
				r.sleep(left)
			}
			return 0, timeoutError{}
		}
		r.sleep(wait)
	}
}

func (r *Receiver) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-r.closed:
	case <-time.After(d):
	}
}

// Write implements io.Writer. Channel frames steer the vehicle, other
// frames are dropped.
func (r *Receiver) Write(p []byte) (int, error) {
	select {
	case <-r.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	res := r.framer.Feed(p)
	for _, f := range res.Frames {
		if f.Type != crsf.FrameRCChannelsPacked {
			glog.V(2).Infof("sim: drop %s frame", f.Type)
			continue
		}
		raw, err := crsf.UnpackChannels(f.Payload)
		if err != nil {
			glog.Warningf("sim: channels: %v", err)
			continue
		}
		ch := raw.Micros()
		r.written = &ch
		r.Vehicle.Steer(ch, r.now())
	}
	return len(p), nil
}

// Close implements io.Closer.
func (r *Receiver) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })
	return nil
}

// Open creates a Receiver from a URL like
// sim://?lat=47.39&lon=8.54&alt=500&silent-after=30s.
func Open(u *url.URL) (io.ReadWriteCloser, error) {
	q := u.Query()
	home := DefaultHome
	for name, dst := range map[string]*float64{
		"lat": &home.Latitude,
		"lon": &home.Longitude,
		"alt": &home.Altitude,
	} {
		if val := q.Get(name); val != "" {
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", name, val, err)
			}
			*dst = v
		}
	}
	r := NewReceiver(NewVehicle(DefaultVehicleConfig, home))
	timeout, err := transport.ReadTimeout(u)
	if err != nil {
		return nil, err
	}
	r.ReadTimeout = timeout
	if val := q.Get("silent-after"); val != "" {
		if r.SilentAfter, err = time.ParseDuration(val); err != nil {
			return nil, fmt.Errorf("invalid silent-after %q: %w", val, err)
		}
	}
	if val := q.Get("mode"); val != "" {
		r.FlightMode = val
	}
	return r, nil
}

func init() {
	transport.Register("sim", Open)
}
