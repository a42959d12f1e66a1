package crsf

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotPublish(t *testing.T) {
	var s Snapshot
	now := time.Now()
	require.True(t, s.Publish(&FlightMode{Mode: "ACRO"}, now))
	require.False(t, s.Publish(&Unknown{Type: 0x7f}, now.Add(time.Second)))
	require.False(t, s.Publish(RawChannels{}, now.Add(time.Second)))

	tm := s.Read()
	require.Equal(t, "ACRO", tm.FlightMode.Mode)
	require.Nil(t, tm.GPS)
	require.Equal(t, now, tm.Updated)

	s.SetLink(LinkState{Up: true})
	require.True(t, s.Read().Link.Up)
}

func TestSnapshotConsistentRead(t *testing.T) {
	var s Snapshot
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int16(0); ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			s.Publish(NewAttitude(i, i, i), time.Now())
		}
	}()
	for n := 0; n < 1000; n++ {
		if att := s.Read().Attitude; att != nil {
			require.Equal(t, att.Raw[0], att.Raw[1])
			require.Equal(t, att.Raw[1], att.Raw[2])
			require.Equal(t, att.Pitch, att.Roll)
		}
	}
	close(stop)
	wg.Wait()
}
