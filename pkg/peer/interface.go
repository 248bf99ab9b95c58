package peer

import (
	"github.com/rhasspy/wyoming-satellite/pkg/events"
	"github.com/rhasspy/wyoming-satellite/pkg/wyoming"
)

// Interface is the shape every dialed or accepted Wyoming collaborator
// presents to the rest of the satellite: a reconnecting (or session-
// pinning) endpoint that can be published to, read from, watched for
// connect/disconnect edges, and torn down. *Peer satisfies it directly;
// pkg/mainserver.Listener satisfies it too, so pkg/satellite.Machine
// never needs to know whether it's holding a dialed peer or an accepted
// one.
type Interface interface {
	Publish(ev *wyoming.Event) (backpressure bool)
	Events() <-chan *wyoming.Event
	Lifecycle() <-chan events.Event
	Close() error
}

var _ Interface = (*Peer)(nil)
