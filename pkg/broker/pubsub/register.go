package pubsub

import (
	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

func init() {
	// Register Pub/Sub adapter
	broker.RegisterAdapter(streamplatform.PubSub, func() broker.StreamAdapter {
		return NewAdapter()
	})
}
