package eventhubs

import (
	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

func init() {
	// Register Event Hubs adapter
	broker.RegisterAdapter(streamplatform.EventHubs, func() broker.StreamAdapter {
		return NewAdapter()
	})
}
