package mqtt

import (
	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

func init() {
	// Register both client and server adapters
	broker.RegisterAdapter(streamplatform.MQTT, func() broker.StreamAdapter {
		return NewClientAdapter()
	})

	broker.RegisterAdapter(streamplatform.MQTTServer, func() broker.StreamAdapter {
		return NewServerAdapter()
	})
}
