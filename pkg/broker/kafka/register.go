package kafka

import (
	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

func init() {
	broker.RegisterAdapter(streamplatform.Kafka, func() broker.StreamAdapter {
		return NewAdapter()
	})
}
