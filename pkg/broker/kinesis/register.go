package kinesis

import (
	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

func init() {
	// Register Kinesis adapter
	broker.RegisterAdapter(streamplatform.Kinesis, func() broker.StreamAdapter {
		return NewAdapter()
	})
}
