package broker

import (
	"fmt"
	"sync"

	"github.com/riverforge/statestream/pkg/streamplatform"
)

// AdapterFactory builds a fresh StreamAdapter; each of
// pkg/broker/{kafka,kinesis,pubsub,eventhubs,mqtt,inmemory} registers one
// under its own Platform constant from an init(), so importing an adapter
// package for its side effect alone (`_ "github.com/.../pkg/broker/kafka"`)
// is what makes GetAdapter(streamplatform.Kafka) succeed.
type AdapterFactory func() StreamAdapter

var (
	registry = make(map[streamplatform.Platform]AdapterFactory)
	mu       sync.RWMutex
)

// RegisterAdapter records factory under platform. Re-registering the same
// platform (a test importing two adapter packages that both claim it, or a
// package's init running twice under `go test -count=2`) silently replaces
// the prior factory rather than erroring -- there's no ordering guarantee
// across init() calls worth enforcing here.
func RegisterAdapter(platform streamplatform.Platform, factory AdapterFactory) {
	mu.Lock()
	defer mu.Unlock()
	registry[platform] = factory
}

// GetAdapter returns a new adapter instance for the given platform.
func GetAdapter(platform streamplatform.Platform) (StreamAdapter, error) {
	mu.RLock()
	defer mu.RUnlock()

	factory, exists := registry[platform]
	if !exists {
		return nil, fmt.Errorf("no adapter registered for platform: %s", platform)
	}

	return factory(), nil
}
