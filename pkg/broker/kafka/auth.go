package kafka

import (
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

func plainMechanism(username, password string) sasl.Mechanism {
	return plain.Mechanism{Username: username, Password: password}
}
