package natsjs

import (
	"github.com/nats-io/nats.go/jetstream"
)

// StreamType enumerates the durable job stream families.
type StreamType int

// Known stream families
const (
	StreamTypeFileUpload StreamType = iota
)

// fileUploadFamily is the single value every file-upload subject and name
// is derived from. The publish subject and the consumer filter subject must
// match or delivery breaks silently, so neither is ever spelled out as a
// separate literal.
const fileUploadFamily = "file-uploaded"

// StreamSpec describes one durable stream and its durable consumer.
// It is pure data: both producer and consumer processes apply it with
// get-or-create semantics at startup, in either order.
type StreamSpec struct {
	Stream   jetstream.StreamConfig
	Consumer jetstream.ConsumerConfig

	// PublishSubject is where producers publish job messages. Always equal
	// to the consumer's filter subject.
	PublishSubject string

	// DeliverSubject is the subject name reserved for push delivery of this
	// consumer. Kept here so the naming stays owned by this package.
	DeliverSubject string
}

// SpecFor returns the declarative stream/consumer spec for a stream type.
func SpecFor(streamType StreamType) StreamSpec {
	switch streamType {
	case StreamTypeFileUpload:
		return StreamSpec{
			Stream: jetstream.StreamConfig{
				Name:     fileUploadFamily,
				Subjects: []string{fileUploadFamily + ".*"},
				MaxMsgs:  1_000,
				Discard:  jetstream.DiscardOld,
			},
			Consumer: jetstream.ConsumerConfig{
				Name:          fileUploadFamily + "-process",
				Durable:       fileUploadFamily + "-process",
				FilterSubject: fileUploadFamily + ".process",
				AckPolicy:     jetstream.AckExplicitPolicy,
				DeliverPolicy: jetstream.DeliverAllPolicy,
			},
			PublishSubject: fileUploadFamily + ".process",
			DeliverSubject: fileUploadFamily + ".process.deliver",
		}
	default:
		panic("unknown stream type")
	}
}
