package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/peterldowns/testy/check"

	"github.com/aaronwang/auction-house/internal/models"
)

type archiveRecorder struct {
	events []*models.BidEvent
	err    error
}

func (a *archiveRecorder) InsertBidEvent(_ context.Context, event *models.BidEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, event)
	return nil
}

// streamMsg is a delivered JetStream message with recorded dispositions.
type streamMsg struct {
	data   []byte
	acked  bool
	termed bool
}

func (m *streamMsg) Metadata() (*jetstream.MsgMetadata, error) { return &jetstream.MsgMetadata{}, nil }
func (m *streamMsg) Data() []byte                              { return m.data }
func (m *streamMsg) Headers() nats.Header                      { return nil }
func (m *streamMsg) Subject() string                           { return "auction.events.a1" }
func (m *streamMsg) Reply() string                             { return "" }
func (m *streamMsg) Ack() error                                { m.acked = true; return nil }
func (m *streamMsg) DoubleAck(context.Context) error           { m.acked = true; return nil }
func (m *streamMsg) Nak() error                                { return nil }
func (m *streamMsg) NakWithDelay(time.Duration) error          { return nil }
func (m *streamMsg) InProgress() error                         { return nil }
func (m *streamMsg) Term() error                               { m.termed = true; return nil }
func (m *streamMsg) TermWithReason(string) error               { m.termed = true; return nil }

func bidEventPayload(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(&models.BidEvent{
		EventID:   "ev-1",
		Type:      models.EventBidPlaced,
		AuctionID: "a1",
		BidderID:  "alice",
		Amount:    110,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return data
}

func TestHandleMessage_ArchivesAndAcks(t *testing.T) {
	archive := &archiveRecorder{}
	c := &NATSConsumer{db: archive}
	msg := &streamMsg{data: bidEventPayload(t)}

	c.handleMessage(context.Background(), msg)

	check.Equal(t, 1, len(archive.events))
	check.Equal(t, "ev-1", archive.events[0].EventID)
	check.True(t, msg.acked)
	check.False(t, msg.termed)
}

func TestHandleMessage_ArchiveFailureLeavesMessageUnacked(t *testing.T) {
	archive := &archiveRecorder{err: errors.New("connection refused")}
	c := &NATSConsumer{db: archive}
	msg := &streamMsg{data: bidEventPayload(t)}

	c.handleMessage(context.Background(), msg)

	// Unacked: the stream redelivers after the ack wait.
	check.False(t, msg.acked)
	check.False(t, msg.termed)
}

func TestHandleMessage_MalformedPayloadIsTerminated(t *testing.T) {
	archive := &archiveRecorder{}
	c := &NATSConsumer{db: archive}
	msg := &streamMsg{data: []byte("not json")}

	c.handleMessage(context.Background(), msg)

	check.Equal(t, 0, len(archive.events))
	check.False(t, msg.acked)
	check.True(t, msg.termed)
}
