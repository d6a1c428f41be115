package publishers

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestGCPPubSubPublisherPublishes(t *testing.T) {
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "topic-1"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newGCPPubSubPublisher(ctx, PublisherConfig{
		ID:        "pubsub",
		Type:      TypeGCPPubSub,
		GCPPubSub: &GCPPubSubConfig{ProjectID: "test-project", Topic: "topic-1"},
	}, nil)
	if err != nil {
		t.Fatalf("newGCPPubSubPublisher: %v", err)
	}
	defer pub.(*gcpPubSubPublisher).Close()

	evt := Event{ID: "evt-3", Method: "GET", Status: 200, OK: true}
	if err := pub.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["event_id"] != "evt-3" {
		t.Fatalf("attributes = %#v", msgs[0].Attributes)
	}
	var got Event
	if err := json.Unmarshal(msgs[0].Data, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.Status != 200 || !got.OK {
		t.Fatalf("payload = %#v", got)
	}
}
