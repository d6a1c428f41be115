package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSPublisherSendsFailureEvent(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      discardLogger{},
	}

	evt := Event{ID: "evt-2", Method: "POST", Status: 404, Message: "Not Found"}
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	if got := aws.ToString(client.input.MessageAttributes["outcome"].StringValue); got != "failure" {
		t.Fatalf("outcome = %q", got)
	}
	if got := aws.ToString(client.input.MessageAttributes["event_id"].StringValue); got != "evt-2" {
		t.Fatalf("event_id = %q", got)
	}
	if msg := aws.ToString(client.input.Message); !strings.Contains(msg, `"message":"Not Found"`) {
		t.Fatalf("Message missing error text: %s", msg)
	}
}

func TestSNSPublisherReturnsPublishError(t *testing.T) {
	pub := &snsPublisher{
		id:     "topic",
		client: &fakeSNSClient{err: errors.New("boom")},
		log:    discardLogger{},
	}
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
