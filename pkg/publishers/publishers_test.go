package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRegistry(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeRegistry(t, "publishers.yaml", `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: HTTP
    http:
      url: " https://example.com/2 "
  - id: queue
    type: sqs
    only_failures: true
    sqs:
      uri: https://sqs.us-east-1.amazonaws.com/1/q
      region: us-east-1
      endpoint: http://localhost:4566
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "http2" || enabled[1].ID != "queue" {
		t.Fatalf("unexpected enabled publishers %#v", enabled)
	}

	hook, ok := reg.ByID("http2")
	if !ok {
		t.Fatalf("ByID(http2) not found")
	}
	if hook.Type != TypeHTTP || hook.HTTP.URL != "https://example.com/2" {
		t.Fatalf("http2 not sanitized: %#v", hook)
	}
	if hook.HTTP.Method != "POST" || hook.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("http defaults not applied: %#v", hook.HTTP)
	}

	queue, _ := reg.ByID("queue")
	if !queue.OnlyFail || queue.SQS.Region != "us-east-1" || queue.SQS.Endpoint != "http://localhost:4566" {
		t.Fatalf("sqs not decoded: %#v", queue.SQS)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeRegistry(t, "publishers.json", `{"publishers":[{"id":"t","type":"sns","sns":{"topic_arn":"arn:aws:sns:eu-west-1:1:t","region":"eu-west-1"}}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByID("t")
	if !ok || cfg.SNS.Region != "eu-west-1" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

func TestLoadRegistryRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"empty.yaml":     "publishers: []\n",
		"duplicate.yaml": "publishers:\n  - {id: a, type: http, http: {url: x}}\n  - {id: a, type: http, http: {url: y}}\n",
		"half-keys.yaml": "publishers:\n  - {id: a, type: sqs, sqs: {uri: q, region: r, access_key_id: k}}\n",
		"no-region.yaml": "publishers:\n  - {id: a, type: sns, sns: {topic_arn: t}}\n",
		"no-topic.yaml":  "publishers:\n  - {id: a, type: gcp_pubsub, gcp_pubsub: {project_id: p}}\n",
	}
	for name, raw := range cases {
		if _, err := LoadRegistry(writeRegistry(t, name, raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	if err := validatePublisherConfig(PublisherConfig{ID: "h1", Type: TypeHTTP}); err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}
