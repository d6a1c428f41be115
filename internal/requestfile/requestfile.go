package requestfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/apireq/pkg/httpclient"
	"github.com/samvad-hq/apireq/pkg/request"
	"gopkg.in/yaml.v3"
)

const defaultMethod = "GET"

// Descriptor is a request descriptor as written in a YAML or JSON file.
type Descriptor struct {
	Method         string            `json:"method" yaml:"method"`
	URL            string            `json:"url" yaml:"url"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Body           any               `json:"body" yaml:"body"`
	Redirect       string            `json:"redirect" yaml:"redirect"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	Extensions     map[string]string `json:"extensions" yaml:"extensions"`
}

// Load reads, sanitizes and validates a request file.
func Load(path string) (Descriptor, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Descriptor{}, errors.New("request file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("open request file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read request file: %w", err)
	}

	desc, err := Parse(raw, filepath.Ext(path))
	if err != nil {
		return Descriptor{}, err
	}
	desc = sanitize(desc)
	if err := validate(desc); err != nil {
		return Descriptor{}, fmt.Errorf("request file %s: %w", path, err)
	}
	return desc, nil
}

// Parse decodes request file content. ext selects the decoder; an empty ext
// tries YAML then JSON.
func Parse(data []byte, ext string) (Descriptor, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var desc Descriptor
		if err := d.fn(data, &desc); err == nil {
			desc.Body = normalizeBody(desc.Body)
			return desc, nil
		}
	}

	return Descriptor{}, errors.New("request file format not recognized (expected YAML or JSON)")
}

// normalizeBody converts YAML's map[interface{}]interface{} nodes (older
// decoders, nested anchors) into JSON-encodable maps.
func normalizeBody(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeBody(val)
		}
		return out
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeBody(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeBody(val)
		}
		return t
	default:
		return v
	}
}

// sanitize trims and normalizes the descriptor fields.
func sanitize(desc Descriptor) Descriptor {
	desc.Method = strings.ToUpper(strings.TrimSpace(desc.Method))
	if desc.Method == "" {
		desc.Method = defaultMethod
	}
	desc.URL = strings.TrimSpace(desc.URL)
	desc.Redirect = strings.ToLower(strings.TrimSpace(desc.Redirect))
	desc.Headers = sanitizeMap(desc.Headers)
	desc.Extensions = sanitizeMap(desc.Extensions)
	if desc.TimeoutSeconds < 0 {
		desc.TimeoutSeconds = 0
	}
	return desc
}

// sanitizeMap trims and removes empty entries.
func sanitizeMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validate checks that required fields are present.
func validate(desc Descriptor) error {
	if desc.URL == "" {
		return errors.New("url is required")
	}
	if _, err := httpclient.ParseRedirectPolicy(desc.Redirect); err != nil {
		return err
	}
	return nil
}

// Options converts the file contents into request.Options.
func (s Descriptor) Options() request.Options {
	opts := request.Options{
		Method:   s.Method,
		URL:      s.URL,
		Headers:  s.Headers,
		Body:     s.Body,
		Redirect: s.Redirect,
	}
	if s.TimeoutSeconds > 0 || len(s.Extensions) > 0 {
		opts.Request = &request.TransportOptions{
			Timeout:    time.Duration(s.TimeoutSeconds) * time.Second,
			Extensions: s.Extensions,
		}
	}
	return opts
}
