package render

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jmespath/go-jmespath"
	"github.com/samvad-hq/apireq/pkg/request"
)

const previewBytes = 64

// ErrQueryNeedsJSON is returned when a query is set but the body is not JSON.
var ErrQueryNeedsJSON = errors.New("query requires a JSON response body")

// Options controls what is written.
type Options struct {
	IncludeHeaders bool
	// Query is a JMESPath expression applied to JSON bodies.
	Query string
}

// Response writes a successful envelope.
func Response(w io.Writer, resp *request.Response, opts Options) error {
	if resp == nil {
		return nil
	}
	writeStatus(w, resp.Status, "")
	if opts.IncludeHeaders {
		writeHeaders(w, resp.Headers)
	}
	return writeBody(w, resp.Data, resp.Headers["content-type"], opts.Query)
}

// NotModified writes the outcome of a conditional request that hit a 304.
func NotModified(w io.Writer, err *request.RequestError, opts Options) {
	writeStatus(w, http.StatusNotModified, "")
	if err != nil && opts.IncludeHeaders {
		writeHeaders(w, err.Headers)
	}
	fmt.Fprintln(w, "not modified since last request")
}

// Error writes a failed request, including API error details when present.
func Error(w io.Writer, err *request.RequestError, opts Options) {
	if err == nil {
		return
	}
	writeStatus(w, err.Status, err.Request.Method+" "+err.Request.URL)
	if opts.IncludeHeaders {
		writeHeaders(w, err.Headers)
	}
	fmt.Fprintf(w, "error: %s\n", err.Message)
	if err.DocumentationURL != "" {
		fmt.Fprintf(w, "documentation: %s\n", err.DocumentationURL)
	}
}

func writeStatus(w io.Writer, status int, suffix string) {
	line := fmt.Sprintf("HTTP %d", status)
	if text := http.StatusText(status); text != "" {
		line += " " + text
	}
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		line += " (" + suffix + ")"
	}
	fmt.Fprintln(w, line)
}

func writeHeaders(w io.Writer, headers map[string]string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s: %s\n", name, headers[name])
	}
	fmt.Fprintln(w)
}

func writeBody(w io.Writer, data any, contentType, query string) error {
	if data != nil && strings.Contains(contentType, "application/json") {
		return writeJSON(w, data, query)
	}
	switch body := data.(type) {
	case nil:
		if query != "" {
			return ErrQueryNeedsJSON
		}
		return nil
	case string:
		if query != "" {
			return ErrQueryNeedsJSON
		}
		if strings.Contains(contentType, "text/html") {
			return writeHTMLSummary(w, body)
		}
		fmt.Fprintln(w, body)
		return nil
	case []byte:
		if query != "" {
			return ErrQueryNeedsJSON
		}
		writeBinary(w, body)
		return nil
	default:
		return writeJSON(w, body, query)
	}
}

func writeJSON(w io.Writer, data any, query string) error {
	if query != "" {
		jp, err := jmespath.Compile(query)
		if err != nil {
			return fmt.Errorf("invalid JMESPath expression %q: %w", query, err)
		}
		if data, err = jp.Search(data); err != nil {
			return fmt.Errorf("JMESPath search failed: %w", err)
		}
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeHTMLSummary(w io.Writer, body string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	meta := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	title := firstNonEmpty(meta(`meta[property="og:title"]`), doc.Find("title").First().Text())
	desc := firstNonEmpty(meta(`meta[property="og:description"]`), meta(`meta[name="description"]`))

	fmt.Fprintf(w, "<html document, %d bytes>\n", len(body))
	if title != "" {
		fmt.Fprintf(w, "title: %s\n", title)
	}
	if desc != "" {
		fmt.Fprintf(w, "description: %s\n", desc)
	}
	return nil
}

func writeBinary(w io.Writer, body []byte) {
	fmt.Fprintf(w, "<%d bytes>\n", len(body))
	if len(body) == 0 {
		return
	}
	preview := body
	if len(preview) > previewBytes {
		preview = preview[:previewBytes]
	}
	fmt.Fprint(w, hex.Dump(preview))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
