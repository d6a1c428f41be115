package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/samvad-hq/apireq/internal/config"
	"github.com/samvad-hq/apireq/internal/logger"
	"github.com/samvad-hq/apireq/internal/render"
	"github.com/samvad-hq/apireq/internal/requestfile"
	"github.com/samvad-hq/apireq/internal/storage"
	"github.com/samvad-hq/apireq/pkg/httpclient"
	"github.com/samvad-hq/apireq/pkg/publishers"
	"github.com/samvad-hq/apireq/pkg/request"
)

// Runner executes request files. It owns the executor, the validator store
// and the publisher fanout for the lifetime of the process.
type Runner struct {
	cfg      *config.Config
	executor *request.Executor
	store    storage.Store
	fanout   *publishers.Fanout
	log      logger.Logger
}

// RunOptions selects the request file and output behaviour of a single run.
type RunOptions struct {
	File string
	// Out receives rendered output; os.Stdout when nil.
	Out            io.Writer
	IncludeHeaders bool
	Query          string
	NoConditional  bool
	NoPublish      bool
}

// NewRunner builds a runner from config.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	transport, err := httpclient.New(cfg.Transport, httpclient.TransportConfig{
		Timeout:   cfg.RequestTimeout,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("init transport: %w", err)
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Runner{
		cfg:      cfg,
		executor: request.NewExecutor(request.WithTransport(transport), request.WithLogger(log)),
		store:    store,
		fanout:   fanout,
		log:      log,
	}, nil
}

// buildFanout returns nil when no publishers file is configured.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("no enabled publishers; publishing disabled", "publishers_file", path)
		return nil, nil
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, cfg := range enabled {
		summaries = append(summaries, map[string]string{"id": cfg.ID, "type": cfg.Type})
	}
	log.DebugObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Run executes the request file once and renders the outcome. A 304 answering
// validators sent by the runner is not a failure.
func (r *Runner) Run(ctx context.Context, opts RunOptions) error {
	if r == nil || r.executor == nil {
		return fmt.Errorf("runner is not initialized")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	view := render.Options{IncludeHeaders: opts.IncludeHeaders, Query: opts.Query}

	desc, err := requestfile.Load(opts.File)
	if err != nil {
		return fmt.Errorf("load request file: %w", err)
	}
	req := desc.Options()

	conditional := false
	if !opts.NoConditional && cacheable(req.Method) {
		req, conditional = r.withValidators(req)
	}

	start := time.Now()
	resp, err := r.executor.Do(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		reqErr, ok := request.AsRequestError(err)
		if !ok {
			return err
		}
		if conditional && reqErr.Status == http.StatusNotModified {
			r.logResult(req, reqErr.Status, elapsed)
			r.rememberValidators(req.URL, reqErr.Headers, true)
			r.publish(ctx, opts, publishers.NewSuccessEvent(req, &request.Response{
				Status:  reqErr.Status,
				URL:     req.URL,
				Headers: reqErr.Headers,
			}))
			render.NotModified(out, reqErr, view)
			return nil
		}

		r.logResult(req, reqErr.Status, elapsed)
		r.publish(ctx, opts, publishers.NewFailureEvent(req, reqErr))
		render.Error(out, reqErr, view)
		return fmt.Errorf("request failed: %w", err)
	}

	r.logResult(req, resp.Status, elapsed)
	if cacheable(req.Method) {
		r.rememberValidators(req.URL, resp.Headers, false)
	}
	r.publish(ctx, opts, publishers.NewSuccessEvent(req, resp))
	if err := render.Response(out, resp, view); err != nil {
		return fmt.Errorf("render response: %w", err)
	}
	return nil
}

// Close releases the store and publisher connections.
func (r *Runner) Close() {
	if r == nil {
		return
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err)
	}
}

// withValidators copies stored validators onto the request as conditional
// headers. Headers already set in the request file win.
func (r *Runner) withValidators(req request.Options) (request.Options, bool) {
	v, found, err := r.store.Validators(req.URL)
	if err != nil {
		r.log.WarnObj("validator lookup failed", "error", err)
		return req, false
	}
	if !found {
		return req, false
	}

	headers := make(map[string]string, len(req.Headers)+2)
	for k, val := range req.Headers {
		headers[k] = val
	}
	added := false
	if v.ETag != "" && !hasHeader(headers, "If-None-Match") {
		headers["If-None-Match"] = v.ETag
		added = true
	}
	if v.LastModified != "" && !hasHeader(headers, "If-Modified-Since") {
		headers["If-Modified-Since"] = v.LastModified
		added = true
	}
	req.Headers = headers
	return req, added
}

// rememberValidators stores the validators a response carried. A bare 304
// keeps the validators that matched.
func (r *Runner) rememberValidators(url string, headers map[string]string, notModified bool) {
	v := storage.Validators{ETag: headers["etag"], LastModified: headers["last-modified"]}
	if v.Empty() && notModified {
		return
	}
	if err := r.store.PutValidators(url, v); err != nil {
		r.log.WarnObj("validator store failed", "error", err)
	}
}

func (r *Runner) publish(ctx context.Context, opts RunOptions, evt publishers.Event) {
	if opts.NoPublish || r.fanout.Size() == 0 {
		return
	}
	delivered, err := r.fanout.Publish(ctx, evt)
	if err != nil {
		r.log.WarnObj("event publish incomplete", "publish_result", map[string]any{
			"event_id":  evt.ID,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	r.log.DebugObj("event published", "publish_result", map[string]any{
		"event_id":  evt.ID,
		"delivered": delivered,
	})
}

func (r *Runner) logResult(req request.Options, status int, elapsed time.Duration) {
	r.log.InfoObj("request executed", "request_result", map[string]any{
		"method":     strings.ToUpper(req.Method),
		"url":        req.URL,
		"status":     status,
		"elapsed_ms": elapsed.Milliseconds(),
	})
}

func cacheable(method string) bool {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodGet, http.MethodHead:
		return true
	default:
		return false
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
