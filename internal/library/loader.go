package library

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/promptdeck/pkg/models"
)

const (
	// CacheBustParam is the query parameter appended to remote dataset URLs.
	CacheBustParam = "v"

	defaultFetchTimeout = 10 * time.Second
	maxDatasetBytes     = 32 << 20
)

// Options describes where the dataset comes from.
type Options struct {
	Source     string // file path or http(s) URL of the dataset JSON
	CacheBust  string // value for the cache-busting parameter; a timestamp when empty
	PackDir    string // optional directory of YAML overlays
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64 // dataset size limit; 32 MiB when zero
}

func (o Options) maxBytes() int64 {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return maxDatasetBytes
}

func errTooLarge(opts Options) error {
	return &LoadError{Source: opts.Source, Err: fmt.Errorf("dataset too large: over %d bytes", opts.maxBytes())}
}

// Load fetches the dataset and overlays, merges them and builds a Catalog.
// Every failure is returned as a *LoadError; no partial catalogue is built.
func Load(ctx context.Context, opts Options) (*Catalog, error) {
	var (
		lib   models.Library
		packs []*Pack
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lib, err = fetchLibrary(gctx, opts)
		return err
	})
	g.Go(func() error {
		var err error
		packs, err = LoadPackDir(opts.PackDir)
		if err != nil {
			return &LoadError{Source: opts.PackDir, Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog := NewCatalog(Merge(lib, packs...))
	log.Debug().
		Str("source", opts.Source).
		Int("packs", len(packs)).
		Int("prompts", catalog.Count()).
		Str("version", catalog.Version()).
		Msg("Prompt library loaded")
	return catalog, nil
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// CacheBustURL returns source with the cache-busting parameter set to v.
func CacheBustURL(source, v string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(CacheBustParam, v)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func fetchLibrary(ctx context.Context, opts Options) (models.Library, error) {
	if opts.Source == "" {
		return models.Library{}, &LoadError{Source: "<unset>", Err: fmt.Errorf("no dataset source configured")}
	}

	var (
		data []byte
		err  error
	)
	if IsRemote(opts.Source) {
		data, err = fetchRemote(ctx, opts)
	} else {
		data, err = os.ReadFile(opts.Source)
		if err != nil {
			err = &LoadError{Source: opts.Source, Err: err}
		} else if int64(len(data)) > opts.maxBytes() {
			err = errTooLarge(opts)
		}
	}
	if err != nil {
		return models.Library{}, err
	}

	return Decode(opts.Source, data)
}

// Decode parses a dataset document.
func Decode(source string, data []byte) (models.Library, error) {
	var lib models.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return models.Library{}, &LoadError{Source: source, Err: fmt.Errorf("decode dataset: %w", err)}
	}
	return lib, nil
}

func fetchRemote(ctx context.Context, opts Options) ([]byte, error) {
	bust := opts.CacheBust
	if bust == "" {
		bust = time.Now().UTC().Format("20060102150405")
	}
	target, err := CacheBustURL(opts.Source, bust)
	if err != nil {
		return nil, &LoadError{Source: opts.Source, Err: fmt.Errorf("parse dataset url: %w", err)}
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &LoadError{Source: opts.Source, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: opts.Source, Err: fmt.Errorf("fetch dataset: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Source: opts.Source, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	// One byte past the limit tells an oversized body from one that fits exactly.
	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.maxBytes()+1))
	if err != nil {
		return nil, &LoadError{Source: opts.Source, Err: fmt.Errorf("read response body: %w", err)}
	}
	if int64(len(body)) > opts.maxBytes() {
		return nil, errTooLarge(opts)
	}
	return body, nil
}
