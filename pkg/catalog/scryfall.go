package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelsheet/pkg/httputil"
)

// Scryfall endpoints and request pacing.
const (
	DefaultBaseURL   = "https://api.scryfall.com"
	DefaultUserAgent = "labelsheet/1.0"

	// DefaultRateLimit keeps requests inside Scryfall's 10 per second guideline.
	DefaultRateLimit = 75 * time.Millisecond
)

// Source provides catalog data. Implementations must be safe for
// concurrent use.
type Source interface {
	// FetchAll returns every set the source knows about.
	FetchAll(ctx context.Context) ([]Set, error)
	// FetchAsset downloads the image behind ref, usually a symbol URI.
	FetchAsset(ctx context.Context, ref string) ([]byte, error)
	// FetchSymbology returns the card symbol table.
	FetchSymbology(ctx context.Context) (Symbology, error)
}

// ScryfallClient is the [Source] backed by the Scryfall REST API.
type ScryfallClient struct {
	http    *httputil.Client
	baseURL string
	logger  *log.Logger
}

// ScryfallOption configures a ScryfallClient.
type ScryfallOption func(*scryfallConfig)

type scryfallConfig struct {
	baseURL   string
	userAgent string
	rate      time.Duration
	timeout   time.Duration
	logger    *log.Logger
	opts      []httputil.ClientOption
}

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) ScryfallOption {
	return func(c *scryfallConfig) { c.baseURL = u }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ScryfallOption {
	return func(c *scryfallConfig) { c.userAgent = ua }
}

// WithRequestInterval sets the minimum spacing between requests.
func WithRequestInterval(d time.Duration) ScryfallOption {
	return func(c *scryfallConfig) { c.rate = d }
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) ScryfallOption {
	return func(c *scryfallConfig) { c.timeout = d }
}

// WithScryfallLogger sets the logger.
func WithScryfallLogger(l *log.Logger) ScryfallOption {
	return func(c *scryfallConfig) { c.logger = l }
}

// WithClientOptions passes extra options to the underlying HTTP client.
func WithClientOptions(opts ...httputil.ClientOption) ScryfallOption {
	return func(c *scryfallConfig) { c.opts = append(c.opts, opts...) }
}

// NewScryfallClient creates a client for the public Scryfall API.
func NewScryfallClient(opts ...ScryfallOption) *ScryfallClient {
	cfg := scryfallConfig{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		rate:      DefaultRateLimit,
		timeout:   httputil.DefaultTimeout,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	headers := map[string]string{
		"User-Agent": cfg.userAgent,
		"Accept":     "application/json;q=0.9,*/*;q=0.8",
	}
	clientOpts := append([]httputil.ClientOption{
		httputil.WithRateLimit(cfg.rate),
		httputil.WithTimeout(cfg.timeout),
	}, cfg.opts...)
	return &ScryfallClient{
		http:    httputil.NewClient(headers, clientOpts...),
		baseURL: cfg.baseURL,
		logger:  cfg.logger,
	}
}

type setList struct {
	Data     []Set  `json:"data"`
	HasMore  bool   `json:"has_more"`
	NextPage string `json:"next_page"`
}

// maxPages guards against a next_page loop.
const maxPages = 20

// FetchAll returns every valid set. Sets failing [Set.Validate] are
// skipped with a warning.
func (c *ScryfallClient) FetchAll(ctx context.Context) ([]Set, error) {
	var sets []Set
	next := c.baseURL + "/sets"
	for page := 0; next != "" && page < maxPages; page++ {
		var list setList
		if err := c.http.GetJSON(ctx, next, &list); err != nil {
			return nil, fmt.Errorf("fetch sets: %w", err)
		}
		for _, s := range list.Data {
			if err := s.Validate(); err != nil {
				c.logger.Warn("skipping invalid set", "err", err)
				continue
			}
			sets = append(sets, s)
		}
		next = ""
		if list.HasMore {
			next = list.NextPage
		}
	}
	c.logger.Debug("fetched sets", "count", len(sets))
	return sets, nil
}

// FetchAsset downloads ref.
func (c *ScryfallClient) FetchAsset(ctx context.Context, ref string) ([]byte, error) {
	data, err := c.http.GetBytes(ctx, ref)
	if err != nil {
		if stderrors.Is(err, httputil.ErrNotFound) {
			return nil, fmt.Errorf("%w: asset %s", err, ref)
		}
		return nil, err
	}
	return data, nil
}

type symbolList struct {
	Data []struct {
		Object string `json:"object"`
		Symbol string `json:"symbol"`
		SVGURI string `json:"svg_uri"`
	} `json:"data"`
}

// FetchSymbology returns the symbol table. Entries without an SVG are
// left out.
func (c *ScryfallClient) FetchSymbology(ctx context.Context) (Symbology, error) {
	var list symbolList
	if err := c.http.GetJSON(ctx, c.baseURL+"/symbology", &list); err != nil {
		return nil, fmt.Errorf("fetch symbology: %w", err)
	}
	sym := make(Symbology, len(list.Data))
	for _, s := range list.Data {
		if s.Object != "card_symbol" || s.Symbol == "" || s.SVGURI == "" {
			continue
		}
		sym[s.Symbol] = s.SVGURI
	}
	return sym, nil
}
