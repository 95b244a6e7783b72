package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "astromatch/1.0"
	defaultMinInterval  = time.Second
	defaultTimeout      = 10 * time.Second
)

type NominatimOptions struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

type NominatimOption func(*NominatimOptions)

func WithBaseURL(u string) NominatimOption {
	return func(o *NominatimOptions) { o.BaseURL = u }
}

func WithUserAgent(ua string) NominatimOption {
	return func(o *NominatimOptions) { o.UserAgent = ua }
}

// WithMinInterval sets the minimum spacing between two requests from this client.
func WithMinInterval(d time.Duration) NominatimOption {
	return func(o *NominatimOptions) { o.MinInterval = d }
}

func WithTimeout(d time.Duration) NominatimOption {
	return func(o *NominatimOptions) { o.Timeout = d }
}

func WithHTTPClient(c *http.Client) NominatimOption {
	return func(o *NominatimOptions) { o.HTTPClient = c }
}

func WithNominatimLogger(l *zap.Logger) NominatimOption {
	return func(o *NominatimOptions) { o.Logger = l }
}

// NominatimClient queries the OpenStreetMap search API. Each client keeps its own
// request spacing; two clients never throttle each other.
type NominatimClient struct {
	baseURL     string
	userAgent   string
	minInterval time.Duration
	client      *http.Client
	logger      *zap.Logger

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewNominatimClient(opts ...NominatimOption) *NominatimClient {
	o := &NominatimOptions{
		BaseURL:     DefaultNominatimURL,
		UserAgent:   defaultUserAgent,
		MinInterval: defaultMinInterval,
		Timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &NominatimClient{
		baseURL:     o.BaseURL,
		userAgent:   o.UserAgent,
		minInterval: o.MinInterval,
		client:      o.HTTPClient,
		logger:      o.Logger.Named("nominatim"),
		now:         time.Now,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search returns the best match for query, or ErrNotFound.
func (c *NominatimClient) Search(ctx context.Context, query string) (Location, error) {
	if err := c.wait(ctx); err != nil {
		return Location{}, err
	}

	u := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Location{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(places) == 0 {
		return Location{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Location{}, fmt.Errorf("parse latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Location{}, fmt.Errorf("parse longitude %q: %w", places[0].Lon, err)
	}

	c.logger.Debug("nominatim hit", zap.String("query", query), zap.String("display_name", places[0].DisplayName))

	return Location{
		Latitude:            lat,
		Longitude:           lon,
		TimezoneOffsetHours: EstimateTimezoneOffset(lon),
		DisplayName:         places[0].DisplayName,
	}, nil
}

// EstimateTimezoneOffset approximates a UTC offset from longitude alone.
func EstimateTimezoneOffset(longitude float64) float64 {
	return math.Round(longitude / 15)
}

// wait blocks until minInterval has passed since this client's previous request.
func (c *NominatimClient) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.last.IsZero() {
		if d := c.minInterval - c.now().Sub(c.last); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	c.last = c.now()
	return nil
}
