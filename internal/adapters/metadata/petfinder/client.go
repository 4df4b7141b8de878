// Package petfinder consulta tipos y razas en la API de Petfinder.
package petfinder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/platform/cache"
	"pet-adoption-marketplace/internal/platform/httpclient"
	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.petfinder.com/v2"

	// tipos y razas casi no cambian
	DefaultTTL = 30 * 24 * time.Hour

	cachePrefix = "petfinder:"
)

var ErrNotConfigured = errors.New("petfinder client not configured")

// Config viene de env: PETFINDER_BASE_URL, PETFINDER_CLIENT_ID, PETFINDER_CLIENT_SECRET,
// PETFINDER_CACHE_TTL, PETFINDER_RPS.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string

	TTL     time.Duration
	RPS     float64 // <= 0 => sin límite
	Timeout time.Duration

	// Cache opcional; default en memoria.
	Cache cache.Store
	// Transport opcional (tests).
	Transport http.RoundTripper
}

type Client struct {
	http       *httpclient.Client
	cache      cache.Store
	ttl        time.Duration
	configured bool
	log        logger.Logger
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	store := cfg.Cache
	if store == nil {
		store = cache.NewMemory()
	}

	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	transport := cfg.Transport
	if cfg.RPS > 0 {
		transport = httpclient.RateLimited(transport, rate.NewLimiter(rate.Limit(cfg.RPS), 1))
	}
	if transport == nil {
		transport = http.DefaultTransport
	}

	cc := clientcredentials.Config{
		ClientID:     strings.TrimSpace(cfg.ClientID),
		ClientSecret: strings.TrimSpace(cfg.ClientSecret),
		TokenURL:     hc.BaseURL + "/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	// el token se pide con el mismo transport (rate limit incluido)
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Transport: transport,
		Timeout:   hc.HTTP.Timeout,
	})
	hc.HTTP.Transport = &oauth2.Transport{
		Source: cc.TokenSource(tokenCtx),
		Base:   transport,
	}

	return &Client{
		http:       hc,
		cache:      store,
		ttl:        ttl,
		configured: cc.ClientID != "" && cc.ClientSecret != "",
		log:        log.With(map[string]any{"component": "petfinder"}),
	}, nil
}

func (c *Client) IsConfigured() bool { return c != nil && c.configured }

type typesResponse struct {
	Types []struct {
		Name string `json:"name"`
	} `json:"types"`
}

type breedsResponse struct {
	Breeds []struct {
		Name string `json:"name"`
	} `json:"breeds"`
}

// Types devuelve los nombres de tipo de animal.
func (c *Client) Types(ctx context.Context) ([]string, error) {
	return c.cached(ctx, "types", func() ([]string, error) {
		var resp typesResponse
		if err := c.http.GetJSON(ctx, "/types", nil, &resp); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(resp.Types))
		for _, t := range resp.Types {
			out = append(out, t.Name)
		}
		return out, nil
	})
}

// Breeds devuelve las razas de un tipo. Respuesta sin lista => vacía.
func (c *Client) Breeds(ctx context.Context, animalType string) ([]string, error) {
	animalType = strings.TrimSpace(animalType)
	if animalType == "" {
		return []string{}, nil
	}
	return c.cached(ctx, "breeds-"+animalType, func() ([]string, error) {
		var resp breedsResponse
		path := "/types/" + url.PathEscape(strings.ToLower(animalType)) + "/breeds"
		if err := c.http.GetJSON(ctx, path, nil, &resp); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(resp.Breeds))
		for _, b := range resp.Breeds {
			out = append(out, b.Name)
		}
		return out, nil
	})
}

func (c *Client) cached(ctx context.Context, key string, fetch func() ([]string, error)) ([]string, error) {
	if raw, ok := c.cache.Get(ctx, cachePrefix+key); ok {
		var out []string
		if err := json.Unmarshal(raw, &out); err == nil {
			metrics.MetadataCache.WithLabelValues("hit").Inc()
			return out, nil
		}
		// entrada corrupta: se ignora y se vuelve a pedir
		c.cache.Delete(ctx, cachePrefix+key)
	}
	metrics.MetadataCache.WithLabelValues("miss").Inc()

	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	out, err := fetch()
	if err != nil {
		return nil, fmt.Errorf("petfinder %s: %w", key, err)
	}

	raw, err := json.Marshal(out)
	if err == nil {
		c.cache.Set(ctx, cachePrefix+key, raw, c.ttl)
	} else {
		c.log.Warn("cache write failed", map[string]any{"key": key, "err": err})
	}
	return out, nil
}
