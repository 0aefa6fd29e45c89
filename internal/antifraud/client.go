// Package antifraud calls the external fraud-scoring provider. The gateway
// degrades to deny on provider outage: a broken scorer means nobody redeems,
// not a crashed request.
package antifraud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NikSneMC/prod-2025-promo-api/internal/cache"
	"github.com/NikSneMC/prod-2025-promo-api/internal/metrics"
)

const (
	antifraudNamespace = "antifraud"
	maxAttempts        = 3

	// Provider timestamps carry millisecond precision and no offset.
	providerTimeLayout = "2006-01-02T15:04:05.000"
)

type request struct {
	UserEmail string `json:"user_email"`
	PromoID   string `json:"promo_id"`
}

type response struct {
	OK         bool    `json:"ok"`
	CacheUntil *string `json:"cache_until"`
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	cache          *cache.Client
	attemptTimeout time.Duration
	logger         *zap.Logger
}

type Config struct {
	Address        string
	AttemptTimeout time.Duration
}

func NewClient(cfg Config, cacheClient *cache.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 2 * time.Second
	}

	return &Client{
		baseURL: "http://" + cfg.Address,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		cache:          cacheClient,
		attemptTimeout: cfg.AttemptTimeout,
		logger:         logger,
	}
}

// Ask reports whether the user may redeem the promo. Cached decisions are
// honored without a network call; an unreachable or erroring provider denies.
func (c *Client) Ask(ctx context.Context, email string, promoID uuid.UUID) (bool, error) {
	if cached, ok, err := c.cache.Get(ctx, antifraudNamespace, email); err != nil {
		return false, err
	} else if ok {
		metrics.IncFraudDecision("cached")
		allowed, parseErr := strconv.ParseBool(cached)
		return allowed && parseErr == nil, nil
	}

	body, err := json.Marshal(request{UserEmail: email, PromoID: promoID.String()})
	if err != nil {
		return false, err
	}

	resp := c.callWithRetries(ctx, body)
	if resp == nil {
		metrics.IncFraudDecision("provider_down")
		c.logger.Warn("antifraud provider unreachable, denying", zap.String("email", email))
		return false, nil
	}

	if resp.CacheUntil != nil {
		until, parseErr := time.Parse(providerTimeLayout, *resp.CacheUntil)
		if parseErr != nil {
			// Provider-format faults deny like transport faults do; the
			// decision is simply not cached.
			metrics.IncFraudDecision("bad_timestamp")
			c.logger.Warn("antifraud cache_until unparsable, denying",
				zap.String("cache_until", *resp.CacheUntil),
				zap.Error(parseErr),
			)
			return false, nil
		}

		if ttl := time.Until(until.UTC()); ttl > 0 {
			if err := c.cache.Set(ctx, antifraudNamespace, email, strconv.FormatBool(resp.OK), ttl); err != nil {
				return false, err
			}
		}
	}

	metrics.IncFraudDecision("provider")
	return resp.OK, nil
}

func (c *Client) callWithRetries(ctx context.Context, body []byte) *response {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := c.callOnce(ctx, body)
		if err == nil {
			return resp
		}
		c.logger.Debug("antifraud attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil
}

func (c *Client) callOnce(ctx context.Context, body []byte) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/validate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close() //nolint:errcheck

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("antifraud returned status %s", httpResp.Status)
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
