package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

const gameType = "gomoku"

var ErrServiceUnavailable = errors.New("stats service unavailable")

// Client talks to the external stats service. Every lookup degrades to zero
// stats on failure or timeout; a broken stats backend must never break room
// listing or game-over handling.
type Client struct {
	logger  *slog.Logger
	baseURL string
	timeout time.Duration
	http    *http.Client
	cache   repository.StatsCache
}

func NewClient(logger *slog.Logger, baseURL string, timeout time.Duration, cache repository.StatsCache) *Client {
	return &Client{
		logger:  logger.With("component", "stats"),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
		cache:   cache,
	}
}

// PlayerStats returns the record for one user. It never returns an error to
// the caller: cache miss plus service failure yields the zero record.
func (that *Client) PlayerStats(ctx context.Context, userID string) *entity.PlayerStats {
	log := that.logger.With("method", "PlayerStats")

	if that.cache != nil {
		if cached, err := that.cache.Get(ctx, userID); err == nil {
			return cached
		}
	}

	fetched, err := that.fetch(ctx, userID)
	if err != nil {
		log.Debug("stats lookup degraded to zeros", "userID", userID, "error", err)
		return &entity.PlayerStats{}
	}

	if that.cache != nil {
		if err = that.cache.Put(ctx, userID, fetched); err != nil {
			log.Warn("failed to cache stats", "userID", userID, "error", err)
		}
	}

	return fetched
}

// RecordResult reports a finished game. Fire and forget: failures are logged,
// never surfaced to players.
func (that *Client) RecordResult(ctx context.Context, winnerUserID, loserUserID string) {
	log := that.logger.With("method", "RecordResult")

	if that.baseURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, that.timeout)
	defer cancel()

	body := fmt.Sprintf(`{"game":%q,"winner":%q,"loser":%q}`, gameType, winnerUserID, loserUserID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.baseURL+"/results", strings.NewReader(body))
	if err != nil {
		log.Error("failed to build result request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.http.Do(req)
	if err != nil {
		log.Error("failed to record game result", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		log.Error("stats service rejected result", "status", resp.StatusCode)
	}
}

func (that *Client) fetch(ctx context.Context, userID string) (*entity.PlayerStats, error) {
	if that.baseURL == "" {
		return nil, ErrServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, that.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/stats/%s?game=%s", that.baseURL, url.PathEscape(userID), gameType)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stats request: %w", err)
	}

	resp, err := that.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var stats entity.PlayerStats
	if err = json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}

	return &stats, nil
}
