package hltb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	baseURL   = "https://howlongtobeat.com"
	userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0"

	// nextBuildID changes when howlongtobeat redeploys; update it when
	// game detail fetches start returning 404.
	nextBuildID = "PulRqjuI9R3KSc-k9tS7i"
)

// Client talks to the undocumented howlongtobeat.com API.
type Client struct {
	userID     string
	httpClient *http.Client
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new howlongtobeat client for the given user
func NewClient(userID string, logger *logrus.Logger) *Client {
	return &Client{
		userID:     userID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      gocache.New(24*time.Hour, 1*time.Hour),
		logger:     logger,
	}
}

// Game is one item from the user's game list.
type Game struct {
	ID       int64
	Title    string
	Platform string
	Backlog  bool
	Playing  bool
	Score    int
}

// GameDetail holds the per-game data needed for estimation.
type GameDetail struct {
	Platforms     []string
	ReleaseDate   *time.Time
	MainPlusExtra int // seconds, 0 when unknown
}

// UserGames fetches the user's game list across all lists.
func (c *Client) UserGames(ctx context.Context) ([]Game, error) {
	body := map[string]any{
		"user_id":         c.userID,
		"lists":           []string{"playing", "replays", "backlog", "completed", "retired"},
		"set_playstyle":   "comp_all_h",
		"name":            "",
		"platform":        "",
		"storefront":      "",
		"sortBy":          "",
		"sortFlip":        0,
		"view":            "",
		"random":          0,
		"limit":           1000,
		"currentUserHome": false,
	}

	var data struct {
		Data struct {
			GamesList []struct {
				GameID      int64  `json:"game_id"`
				CustomTitle string `json:"custom_title"`
				Platform    string `json:"platform"`
				ListBacklog int    `json:"list_backlog"`
				ListPlaying int    `json:"list_playing"`
				ReviewScore int    `json:"review_score_g"`
			} `json:"gamesList"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/api/user/%s/games/list", c.userID)
	if err := c.doRequest(ctx, "POST", path, body, &data); err != nil {
		return nil, fmt.Errorf("failed to get games list: %w", err)
	}

	games := make([]Game, 0, len(data.Data.GamesList))
	for _, g := range data.Data.GamesList {
		games = append(games, Game{
			ID:       g.GameID,
			Title:    g.CustomTitle,
			Platform: g.Platform,
			Backlog:  g.ListBacklog != 0,
			Playing:  g.ListPlaying != 0,
			Score:    g.ReviewScore,
		})
	}
	return games, nil
}

// GameDetail fetches platforms, release date and the completionist-average
// playtime for a game. Results are cached.
func (c *Client) GameDetail(ctx context.Context, gameID int64) (GameDetail, error) {
	cacheKey := fmt.Sprintf("game:%d", gameID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(GameDetail), nil
	}

	var data struct {
		PageProps struct {
			Game struct {
				Data struct {
					Game []struct {
						ProfilePlatform string `json:"profile_platform"`
						ReleaseWorld    string `json:"release_world"`
						CompPlusAvg     int    `json:"comp_plus_avg"`
					} `json:"game"`
				} `json:"data"`
			} `json:"game"`
		} `json:"pageProps"`
	}
	path := fmt.Sprintf("/_next/data/%s/game/%d.json", nextBuildID, gameID)
	if err := c.doRequest(ctx, "GET", path, nil, &data); err != nil {
		return GameDetail{}, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	if len(data.PageProps.Game.Data.Game) == 0 {
		return GameDetail{}, fmt.Errorf("game %d: empty detail response", gameID)
	}

	raw := data.PageProps.Game.Data.Game[0]
	detail := GameDetail{
		Platforms:     splitPlatforms(raw.ProfilePlatform),
		MainPlusExtra: raw.CompPlusAvg,
	}
	if raw.ReleaseWorld != "" {
		if released, err := time.Parse("2006-01-02", raw.ReleaseWorld); err == nil {
			detail.ReleaseDate = &released
		}
	}

	c.cache.SetDefault(cacheKey, detail)
	return detail, nil
}

func splitPlatforms(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ", ")
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    baseURL + path,
	}).Debug("Making HLTB request")

	attempt := func() error {
		var reqBody io.Reader
		if jsonBody != nil {
			reqBody = bytes.NewReader(jsonBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reqBody)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "*/*")
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Referer", baseURL)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("hltb returned status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("hltb returned status %d: %s", resp.StatusCode, string(respBody)))
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return nil
	}

	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx))
}
