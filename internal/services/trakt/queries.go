package trakt

import (
	"context"
	"fmt"
	"time"
)

// WatchlistItem is one movie or show sitting on the user's watchlist
type WatchlistItem struct {
	TraktID int64
	Title   string
	Year    int
	Slug    string
}

type watchlistEntry struct {
	Type  string `json:"type"`
	Movie *struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			Trakt int64  `json:"trakt"`
			Slug  string `json:"slug"`
		} `json:"ids"`
	} `json:"movie,omitempty"`
	Show *struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			Trakt int64  `json:"trakt"`
			Slug  string `json:"slug"`
		} `json:"ids"`
	} `json:"show,omitempty"`
}

// WatchlistMovies retrieves the movies on the user's watchlist
func (c *Client) WatchlistMovies(ctx context.Context) ([]WatchlistItem, error) {
	return c.watchlist(ctx, "movie")
}

// WatchlistShows retrieves the shows on the user's watchlist
func (c *Client) WatchlistShows(ctx context.Context) ([]WatchlistItem, error) {
	return c.watchlist(ctx, "show")
}

func (c *Client) watchlist(ctx context.Context, itemType string) ([]WatchlistItem, error) {
	var data []watchlistEntry
	if err := c.doRequest(ctx, "GET", "/users/me/watchlist", nil, &data); err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}

	var items []WatchlistItem
	for _, item := range data {
		if item.Type != itemType {
			continue
		}
		switch itemType {
		case "movie":
			if item.Movie == nil {
				continue
			}
			items = append(items, WatchlistItem{
				TraktID: item.Movie.IDs.Trakt,
				Title:   item.Movie.Title,
				Year:    item.Movie.Year,
				Slug:    item.Movie.IDs.Slug,
			})
		case "show":
			if item.Show == nil {
				continue
			}
			items = append(items, WatchlistItem{
				TraktID: item.Show.IDs.Trakt,
				Title:   item.Show.Title,
				Year:    item.Show.Year,
				Slug:    item.Show.IDs.Slug,
			})
		}
	}

	return items, nil
}

// MovieDetails holds the full-detail view of a movie
type MovieDetails struct {
	Title    string
	Released *time.Time
	Runtime  int // minutes
	Rating   int // 0-100
	Status   string
}

// MovieDetails fetches full movie data. Results are cached.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (MovieDetails, error) {
	cacheKey := fmt.Sprintf("movie:%d", movieID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(MovieDetails), nil
	}

	var data struct {
		Title    string  `json:"title"`
		Released string  `json:"released"`
		Runtime  int     `json:"runtime"`
		Status   string  `json:"status"`
		Rating   float64 `json:"rating"`
	}
	if err := c.doRequest(ctx, "GET", fmt.Sprintf("/movies/%d?extended=full", movieID), nil, &data); err != nil {
		return MovieDetails{}, fmt.Errorf("failed to get movie %d: %w", movieID, err)
	}

	details := MovieDetails{
		Title:   data.Title,
		Runtime: data.Runtime,
		Rating:  int(data.Rating * 10),
		Status:  data.Status,
	}
	if data.Released != "" {
		if released, err := time.Parse("2006-01-02", data.Released); err == nil {
			details.Released = &released
		}
	}

	c.cache.SetDefault(cacheKey, details)
	return details, nil
}

// ShowTitle fetches the title of a show. Results are cached.
func (c *Client) ShowTitle(ctx context.Context, showID int64) (string, error) {
	cacheKey := fmt.Sprintf("show:%d", showID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(string), nil
	}

	var data struct {
		Title string `json:"title"`
	}
	if err := c.doRequest(ctx, "GET", fmt.Sprintf("/shows/%d", showID), nil, &data); err != nil {
		return "", fmt.Errorf("failed to get show %d: %w", showID, err)
	}

	c.cache.SetDefault(cacheKey, data.Title)
	return data.Title, nil
}

// SeasonSummary is the per-season metadata of a show
type SeasonSummary struct {
	Number       int `json:"number"`
	EpisodeCount int `json:"episode_count"`
}

// SeasonsSummary fetches season metadata without episode details. Cached.
func (c *Client) SeasonsSummary(ctx context.Context, showID int64) ([]SeasonSummary, error) {
	cacheKey := fmt.Sprintf("show_seasons:%d", showID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]SeasonSummary), nil
	}

	var seasons []SeasonSummary
	if err := c.doRequest(ctx, "GET", fmt.Sprintf("/shows/%d/seasons?extended=full", showID), nil, &seasons); err != nil {
		return nil, fmt.Errorf("failed to get seasons for show %d: %w", showID, err)
	}

	c.cache.SetDefault(cacheKey, seasons)
	return seasons, nil
}

// EpisodeInfo is one episode inside a season
type EpisodeInfo struct {
	Number     int
	Runtime    int // minutes
	FirstAired *time.Time
}

// SeasonEpisodes fetches all episodes of a season in one call. Cached.
func (c *Client) SeasonEpisodes(ctx context.Context, showID int64, season int) ([]EpisodeInfo, error) {
	cacheKey := fmt.Sprintf("show_season:%d:%d", showID, season)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]EpisodeInfo), nil
	}

	var data []struct {
		Number     int    `json:"number"`
		Runtime    int    `json:"runtime"`
		FirstAired string `json:"first_aired"`
	}
	if err := c.doRequest(ctx, "GET", fmt.Sprintf("/shows/%d/seasons/%d?extended=full", showID, season), nil, &data); err != nil {
		return nil, fmt.Errorf("failed to get season %d of show %d: %w", season, showID, err)
	}

	episodes := make([]EpisodeInfo, 0, len(data))
	for _, ep := range data {
		info := EpisodeInfo{Number: ep.Number, Runtime: ep.Runtime}
		if ep.FirstAired != "" {
			if aired, err := time.Parse(time.RFC3339, ep.FirstAired); err == nil {
				info.FirstAired = &aired
			}
		}
		episodes = append(episodes, info)
	}

	c.cache.SetDefault(cacheKey, episodes)
	return episodes, nil
}

// EpisodeRuntime fetches the runtime of a single episode, in minutes.
func (c *Client) EpisodeRuntime(ctx context.Context, showID int64, season, episode int) (int, error) {
	episodes, err := c.SeasonEpisodes(ctx, showID, season)
	if err != nil {
		return 0, err
	}
	for _, ep := range episodes {
		if ep.Number == episode {
			return ep.Runtime, nil
		}
	}
	return 0, fmt.Errorf("episode %s of show %d not found", fmt.Sprintf("S%02dE%02d", season, episode), showID)
}

// WatchedItem is one externally reported watch event
type WatchedItem struct {
	Type      string // "movie" or "episode"
	MovieID   int64  // for movies
	ShowID    int64  // for episodes
	Season    int
	Episode   int
	WatchedAt time.Time
}

// RecentlyWatched retrieves the watch history of the last N days
func (c *Client) RecentlyWatched(ctx context.Context, days int) ([]WatchedItem, error) {
	startDate := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	path := fmt.Sprintf("/sync/history?start_at=%s", startDate)

	var history []struct {
		WatchedAt time.Time `json:"watched_at"`
		Type      string    `json:"type"`
		Movie     *struct {
			IDs struct {
				Trakt int64 `json:"trakt"`
			} `json:"ids"`
		} `json:"movie,omitempty"`
		Episode *struct {
			Season int `json:"season"`
			Number int `json:"number"`
		} `json:"episode,omitempty"`
		Show *struct {
			IDs struct {
				Trakt int64 `json:"trakt"`
			} `json:"ids"`
		} `json:"show,omitempty"`
	}

	if err := c.doRequest(ctx, "GET", path, nil, &history); err != nil {
		return nil, fmt.Errorf("failed to get watched history: %w", err)
	}

	var items []WatchedItem
	for _, item := range history {
		switch {
		case item.Type == "movie" && item.Movie != nil:
			items = append(items, WatchedItem{
				Type:      "movie",
				MovieID:   item.Movie.IDs.Trakt,
				WatchedAt: item.WatchedAt,
			})
		case item.Type == "episode" && item.Episode != nil && item.Show != nil:
			items = append(items, WatchedItem{
				Type:      "episode",
				ShowID:    item.Show.IDs.Trakt,
				Season:    item.Episode.Season,
				Episode:   item.Episode.Number,
				WatchedAt: item.WatchedAt,
			})
		}
	}

	return items, nil
}

// CalendarEpisode is one upcoming episode from the release calendar
type CalendarEpisode struct {
	ShowID     int64
	ShowTitle  string
	Season     int
	Episode    int
	Runtime    int // minutes
	FirstAired time.Time
}

// UpcomingEpisodes retrieves the user's show calendar for the next N days
func (c *Client) UpcomingEpisodes(ctx context.Context, days int) ([]CalendarEpisode, error) {
	path := fmt.Sprintf("/calendars/my/shows/%s/%d", time.Now().Format("2006-01-02"), days)

	var data []struct {
		FirstAired time.Time `json:"first_aired"`
		Episode    struct {
			Season  int `json:"season"`
			Number  int `json:"number"`
			Runtime int `json:"runtime"`
		} `json:"episode"`
		Show struct {
			Title   string `json:"title"`
			Runtime int    `json:"runtime"`
			IDs     struct {
				Trakt int64 `json:"trakt"`
			} `json:"ids"`
		} `json:"show"`
	}

	if err := c.doRequest(ctx, "GET", path, nil, &data); err != nil {
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}

	var episodes []CalendarEpisode
	for _, item := range data {
		runtime := item.Episode.Runtime
		if runtime == 0 {
			runtime = item.Show.Runtime
		}
		episodes = append(episodes, CalendarEpisode{
			ShowID:     item.Show.IDs.Trakt,
			ShowTitle:  item.Show.Title,
			Season:     item.Episode.Season,
			Episode:    item.Episode.Number,
			Runtime:    runtime,
			FirstAired: item.FirstAired,
		})
	}

	return episodes, nil
}
