package hypixel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Jforjo/IsleofDucks-sub001/internal/utils"
)

const (
	hypixelBaseURL = "https://api.hypixel.net/v2"
	mojangBaseURL  = "https://api.mojang.com"

	// Hypixel grants 300 requests per five minutes per key.
	rateLimit  = 300
	rateWindow = 5 * time.Minute
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrRateLimited    = errors.New("hypixel request budget exhausted")
)

type Player struct {
	UUID       string
	Name       string
	NetworkExp float64
	LastLogin  time.Time
	FirstLogin time.Time
}

type GuildMember struct {
	UUID     string
	Rank     string
	JoinedAt time.Time
	// Weekly guild experience, most recent day first.
	ExpHistory []int
}

type Guild struct {
	ID      string
	Name    string
	Tag     string
	Members []GuildMember
}

// Client talks to the Hypixel and Mojang REST APIs. It tracks its own
// request budget so a leaderboard fan-out cannot burn the API key.
type Client struct {
	apiKey string
	http   *http.Client
	budget *utils.RequestWindow
	now    func() time.Time

	hypixelBase string
	mojangBase  string
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:      apiKey,
		http:        &http.Client{Timeout: 10 * time.Second},
		budget:      utils.NewRequestWindow(rateWindow),
		now:         time.Now,
		hypixelBase: hypixelBaseURL,
		mojangBase:  mojangBaseURL,
	}
}

// WithBaseURLs points the client at test servers.
func (c *Client) WithBaseURLs(hypixel, mojang string) {
	c.hypixelBase = hypixel
	c.mojangBase = mojang
}

// ResolveUUID looks up the Mojang UUID for a player name.
func (c *Client) ResolveUUID(ctx context.Context, name string) (string, error) {
	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	status, err := c.get(ctx, c.mojangBase+"/users/profiles/minecraft/"+url.PathEscape(name), false, &body)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound || status == http.StatusNoContent {
		return "", ErrPlayerNotFound
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("mojang lookup for %q: status %d", name, status)
	}
	return body.ID, nil
}

// Player fetches a player profile by UUID.
func (c *Client) Player(ctx context.Context, uuid string) (Player, error) {
	var body struct {
		Success bool `json:"success"`
		Player  *struct {
			UUID        string  `json:"uuid"`
			DisplayName string  `json:"displayname"`
			NetworkExp  float64 `json:"networkExp"`
			LastLogin   int64   `json:"lastLogin"`
			FirstLogin  int64   `json:"firstLogin"`
		} `json:"player"`
	}
	status, err := c.get(ctx, c.hypixelBase+"/player?uuid="+url.QueryEscape(uuid), true, &body)
	if err != nil {
		return Player{}, err
	}
	if status != http.StatusOK || !body.Success {
		return Player{}, fmt.Errorf("hypixel player %q: status %d", uuid, status)
	}
	if body.Player == nil {
		return Player{}, ErrPlayerNotFound
	}
	return Player{
		UUID:       body.Player.UUID,
		Name:       body.Player.DisplayName,
		NetworkExp: body.Player.NetworkExp,
		LastLogin:  time.UnixMilli(body.Player.LastLogin),
		FirstLogin: time.UnixMilli(body.Player.FirstLogin),
	}, nil
}

// Guild fetches the guild roster by guild id.
func (c *Client) Guild(ctx context.Context, guildID string) (Guild, error) {
	var body struct {
		Success bool `json:"success"`
		Guild   *struct {
			ID      string `json:"_id"`
			Name    string `json:"name"`
			Tag     string `json:"tag"`
			Members []struct {
				UUID       string         `json:"uuid"`
				Rank       string         `json:"rank"`
				Joined     int64          `json:"joined"`
				ExpHistory map[string]int `json:"expHistory"`
			} `json:"members"`
		} `json:"guild"`
	}
	status, err := c.get(ctx, c.hypixelBase+"/guild?id="+url.QueryEscape(guildID), true, &body)
	if err != nil {
		return Guild{}, err
	}
	if status != http.StatusOK || !body.Success {
		return Guild{}, fmt.Errorf("hypixel guild %q: status %d", guildID, status)
	}
	if body.Guild == nil {
		return Guild{}, fmt.Errorf("hypixel guild %q: not found", guildID)
	}

	guild := Guild{ID: body.Guild.ID, Name: body.Guild.Name, Tag: body.Guild.Tag}
	for _, m := range body.Guild.Members {
		member := GuildMember{
			UUID:     m.UUID,
			Rank:     strings.ToLower(m.Rank),
			JoinedAt: time.UnixMilli(m.Joined),
		}
		// Date-keyed map, newest day first.
		days := make([]string, 0, len(m.ExpHistory))
		for day := range m.ExpHistory {
			days = append(days, day)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(days)))
		for _, day := range days {
			member.ExpHistory = append(member.ExpHistory, m.ExpHistory[day])
		}
		guild.Members = append(guild.Members, member)
	}
	return guild, nil
}

func (c *Client) get(ctx context.Context, rawURL string, keyed bool, out any) (int, error) {
	if keyed && c.budget.Count(c.now()) >= rateLimit {
		return 0, ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	if keyed {
		req.Header.Set("API-Key", c.apiKey)
		c.budget.Add(c.now())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
