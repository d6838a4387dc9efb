// Package httpapi is the client half of the bond repository contract: a
// storage.Store implementation over the server's JSON API and a feed.Source
// implementation over its websocket feed. The synchronization core only ever
// sees the interfaces, so it runs identically against this client or against
// the server's own store in tests.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/themax-01/heartbond-moments/internal/models"
	"github.com/themax-01/heartbond-moments/internal/storage"
)

// Ensure Client implements the repository contract.
var _ storage.Store = (*Client)(nil)

// Client talks to a HeartBond server.
type Client struct {
	baseURL string
	hc      *http.Client
	token   string
}

// NewClient creates a client for the server at baseURL (e.g. "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Register exchanges the device user id for an API token. Must be called
// before any other operation.
func (c *Client) Register(ctx context.Context, userID string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/devices",
		map[string]string{"user_id": userID}, &resp); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	c.token = resp.Token
	return nil
}

// Token returns the API token obtained by Register.
func (c *Client) Token() string {
	return c.token
}

// do runs one API call. out is decoded from 2xx responses; a 204 leaves out
// untouched and reports the status to the caller.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, storage.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return resp.StatusCode, fmt.Errorf("server: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// CreateBond persists a new bond through the API.
func (c *Client) CreateBond(ctx context.Context, bond *models.Bond) error {
	var created models.Bond
	if _, err := c.do(ctx, http.MethodPost, "/api/bonds", bond, &created); err != nil {
		return err
	}
	*bond = created
	return nil
}

// GetBond retrieves a bond by id.
func (c *Client) GetBond(ctx context.Context, bondID string) (*models.Bond, error) {
	bond := &models.Bond{}
	if _, err := c.do(ctx, http.MethodGet, "/api/bonds/"+url.PathEscape(bondID), nil, bond); err != nil {
		return nil, err
	}
	return bond, nil
}

// GetBondByCode retrieves a bond by join code.
func (c *Client) GetBondByCode(ctx context.Context, code string) (*models.Bond, error) {
	bond := &models.Bond{}
	if _, err := c.do(ctx, http.MethodGet, "/api/bonds/by-code/"+url.PathEscape(code), nil, bond); err != nil {
		return nil, err
	}
	return bond, nil
}

// UpdateBondTheme sets the bond's theme.
func (c *Client) UpdateBondTheme(ctx context.Context, bondID string, theme models.Theme) error {
	_, err := c.do(ctx, http.MethodPatch, "/api/bonds/"+url.PathEscape(bondID)+"/theme",
		map[string]models.Theme{"theme": theme}, nil)
	return err
}

// AddMember persists a membership row.
func (c *Client) AddMember(ctx context.Context, member *models.Membership) error {
	var created models.Membership
	if _, err := c.do(ctx, http.MethodPost, "/api/bonds/"+url.PathEscape(member.BondID)+"/members",
		map[string]string{"user_id": member.UserID}, &created); err != nil {
		return err
	}
	*member = created
	return nil
}

// ListMembers returns all memberships of a bond.
func (c *Client) ListMembers(ctx context.Context, bondID string) ([]models.Membership, error) {
	var members []models.Membership
	if _, err := c.do(ctx, http.MethodGet, "/api/bonds/"+url.PathEscape(bondID)+"/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CreateSettings persists the settings row for a bond.
func (c *Client) CreateSettings(ctx context.Context, settings *models.BondSettings) error {
	var created models.BondSettings
	if _, err := c.do(ctx, http.MethodPost, "/api/bonds/"+url.PathEscape(settings.BondID)+"/settings",
		map[string]string{"quote": settings.Quote}, &created); err != nil {
		return err
	}
	*settings = created
	return nil
}

// GetSettings retrieves the settings row of a bond.
func (c *Client) GetSettings(ctx context.Context, bondID string) (*models.BondSettings, error) {
	settings := &models.BondSettings{}
	if _, err := c.do(ctx, http.MethodGet, "/api/bonds/"+url.PathEscape(bondID)+"/settings", nil, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateQuote sets the quote on the bond's settings row.
func (c *Client) UpdateQuote(ctx context.Context, bondID, quote string) (*models.BondSettings, error) {
	settings := &models.BondSettings{}
	if _, err := c.do(ctx, http.MethodPut, "/api/bonds/"+url.PathEscape(bondID)+"/settings",
		map[string]string{"quote": quote}, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// InsertData appends a new data row.
func (c *Client) InsertData(ctx context.Context, row *models.BondData) error {
	var created models.BondData
	if _, err := c.do(ctx, http.MethodPost, "/api/bonds/"+url.PathEscape(row.BondID)+"/data", row, &created); err != nil {
		return err
	}
	*row = created
	return nil
}

// UpdateDataField sets one field on an existing data row.
func (c *Client) UpdateDataField(ctx context.Context, rowID string, field models.Field, value string) (*models.BondData, error) {
	row := &models.BondData{}
	body := struct {
		Field models.Field `json:"field"`
		Value string       `json:"value"`
	}{field, value}
	if _, err := c.do(ctx, http.MethodPatch, "/api/data/"+url.PathEscape(rowID), body, row); err != nil {
		return nil, err
	}
	return row, nil
}

// LatestData returns the most recent data row for the user, or (nil, nil).
func (c *Client) LatestData(ctx context.Context, bondID, userID string) (*models.BondData, error) {
	return c.latest(ctx, bondID, userID, "")
}

// LatestFieldRow returns the most recent row with the field non-null, or (nil, nil).
func (c *Client) LatestFieldRow(ctx context.Context, bondID, userID string, field models.Field) (*models.BondData, error) {
	return c.latest(ctx, bondID, userID, string(field))
}

func (c *Client) latest(ctx context.Context, bondID, userID, field string) (*models.BondData, error) {
	q := url.Values{"user_id": {userID}}
	if field != "" {
		q.Set("field", field)
	}
	row := &models.BondData{}
	status, err := c.do(ctx, http.MethodGet,
		"/api/bonds/"+url.PathEscape(bondID)+"/data/latest?"+q.Encode(), nil, row)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return row, nil
}

// Close satisfies storage.Store; the client holds no persistent resources.
func (c *Client) Close() error {
	return nil
}
