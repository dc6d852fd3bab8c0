// Package upstream talks to the KptnCook mobile API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ephes/kptncook/internal/config"
	internalhttp "github.com/ephes/kptncook/internal/http"
	internaljson "github.com/ephes/kptncook/internal/json"
	"github.com/ephes/kptncook/internal/repository"
)

const (
	acceptHeader    = "application/vnd.kptncook.mobile-v8+json"
	userAgentHeader = "Platform/Android/12.0.1 App/7.10.1"
)

// Client is an authenticated KptnCook mobile API client. The API key is
// mandatory for every call, the access token only for account endpoints
// like favorites.
type Client struct {
	log         *slog.Logger
	http        internalhttp.HTTPDoer
	baseURL     string
	apiKey      string
	accessToken string

	// Optional locale parameters, sent when non-empty.
	Lang        string
	Store       string
	Preferences string
}

func NewClient(log *slog.Logger, doer internalhttp.HTTPDoer, cfg config.Config) *Client {
	return &Client{
		log:         log,
		http:        doer,
		baseURL:     cfg.APIURL,
		apiKey:      cfg.APIKey,
		accessToken: cfg.AccessToken,
	}
}

// LoggedIn reports whether the client carries an access token.
func (c *Client) LoggedIn() bool {
	return c.accessToken != ""
}

// SetAccessToken attaches a freshly obtained access token for subsequent
// account endpoint calls.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body any) (*retryablehttp.Request, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgentHeader)
	req.Header.Set("hasIngredients", "yes")
	if c.accessToken != "" {
		req.Header.Set("Token", c.accessToken)
	}
	return req, nil
}

func (c *Client) do(req *retryablehttp.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	if err := internalhttp.ExpectStatus2xx(resp); err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := internaljson.DecodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// standardParams builds the query parameters shared by the content
// endpoints.
func (c *Client) standardParams() url.Values {
	params := url.Values{}
	params.Set("kptnkey", c.apiKey)
	if c.Lang != "" {
		params.Set("lang", c.Lang)
	}
	if c.Store != "" {
		params.Set("store", c.Store)
	}
	if c.Preferences != "" {
		params.Set("preferences", c.Preferences)
	}
	return params
}

func (c *Client) toRecords(payloads []json.RawMessage) []repository.Record {
	today := repository.Today()
	records := make([]repository.Record, 0, len(payloads))
	for _, data := range payloads {
		records = append(records, repository.Record{Date: today, Data: data})
	}
	return records
}

// ListToday fetches the three recipes of the current daily selection.
func (c *Client) ListToday(ctx context.Context) ([]repository.Record, error) {
	params := url.Values{}
	params.Set("kptnkey", c.apiKey)
	path := fmt.Sprintf("/recipes/de/%d", time.Now().Unix())
	req, err := c.newRequest(ctx, "GET", path, params, nil)
	if err != nil {
		return nil, err
	}
	var payloads []json.RawMessage
	if err := c.do(req, &payloads); err != nil {
		return nil, fmt.Errorf("listing todays recipes: %w", err)
	}
	return c.toRecords(payloads), nil
}

// DailiesOptions narrows the dailies feed.
type DailiesOptions struct {
	RecipeFilter string
	Zone         string
	IsSubscribed *bool
}

// ListDailies fetches the daily recipe feed. The endpoint answers with
// either a bare list or a wrapper object, both are accepted.
func (c *Client) ListDailies(ctx context.Context, opts DailiesOptions) ([]repository.Record, error) {
	params := c.standardParams()
	if opts.RecipeFilter != "" {
		params.Set("recipeFilter", opts.RecipeFilter)
	}
	if opts.Zone != "" {
		params.Set("zone", opts.Zone)
	}
	if opts.IsSubscribed != nil {
		params.Set("isSubscribed", strconv.FormatBool(*opts.IsSubscribed))
	}

	req, err := c.newRequest(ctx, "GET", "/dailies", params, nil)
	if err != nil {
		return nil, err
	}
	var payload json.RawMessage
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("listing dailies: %w", err)
	}
	return c.toRecords(extractWrappedList(payload, "recipes", "dailies", "items")), nil
}

// GetAccessToken logs in with account credentials and returns the access
// token for subsequent favorite calls.
func (c *Client) GetAccessToken(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"email": username, "password": password}
	req, err := c.newRequest(ctx, "POST", "/auth/login", nil, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("kptnkey", c.apiKey)

	var token struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(req, &token); err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("logging in: response carried no access token")
	}
	return token.AccessToken, nil
}

// ErrNotLoggedIn reports an account endpoint call without an access token.
var ErrNotLoggedIn = fmt.Errorf("access token required, run the login flow first")

// ListFavorites fetches the favorite recipe ids of the logged in account.
func (c *Client) ListFavorites(ctx context.Context) ([]json.RawMessage, error) {
	if !c.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	req, err := c.newRequest(ctx, "GET", "/favorites", nil, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Favorites []json.RawMessage `json:"favorites"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return payload.Favorites, nil
}

// GetByIDs resolves typed identifiers into full recipe payloads.
func (c *Client) GetByIDs(ctx context.Context, ids []ID) ([]repository.Record, error) {
	items := make([]any, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]any{string(id.Kind): id.Value})
	}
	return c.ResolveSummaries(ctx, items)
}

// ResolveSummaries coerces a mixed bag of identifiers, summary payloads
// and pasted URLs into typed ids and fetches the full recipes in one
// search call. Unrecognized and duplicate entries are dropped.
func (c *Client) ResolveSummaries(ctx context.Context, items []any) ([]repository.Record, error) {
	ids := CollectIdentifiers(items)
	if len(ids) == 0 {
		return nil, nil
	}

	payload := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		switch id.Kind {
		case KindOID:
			payload = append(payload, map[string]string{"identifier": id.Value})
		case KindUID:
			payload = append(payload, map[string]string{"uid": id.Value})
		}
	}

	params := url.Values{}
	params.Set("kptnkey", c.apiKey)
	req, err := c.newRequest(ctx, "POST", "/recipes/search", params, payload)
	if err != nil {
		return nil, err
	}
	var results []json.RawMessage
	if err := c.do(req, &results); err != nil {
		return nil, fmt.Errorf("searching recipes: %w", err)
	}
	return c.toRecords(results), nil
}

// GetDiscoveryScreen fetches the raw discovery screen payload.
func (c *Client) GetDiscoveryScreen(ctx context.Context) (json.RawMessage, error) {
	params := c.standardParams()
	params.Set("v", "2")
	req, err := c.newRequest(ctx, "GET", "/discovery/screen", params, nil)
	if err != nil {
		return nil, err
	}
	var payload json.RawMessage
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("fetching discovery screen: %w", err)
	}
	return payload, nil
}

// GetDiscoveryList fetches the summary entries of one discovery list.
// Curated and automated lists additionally need the list id.
func (c *Client) GetDiscoveryList(ctx context.Context, listType, listID string) ([]json.RawMessage, error) {
	path := "/discovery/list/" + listType
	switch listType {
	case "curated", "automated":
		if listID == "" {
			return nil, fmt.Errorf("list id required for %s lists", listType)
		}
		path += "/" + listID
	}

	req, err := c.newRequest(ctx, "GET", path, c.standardParams(), nil)
	if err != nil {
		return nil, err
	}
	var payload json.RawMessage
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("fetching discovery list: %w", err)
	}
	return extractNestedList(payload), nil
}

// GetOnboardingRecipes fetches the recipe summaries suggested for a set of
// onboarding tags.
func (c *Client) GetOnboardingRecipes(ctx context.Context, tags []string) ([]json.RawMessage, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	body := map[string][]string{"tags": tags}
	req, err := c.newRequest(ctx, "POST", "/recipes/onboarding", c.standardParams(), body)
	if err != nil {
		return nil, err
	}
	var payload json.RawMessage
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("fetching onboarding recipes: %w", err)
	}
	return extractNestedList(payload), nil
}

// ListPopularIngredients fetches the popular ingredient catalog. Requires
// an access token.
func (c *Client) ListPopularIngredients(ctx context.Context) ([]json.RawMessage, error) {
	if !c.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	params := url.Values{}
	params.Set("kptnkey", c.apiKey)
	if c.Lang != "" {
		params.Set("lang", c.Lang)
	}
	if c.Store != "" {
		params.Set("store", c.Store)
	}
	req, err := c.newRequest(ctx, "GET", "/ingredients/popular", params, nil)
	if err != nil {
		return nil, err
	}
	var payload json.RawMessage
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("listing popular ingredients: %w", err)
	}
	return extractWrappedList(payload, "ingredients", "items", "data"), nil
}

// GetRecipesWithIngredients fetches recipe summaries matching a set of
// ingredient ids.
func (c *Client) GetRecipesWithIngredients(ctx context.Context, ingredientIDs []string) ([]json.RawMessage, error) {
	if len(ingredientIDs) == 0 {
		return nil, nil
	}
	body := map[string][]string{"ingredientIds": ingredientIDs}
	req, err := c.newRequest(ctx, "POST", "/recipes/withIngredients", c.standardParams(), body)
	if err != nil {
		return nil, err
	}
	var payload json.RawMessage
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("fetching recipes with ingredients: %w", err)
	}
	return extractNestedList(payload), nil
}

// extractWrappedList accepts either a bare JSON list or an object wrapping
// one under the given keys.
func extractWrappedList(payload json.RawMessage, keys ...string) []json.RawMessage {
	var list []json.RawMessage
	if err := json.Unmarshal(payload, &list); err == nil {
		return list
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil
	}
	for _, key := range keys {
		if v, ok := wrapper[key]; ok {
			if err := json.Unmarshal(v, &list); err == nil {
				return list
			}
		}
	}
	return nil
}

// extractNestedList accepts a bare list, an object wrapping one under the
// usual keys, or an object whose nested objects do.
func extractNestedList(payload json.RawMessage) []json.RawMessage {
	if list := extractWrappedList(payload, "recipes", "items", "list", "data"); list != nil {
		return list
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil
	}
	for _, v := range wrapper {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(v, &nested); err != nil {
			continue
		}
		if list := extractNestedList(v); len(list) > 0 {
			return list
		}
	}
	return nil
}
