package mealie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ephes/kptncook/internal/config"
	internalhttp "github.com/ephes/kptncook/internal/http"
	internaljson "github.com/ephes/kptncook/internal/json"
	internaljwt "github.com/ephes/kptncook/internal/jwt"
)

const perPage = 50

// conflictDetail is the structured message Mealie answers with when a
// recipe name is already taken.
const conflictDetail = "Recipe already exists"

var (
	// ErrRecipeExists reports a creation conflict, treated as a successful
	// no-op by the reconciliation flow.
	ErrRecipeExists = errors.New("recipe already exists")

	// ErrNoAuth reports a client without usable credentials.
	ErrNoAuth = errors.New("mealie credentials required, set username/password or an api token")
)

// Client talks to a Mealie instance. Login happens lazily on the first
// authenticated call; username/password tokens are renewed shortly before
// their JWT expiry.
type Client struct {
	log     *slog.Logger
	http    internalhttp.HTTPDoer
	baseURL string
	auth    config.Mealie

	token       string
	tokenExpiry time.Time

	foods *nameCache
	units *nameCache
	tags  *nameCache
}

func NewClient(log *slog.Logger, doer internalhttp.HTTPDoer, cfg config.Config) (*Client, error) {
	if !cfg.Mealie.HasAuth() {
		return nil, ErrNoAuth
	}
	c := &Client{
		log:     log,
		http:    doer,
		baseURL: strings.TrimRight(cfg.Mealie.URL, "/"),
		auth:    cfg.Mealie,
	}
	c.foods = newNameCache(c, "/foods")
	c.units = newNameCache(c, "/units")
	c.tags = newNameCache(c, "/organizers/tags")
	return c, nil
}

// ensureToken makes sure a usable bearer token is present, logging in when
// the current one is missing or about to expire.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.auth.APIToken != "" {
		c.token = c.auth.APIToken
		return nil
	}
	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return nil
	}
	return c.login(ctx)
}

// login exchanges username/password for an access token via the token
// endpoint's form login.
func (c *Client) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.auth.Username)
	form.Set("password", c.auth.Password)

	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", c.baseURL+"/auth/token", []byte(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending login request: %w", err)
	}
	if err := internalhttp.ExpectStatus2xx(resp); err != nil {
		return fmt.Errorf("logging in to mealie: %w", err)
	}
	defer resp.Body.Close()

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := internaljson.DecodeJSON(resp.Body, &token); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("logging in to mealie: response carried no access token")
	}
	c.token = token.AccessToken
	c.tokenExpiry = tokenExpiry(token.AccessToken)
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client only needs it to know when to renew.
func tokenExpiry(token string) time.Time {
	exp, err := internaljwt.Expiry(token)
	if err != nil {
		return time.Now().Add(time.Hour)
	}
	return exp
}

func (c *Client) newRequest(ctx context.Context, method, p string, params url.Values, body any) (*retryablehttp.Request, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + p
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
	req.Header.Set("Authorization", "Bearer "+c.token)
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

// AllRecipes pages through the recipe listing and returns every summary.
func (c *Client) AllRecipes(ctx context.Context) ([]RecipeSummary, error) {
	var all []RecipeSummary
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("perPage", strconv.Itoa(perPage))
		req, err := c.newRequest(ctx, "GET", "/recipes", params, nil)
		if err != nil {
			return nil, err
		}
		var envelope paginated
		if err := c.do(req, &envelope); err != nil {
			return nil, fmt.Errorf("listing recipes page %d: %w", page, err)
		}
		for _, item := range envelope.Items {
			var summary RecipeSummary
			if err := json.Unmarshal(item, &summary); err != nil {
				return nil, fmt.Errorf("decoding recipe summary: %w", err)
			}
			all = append(all, summary)
		}
		if page >= envelope.TotalPages || len(envelope.Items) == 0 {
			break
		}
	}
	return all, nil
}

// GetViaSlug fetches one full recipe by its slug.
func (c *Client) GetViaSlug(ctx context.Context, slug string) (*Recipe, error) {
	req, err := c.newRequest(ctx, "GET", "/recipes/"+url.PathEscape(slug), nil, nil)
	if err != nil {
		return nil, err
	}
	var recipe Recipe
	if err := c.do(req, &recipe); err != nil {
		return nil, fmt.Errorf("fetching recipe %q: %w", slug, err)
	}
	return &recipe, nil
}

// CreateRecipe creates a recipe in two phases: a name-only stub that yields
// the slug, then a patch of the full payload onto that slug. Foods, units
// and tags are resolved or created by name first, step images are uploaded
// as assets afterwards. A name conflict maps to ErrRecipeExists.
func (c *Client) CreateRecipe(ctx context.Context, recipe *Recipe) (*Recipe, error) {
	if err := c.resolveEntities(ctx, recipe); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, "POST", "/recipes", nil, map[string]string{"name": recipe.Name})
	if err != nil {
		return nil, err
	}
	var slug string
	if err := c.do(req, &slug); err != nil {
		return nil, wrapConflict(fmt.Errorf("creating recipe %q: %w", recipe.Name, err))
	}
	recipe.Slug = slug

	if err := c.uploadStepImages(ctx, recipe); err != nil {
		return nil, err
	}

	req, err = c.newRequest(ctx, "PATCH", "/recipes/"+url.PathEscape(slug), nil, recipe)
	if err != nil {
		return nil, err
	}
	var updated Recipe
	if err := c.do(req, &updated); err != nil {
		return nil, fmt.Errorf("updating recipe %q: %w", slug, err)
	}

	if err := c.scrapeCover(ctx, &updated, recipe.coverURL); err != nil {
		c.log.WarnContext(ctx, "cover image scrape failed", slog.String("slug", slug), slog.Any("error", err))
	}
	return &updated, nil
}

// resolveEntities swaps the by-name food, unit and tag references of the
// payload for server entities, creating missing ones.
func (c *Client) resolveEntities(ctx context.Context, recipe *Recipe) error {
	for i := range recipe.Ingredients {
		row := &recipe.Ingredients[i]
		if row.Food != nil {
			entity, err := c.foods.getOrCreate(ctx, row.Food.Name)
			if err != nil {
				return fmt.Errorf("resolving food %q: %w", row.Food.Name, err)
			}
			row.Food.ID = entity.ID
		}
		if row.Unit != nil {
			entity, err := c.units.getOrCreate(ctx, row.Unit.Name)
			if err != nil {
				return fmt.Errorf("resolving unit %q: %w", row.Unit.Name, err)
			}
			row.Unit.ID = entity.ID
		}
	}
	for i := range recipe.Tags {
		entity, err := c.tags.getOrCreate(ctx, recipe.Tags[i].Name)
		if err != nil {
			return fmt.Errorf("resolving tag %q: %w", recipe.Tags[i].Name, err)
		}
		recipe.Tags[i].ID = entity.ID
		recipe.Tags[i].Slug = entity.Slug
	}
	return nil
}

// uploadStepImages attaches each step image as a recipe asset and rewrites
// the step text to embed it. Runs only during create, never during
// projection.
func (c *Client) uploadStepImages(ctx context.Context, recipe *Recipe) error {
	for i := range recipe.Instructions {
		step := &recipe.Instructions[i]
		if step.imageURL == "" {
			continue
		}
		fileName, err := c.uploadAsset(ctx, recipe.Slug, step.imageURL, fmt.Sprintf("Step %d", i+1))
		if err != nil {
			return fmt.Errorf("uploading step %d image: %w", i+1, err)
		}
		assetURL := path.Join("/api", "media", "recipes", recipe.Slug, "assets", fileName)
		step.Text = fmt.Sprintf("%s\n<img src=\"%s\" height=\"100%%\" width=\"100%%\"/>", step.Text, assetURL)
	}
	return nil
}

// uploadAsset downloads the upstream image and posts it as a recipe asset,
// returning the server-assigned file name.
func (c *Client) uploadAsset(ctx context.Context, slug, imageURL, name string) (string, error) {
	imgReq, err := retryablehttp.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating image request: %w", err)
	}
	imgResp, err := c.http.Do(imgReq)
	if err != nil {
		return "", fmt.Errorf("fetching image: %w", err)
	}
	if err := internalhttp.ExpectStatus2xx(imgResp); err != nil {
		return "", fmt.Errorf("fetching image: %w", err)
	}
	defer imgResp.Body.Close()

	body, contentType, err := multipartAsset(name, "mdi-camera", "jpg", imgResp.Body)
	if err != nil {
		return "", err
	}

	if err := c.ensureToken(ctx); err != nil {
		return "", err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", c.baseURL+"/recipes/"+url.PathEscape(slug)+"/assets", body)
	if err != nil {
		return "", fmt.Errorf("creating asset request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading asset: %w", err)
	}
	if err := internalhttp.ExpectStatus2xx(resp); err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var asset struct {
		FileName string `json:"fileName"`
	}
	if err := internaljson.DecodeJSON(resp.Body, &asset); err != nil {
		return "", fmt.Errorf("decoding asset response: %w", err)
	}
	return asset.FileName, nil
}

// scrapeCover asks Mealie to fetch the cover image from the original URL.
// Skipped entirely when no URL is available.
func (c *Client) scrapeCover(ctx context.Context, recipe *Recipe, coverURL string) error {
	if coverURL == "" || recipe.Slug == "" {
		return nil
	}
	req, err := c.newRequest(ctx, "POST", "/recipes/"+url.PathEscape(recipe.Slug)+"/image", nil,
		map[string]any{"url": coverURL, "includeTags": false})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// wrapConflict maps Mealie's structured "already exists" answer onto
// ErrRecipeExists while passing every other failure through.
func wrapConflict(err error) error {
	var statusErr *internalhttp.StatusError
	if errors.As(err, &statusErr) && statusErr.Detail == conflictDetail {
		return fmt.Errorf("%w: %s", ErrRecipeExists, statusErr.Detail)
	}
	return err
}
