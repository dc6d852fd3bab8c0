package mealie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
)

// entity is a named server object with its assigned identifier.
type entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// nameCache resolves foods, units and tags by name against one listing
// endpoint. The cache starts unpopulated and is refetched after every
// creation so lookups stay consistent across a batch.
type nameCache struct {
	client    *Client
	endpoint  string
	populated bool
	byName    map[string]entity
}

func newNameCache(client *Client, endpoint string) *nameCache {
	return &nameCache{client: client, endpoint: endpoint}
}

// getOrCreate looks the name up in the cached listing, creating the entity
// and refreshing the cache when it is absent.
func (nc *nameCache) getOrCreate(ctx context.Context, name string) (entity, error) {
	if !nc.populated {
		if err := nc.refresh(ctx); err != nil {
			return entity{}, err
		}
	}
	if e, ok := nc.byName[name]; ok {
		return e, nil
	}

	req, err := nc.client.newRequest(ctx, "POST", nc.endpoint, nil, map[string]string{"name": name})
	if err != nil {
		return entity{}, err
	}
	if err := nc.client.do(req, nil); err != nil {
		return entity{}, fmt.Errorf("creating %s entry %q: %w", nc.endpoint, name, err)
	}

	// Refetch instead of trusting the creation response so the cache and
	// the server listing cannot drift within a batch.
	if err := nc.refresh(ctx); err != nil {
		return entity{}, err
	}
	e, ok := nc.byName[name]
	if !ok {
		return entity{}, fmt.Errorf("entry %q missing from %s after creation", name, nc.endpoint)
	}
	return e, nil
}

// refresh pages through the full listing and rebuilds the by-name index.
func (nc *nameCache) refresh(ctx context.Context) error {
	byName := make(map[string]entity)
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("perPage", strconv.Itoa(perPage))
		req, err := nc.client.newRequest(ctx, "GET", nc.endpoint, params, nil)
		if err != nil {
			return err
		}
		var envelope paginated
		if err := nc.client.do(req, &envelope); err != nil {
			return fmt.Errorf("listing %s page %d: %w", nc.endpoint, page, err)
		}
		for _, item := range envelope.Items {
			var e entity
			if err := json.Unmarshal(item, &e); err != nil {
				return fmt.Errorf("decoding %s entry: %w", nc.endpoint, err)
			}
			byName[e.Name] = e
		}
		if page >= envelope.TotalPages || len(envelope.Items) == 0 {
			break
		}
	}
	nc.byName = byName
	nc.populated = true
	return nil
}

// multipartAsset renders the multipart form body for an asset upload.
func multipartAsset(name, icon, extension string, file io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"name":      name,
		"icon":      icon,
		"extension": extension,
	} {
		if err := writer.WriteField(field, value); err != nil {
			return nil, "", fmt.Errorf("writing asset field %q: %w", field, err)
		}
	}
	part, err := writer.CreateFormFile("file", name+"."+extension)
	if err != nil {
		return nil, "", fmt.Errorf("creating asset file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copying asset data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing asset form: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
