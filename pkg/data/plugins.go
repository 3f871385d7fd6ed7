package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/chaijs/docsite/pkg/utils"
)

// Plugin is one entry of the package registry search response
type Plugin struct {
	Package     PluginPackage  `json:"package"`
	Score       map[string]any `json:"score,omitempty"`
	SearchScore float64        `json:"searchScore,omitempty"`
}

// PluginPackage is the package metadata in a registry search hit
type PluginPackage struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	Date        string            `json:"date,omitempty"`
	Links       map[string]string `json:"links,omitempty"`
	Publisher   *PluginPublisher  `json:"publisher,omitempty"`
}

// PluginPublisher identifies who published a package
type PluginPublisher struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type searchResponse struct {
	Objects []Plugin `json:"objects"`
	Total   int      `json:"total"`
}

// BodyGetter returns the body of a GET request, possibly from a cache
type BodyGetter interface {
	Get(ctx context.Context, rawURL string, ttl time.Duration) ([]byte, error)
}

// SearchURL builds the registry query URL for searchText
func SearchURL(registryURL, searchText string) (string, error) {
	u, err := url.Parse(registryURL)
	if err != nil {
		return "", fmt.Errorf("%w: registry url %q: %w", utils.ErrRequestCreation, registryURL, err)
	}
	q := u.Query()
	q.Set("text", searchText)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodePlugins extracts the objects array from a registry search body
func DecodePlugins(body []byte) ([]Plugin, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: registry search JSON: %w", utils.ErrParsing, err)
	}
	if resp.Objects == nil {
		return []Plugin{}, nil
	}
	return resp.Objects, nil
}

// FetchPlugins queries the registry through getter and decodes the hits
func FetchPlugins(ctx context.Context, getter BodyGetter, registryURL, searchText string, ttl time.Duration) ([]Plugin, error) {
	searchURL, err := SearchURL(registryURL, searchText)
	if err != nil {
		return nil, err
	}
	body, err := getter.Get(ctx, searchURL, ttl)
	if err != nil {
		return nil, err
	}
	return DecodePlugins(body)
}
