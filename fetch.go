package phenomap

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// LoadDataset decodes a saved document from a reader into a dataset.
func LoadDataset(r io.Reader) (*GraphDataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("phenomap: read dataset: %w", err)
	}
	return UnmarshalDataset(data)
}

// FetchDataset retrieves a saved document over HTTP and decodes it. The fetch
// is a single shot: any transport or status failure propagates without retry.
func FetchDataset(ctx context.Context, client *http.Client, url string) (*GraphDataset, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("phenomap: fetch dataset: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("phenomap: fetch dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("phenomap: fetch dataset: unexpected status %s", resp.Status)
	}
	return LoadDataset(resp.Body)
}

// FetchNodes retrieves and ingests a node CSV over HTTP.
func FetchNodes(ctx context.Context, client *http.Client, url string) ([]*Node, error) {
	body, err := fetchBody(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ReadNodeRows(body)
}

// FetchEdges retrieves and ingests an edge CSV over HTTP.
func FetchEdges(ctx context.Context, client *http.Client, url string) ([]*Edge, error) {
	body, err := fetchBody(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ReadEdgeRows(body)
}

func fetchBody(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("phenomap: fetch: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("phenomap: fetch: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("phenomap: fetch: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}
