package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ajbucci/rustfmsynth-sub000/errors"
)

// Fetcher retrieves the audio module payload. Implementations must be
// safe to call more than once: a failed bootstrap attempt fetches
// again from scratch.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

// HTTPFetcher downloads the payload over HTTP.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, errors.Transport(errors.StageFetch, "build payload request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Transport(errors.StageFetch, "fetch payload", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Transport(errors.StageFetch, "fetch payload",
			fmt.Errorf("unexpected status %s", resp.Status))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Transport(errors.StageFetch, "read payload body", err)
	}
	if len(data) == 0 {
		return nil, errors.Transport(errors.StageFetch, "fetch payload",
			fmt.Errorf("empty payload"))
	}
	return data, nil
}

// FileFetcher reads the payload from disk.
func FileFetcher(path string) Fetcher {
	return FetcherFunc(func(ctx context.Context) ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Transport(errors.StageFetch, "read payload file", err)
		}
		if len(data) == 0 {
			return nil, errors.Transport(errors.StageFetch, "read payload file",
				fmt.Errorf("empty payload %s", path))
		}
		return data, nil
	})
}
