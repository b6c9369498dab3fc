package httpclient

import (
	"context"
	"encoding/json"
	"net/url"
)

// page is the shape of a DRF-style paginated list response.
type page[T any] struct {
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// Paginate lazily fetches every page of a paginated listing starting at
// firstURL, invoking yield once per item in encounter order. It stops and
// returns the first error encountered, whether from yield or from the HTTP
// layer, and stops early (without error) if yield returns false.
func Paginate[T any](ctx context.Context, c *Client, firstURL *url.URL, yield func(T) (bool, error)) error {
	next := firstURL
	for next != nil {
		resp, err := c.Get(ctx, next)
		if err != nil {
			return err
		}
		var pg page[T]
		decErr := json.NewDecoder(resp.Body).Decode(&pg)
		closeErr := resp.Body.Close()
		if decErr != nil {
			return &DeserializeError{URL: next.String(), Err: decErr}
		}
		if closeErr != nil {
			return &SendError{URL: next.String(), Err: closeErr}
		}
		for _, item := range pg.Results {
			cont, err := yield(item)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		if pg.Next == nil {
			next = nil
		} else {
			u, err := url.Parse(*pg.Next)
			if err != nil {
				return &DeserializeError{URL: *pg.Next, Err: err}
			}
			next = u
		}
	}
	return nil
}

// Collect drains Paginate into a slice.
func Collect[T any](ctx context.Context, c *Client, firstURL *url.URL) ([]T, error) {
	var out []T
	err := Paginate(ctx, c, firstURL, func(item T) (bool, error) {
		out = append(out, item)
		return true, nil
	})
	return out, err
}
