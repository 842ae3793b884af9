package api

import (
	"context"
	"net/http"
)

// Call is one of the Client operations bound to its arguments.
type Call func(ctx context.Context) (*http.Response, error)

// Pending is a request that has been issued but may not have completed.
// It resolves exactly once. There is no way to abort it through Pending;
// the context given to Start is passed to the request unchanged.
type Pending struct {
	done chan struct{}
	resp *http.Response
	err  error
}

// Start issues call on its own goroutine and returns immediately.
func Start(ctx context.Context, call Call) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.resp, p.err = call(ctx)
	}()
	return p
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the request resolves or ctx ends. When ctx ends first
// the request keeps running and its response can still be collected later.
func (p *Pending) Wait(ctx context.Context) (*http.Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Discard waits for the request in the background and closes its body.
func (p *Pending) Discard() {
	go func() {
		<-p.done
		if p.resp != nil {
			_ = p.resp.Body.Close()
		}
	}()
}

func (c *Client) StartFetchWritings(ctx context.Context) *Pending {
	return Start(ctx, c.FetchWritings)
}

func (c *Client) StartSearchWritings(ctx context.Context, text string) *Pending {
	return Start(ctx, func(ctx context.Context) (*http.Response, error) {
		return c.SearchWritings(ctx, text)
	})
}

func (c *Client) StartFetchProfile(ctx context.Context, username string) *Pending {
	return Start(ctx, func(ctx context.Context) (*http.Response, error) {
		return c.FetchProfile(ctx, username)
	})
}

func (c *Client) StartPublishWriting(ctx context.Context, writingData any) *Pending {
	return Start(ctx, func(ctx context.Context) (*http.Response, error) {
		return c.PublishWriting(ctx, writingData)
	})
}
