package writings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"writings/internal/api"
)

var ErrNotFound = errors.New("not found")

const maxErrorBody = 512

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// Backend is the request surface of api.Client.
type Backend interface {
	FetchWritings(ctx context.Context) (*http.Response, error)
	SearchWritings(ctx context.Context, text string) (*http.Response, error)
	FetchProfile(ctx context.Context, username string) (*http.Response, error)
	PublishWriting(ctx context.Context, writingData any) (*http.Response, error)
}

type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

func (s *Service) ListWritings(ctx context.Context) (Listing, error) {
	resp, err := s.backend.FetchWritings(ctx)
	return decodeListing(resp, err)
}

// ListWritingsAsync issues the listing request and returns without waiting.
func (s *Service) ListWritingsAsync(ctx context.Context) *api.Pending {
	return api.Start(ctx, s.backend.FetchWritings)
}

func (s *Service) AwaitListing(ctx context.Context, pending *api.Pending) (Listing, error) {
	resp, err := await(ctx, pending)
	return decodeListing(resp, err)
}

func (s *Service) Search(ctx context.Context, text string) (SearchResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return emptySearch(), nil
	}

	resp, err := s.backend.SearchWritings(ctx, text)
	return decodeSearch(text, resp, err)
}

// SearchAsync issues the search request and returns without waiting. Blank
// queries issue nothing and return nil.
func (s *Service) SearchAsync(ctx context.Context, text string) *api.Pending {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	return api.Start(ctx, func(ctx context.Context) (*http.Response, error) {
		return s.backend.SearchWritings(ctx, text)
	})
}

func (s *Service) AwaitSearch(ctx context.Context, text string, pending *api.Pending) (SearchResult, error) {
	text = strings.TrimSpace(text)
	if pending == nil || text == "" {
		return emptySearch(), nil
	}

	resp, err := await(ctx, pending)
	return decodeSearch(text, resp, err)
}

func (s *Service) Profile(ctx context.Context, username string) (*Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrNotFound
	}

	var profile Profile
	resp, err := s.backend.FetchProfile(ctx, username)
	if err := decode(fmt.Sprintf("fetch profile %q", username), resp, err, &profile); err != nil {
		return nil, err
	}
	if strings.TrimSpace(profile.Username) == "" {
		profile.Username = username
	}

	profile.Writings = normalizeWritings(profile.Writings)
	for idx := range profile.Writings {
		if profile.Writings[idx].Author == "" {
			profile.Writings[idx].Author = profile.Username
		}
	}

	return &profile, nil
}

// Writing returns one writing of a user. The backend client has no
// single-writing request, so it is picked from the user's profile.
func (s *Service) Writing(ctx context.Context, username string, id string) (*Profile, *Writing, error) {
	profile, err := s.Profile(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	id = strings.TrimSpace(id)
	for idx := range profile.Writings {
		if profile.Writings[idx].ID.String() == id {
			return profile, &profile.Writings[idx], nil
		}
	}

	return profile, nil, ErrNotFound
}

func (s *Service) Publish(ctx context.Context, draft Draft) (*Writing, error) {
	var created Writing
	resp, err := s.backend.PublishWriting(ctx, draft)
	if err := decode("publish writing", resp, err, &created); err != nil {
		return nil, err
	}
	if created.Title == "" {
		created.Title = draft.Title
	}
	if created.Author == "" {
		created.Author = draft.Author
	}

	return &created, nil
}

func await(ctx context.Context, pending *api.Pending) (*http.Response, error) {
	resp, err := pending.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		pending.Discard()
	}
	return resp, err
}

func decodeListing(resp *http.Response, err error) (Listing, error) {
	var listing Listing
	if err := decode("fetch writings", resp, err, &listing); err != nil {
		return Listing{}, err
	}
	listing.Writings = normalizeWritings(listing.Writings)

	return listing, nil
}

func decodeSearch(text string, resp *http.Response, err error) (SearchResult, error) {
	result := SearchResult{Query: text}
	if err := decode(fmt.Sprintf("search writings %q", text), resp, err, &result); err != nil {
		return SearchResult{}, err
	}
	result.Writings = normalizeWritings(result.Writings)
	if result.Users == nil {
		result.Users = []User{}
	}

	return result, nil
}

func emptySearch() SearchResult {
	return SearchResult{Writings: []Writing{}, Users: []User{}}
}

func decode(op string, resp *http.Response, err error, target any) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func normalizeWritings(items []Writing) []Writing {
	if items == nil {
		return []Writing{}
	}

	out := make([]Writing, 0, len(items))
	for _, item := range items {
		item.Title = strings.TrimSpace(item.Title)
		if item.Title == "" {
			item.Title = "Untitled"
		}
		out = append(out, item)
	}

	return out
}
