package writings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID accepts both numeric and string identifiers from the backend.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("writing id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type Writing struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Draft is the publish payload.
type Draft struct {
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type User struct {
	ID          ID     `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	Description string `json:"desc,omitempty"`
}

type Profile struct {
	User
	Writings []Writing `json:"writings"`
}

type Listing struct {
	Writings      []Writing `json:"writings"`
	Authenticated bool      `json:"user_info"`
}

type SearchResult struct {
	Query    string    `json:"-"`
	Writings []Writing `json:"writings"`
	Users    []User    `json:"users"`
}
