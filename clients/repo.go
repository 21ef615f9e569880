package clients

import "github.com/pkg/errors"

// ErrNotFound is returned for unknown client IDs.
var ErrNotFound = errors.New("client not found")

type Repo interface {
	Upsert(clientData *Client) error
	Delete(clientID string) error
	Get(clientID string) (*Client, error)
	List() ([]*Client, error)
}
