package clients

import (
	"sort"
	"sync"
)

// InMemoryRepo holds registered clients in process memory. Registrations
// come from static configuration at startup.
type InMemoryRepo struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		clients: make(map[string]*Client),
	}
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) Upsert(clientData *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *clientData
	r.clients[clientData.ID] = &copied
	return nil
}

func (r *InMemoryRepo) Delete(clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
	return nil
}

func (r *InMemoryRepo) Get(clientID string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *client
	return &copied, nil
}

func (r *InMemoryRepo) List() ([]*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		copied := *client
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}
