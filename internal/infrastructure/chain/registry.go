package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
)

// Registry maps chain ids to RPC clients, dialing each endpoint lazily on
// first use and caching the connection.
type Registry struct {
	endpoints map[string]string

	locker  sync.Mutex
	clients map[string]*Client
}

// NewRegistry builds a registry from a chainID(hex) -> RPC URL map.
func NewRegistry(endpoints map[string]string) *Registry {
	return &Registry{
		endpoints: endpoints,
		clients:   make(map[string]*Client),
	}
}

func (r *Registry) IsSupported(chainID string) bool {
	_, ok := r.endpoints[chainID]
	return ok
}

func (r *Registry) ClientFor(
	_ context.Context, chainID string,
) (ports.ChainClient, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if client, ok := r.clients[chainID]; ok {
		return client, nil
	}
	url, ok := r.endpoints[chainID]
	if !ok {
		return nil, domain.NewProviderError(
			domain.CodeUnrecognizedChain,
			fmt.Sprintf("chain %s is not configured", chainID),
		)
	}
	client, err := NewClient(url)
	if err != nil {
		return nil, err
	}
	r.clients[chainID] = client
	return client, nil
}

// Close tears down every dialed connection.
func (r *Registry) Close() {
	r.locker.Lock()
	defer r.locker.Unlock()

	for _, client := range r.clients {
		client.Close()
	}
	r.clients = make(map[string]*Client)
}

var _ ports.ChainSource = (*Registry)(nil)
