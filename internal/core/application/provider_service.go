package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
)

// Provider event names per EIP-1193.
const (
	EventConnect         = "connect"
	EventDisconnect      = "disconnect"
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
)

// ProviderEvent is pushed to subscribed origins.
type ProviderEvent struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// ProviderInfo is the EIP-6963 announcement identifying this wallet to
// dApps running a multi-provider discovery loop.
type ProviderInfo struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	RDNS string `json:"rdns"`
}

// ProviderService is the dApp-facing facade. It translates EIP-1193 method
// calls into broker requests and wallet reads, tracks which origins are
// connected and pushes provider events to them.
type ProviderService interface {
	// HandleRequest dispatches one RPC call on behalf of origin. Errors are
	// either *domain.ProviderError or mapped to a code by the transport.
	HandleRequest(
		ctx context.Context, origin, method string, params json.RawMessage,
	) (interface{}, error)

	Subscribe(origin string) <-chan ProviderEvent
	Unsubscribe(origin string, events <-chan ProviderEvent)
	// Announce returns the EIP-6963 provider identity.
	Announce() *ProviderInfo

	// Disconnect revokes the origin's connection and pushes the disconnect
	// event to it.
	Disconnect(ctx context.Context, origin string) error
	// EmitAccountsChanged pushes the current account list to every
	// connected origin. Called after account switches and lock.
	EmitAccountsChanged(ctx context.Context)
	// EmitChainChanged pushes the chain id to every subscribed origin.
	EmitChainChanged(chainID string)
}

type providerService struct {
	repoManager ports.RepoManager
	broker      BrokerService
	chainSource ports.ChainSource
	info        *ProviderInfo

	locker      sync.Mutex
	subscribers map[string][]chan ProviderEvent
}

// NewProviderService ...
func NewProviderService(
	repoManager ports.RepoManager,
	broker BrokerService,
	chainSource ports.ChainSource,
	walletName, walletIcon, walletRDNS string,
) ProviderService {
	return &providerService{
		repoManager: repoManager,
		broker:      broker,
		chainSource: chainSource,
		info: &ProviderInfo{
			UUID: uuid.NewString(),
			Name: walletName,
			Icon: walletIcon,
			RDNS: walletRDNS,
		},
		subscribers: make(map[string][]chan ProviderEvent),
	}
}

func (s *providerService) HandleRequest(
	ctx context.Context, origin, method string, params json.RawMessage,
) (interface{}, error) {
	switch method {
	case "eth_requestAccounts":
		return s.requestAccounts(ctx, origin)
	case "eth_accounts":
		return s.accounts(ctx, origin)
	case "eth_chainId":
		return s.chainID(ctx)
	case "net_version":
		return s.netVersion(ctx)
	case "personal_sign":
		return s.personalSign(ctx, origin, params)
	case "eth_signTypedData_v4":
		return s.signTypedData(ctx, origin, params)
	case "eth_sendTransaction":
		return s.sendTransaction(ctx, origin, params)
	case "wallet_switchEthereumChain":
		return s.switchChain(ctx, origin, params)
	case "wallet_addEthereumChain":
		return s.addChain(ctx, origin, params)
	case "wallet_getPermissions":
		return s.getPermissions(ctx, origin)
	default:
		return nil, domain.NewProviderError(
			domain.CodeMethodNotFound,
			fmt.Sprintf("the method %s does not exist", method),
		)
	}
}

func (s *providerService) Subscribe(origin string) <-chan ProviderEvent {
	events := make(chan ProviderEvent, 16)
	s.locker.Lock()
	s.subscribers[origin] = append(s.subscribers[origin], events)
	s.locker.Unlock()
	return events
}

func (s *providerService) Unsubscribe(origin string, events <-chan ProviderEvent) {
	s.locker.Lock()
	defer s.locker.Unlock()

	subs := s.subscribers[origin]
	for i, sub := range subs {
		if sub == events {
			s.subscribers[origin] = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	if len(s.subscribers[origin]) == 0 {
		delete(s.subscribers, origin)
	}
}

func (s *providerService) Announce() *ProviderInfo {
	return s.info
}

func (s *providerService) Disconnect(ctx context.Context, origin string) error {
	account, err := s.repoManager.AccountRepository().GetActiveAccount(ctx)
	if err == nil {
		if err := s.repoManager.AccountRepository().RemoveConnectedSite(
			ctx, account.ID, origin,
		); err != nil {
			return err
		}
	}
	s.emit(origin, ProviderEvent{
		Name: EventDisconnect,
		Payload: domain.NewProviderError(
			domain.CodeDisconnected, "the provider is disconnected",
		),
	})
	return nil
}

func (s *providerService) EmitAccountsChanged(ctx context.Context) {
	s.locker.Lock()
	origins := make([]string, 0, len(s.subscribers))
	for origin := range s.subscribers {
		origins = append(origins, origin)
	}
	s.locker.Unlock()

	for _, origin := range origins {
		addresses, err := s.accounts(ctx, origin)
		if err != nil {
			log.WithError(err).Debug("provider: could not list accounts for event")
			addresses = []string{}
		}
		s.emit(origin, ProviderEvent{Name: EventAccountsChanged, Payload: addresses})
	}
}

func (s *providerService) EmitChainChanged(chainID string) {
	s.broadcast(ProviderEvent{Name: EventChainChanged, Payload: chainID})
}

func (s *providerService) requestAccounts(
	ctx context.Context, origin string,
) (interface{}, error) {
	connected, err := s.isConnected(ctx, origin)
	if err != nil {
		return nil, err
	}
	if connected {
		return s.accounts(ctx, origin)
	}

	_, outcome, err := s.broker.EnqueueConnect(ctx, origin)
	if err != nil {
		return nil, err
	}
	result, err := waitOutcome(ctx, outcome)
	if err != nil {
		return nil, err
	}

	chainID, chainErr := s.chainID(ctx)
	if chainErr == nil {
		s.emit(origin, ProviderEvent{
			Name:    EventConnect,
			Payload: map[string]interface{}{"chainId": chainID},
		})
	}
	return result, nil
}

func (s *providerService) accounts(
	ctx context.Context, origin string,
) ([]string, error) {
	connected, err := s.isConnected(ctx, origin)
	if err != nil || !connected {
		return []string{}, err
	}

	account, err := s.repoManager.AccountRepository().GetActiveAccount(ctx)
	if err != nil {
		return []string{}, nil
	}
	wallet, err := s.repoManager.AccountRepository().GetWallet(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	address := wallet.AddressFor(hdwallet.ChainEVM)
	if address == "" {
		return []string{}, nil
	}
	return []string{address}, nil
}

func (s *providerService) chainID(ctx context.Context) (string, error) {
	return s.repoManager.SettingsRepository().GetCurrentChainID(ctx)
}

func (s *providerService) netVersion(ctx context.Context) (string, error) {
	chainID, err := s.chainID(ctx)
	if err != nil {
		return "", err
	}
	value, err := hexutil.DecodeBig(chainID)
	if err != nil {
		return "", domain.NewProviderError(
			domain.CodeInternal, "stored chain id is malformed",
		)
	}
	return value.String(), nil
}

func (s *providerService) personalSign(
	ctx context.Context, origin string, params json.RawMessage,
) (interface{}, error) {
	if err := s.requireConnected(ctx, origin); err != nil {
		return nil, err
	}
	// personal_sign params are [message, address]
	args, err := parseParams(params, 2)
	if err != nil {
		return nil, err
	}
	_, outcome, err := s.broker.EnqueueSign(ctx, origin, &domain.SignPayload{
		Kind:    domain.SignPersonalMessage,
		Message: args[0],
		Address: args[1],
	})
	if err != nil {
		return nil, err
	}
	return waitOutcome(ctx, outcome)
}

func (s *providerService) signTypedData(
	ctx context.Context, origin string, params json.RawMessage,
) (interface{}, error) {
	if err := s.requireConnected(ctx, origin); err != nil {
		return nil, err
	}
	// eth_signTypedData_v4 params are [address, typedData]
	args, err := parseParams(params, 2)
	if err != nil {
		return nil, err
	}
	_, outcome, err := s.broker.EnqueueSign(ctx, origin, &domain.SignPayload{
		Kind:    domain.SignTypedData,
		Address: args[0],
		Message: args[1],
	})
	if err != nil {
		return nil, err
	}
	return waitOutcome(ctx, outcome)
}

func (s *providerService) sendTransaction(
	ctx context.Context, origin string, params json.RawMessage,
) (interface{}, error) {
	if err := s.requireConnected(ctx, origin); err != nil {
		return nil, err
	}
	var args []*domain.TransactionPayload
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, domain.NewProviderError(
			domain.CodeInvalidParams, "expected one transaction object",
		)
	}
	_, outcome, err := s.broker.EnqueueTransaction(ctx, origin, args[0])
	if err != nil {
		return nil, err
	}
	return waitOutcome(ctx, outcome)
}

func (s *providerService) switchChain(
	ctx context.Context, origin string, params json.RawMessage,
) (interface{}, error) {
	chainID, err := parseChainIDParam(params)
	if err != nil {
		return nil, err
	}
	// unknown chains must not leave any trace in the settings
	if !s.chainSource.IsSupported(chainID) {
		return nil, domain.NewProviderError(
			domain.CodeUnrecognizedChain,
			fmt.Sprintf("unrecognized chain id %s", chainID),
		)
	}
	if err := s.repoManager.SettingsRepository().SetCurrentChainID(
		ctx, chainID,
	); err != nil {
		return nil, err
	}
	s.EmitChainChanged(chainID)
	return nil, nil
}

func (s *providerService) addChain(
	ctx context.Context, origin string, params json.RawMessage,
) (interface{}, error) {
	chainID, err := parseChainIDParam(params)
	if err != nil {
		return nil, err
	}
	// chains ship preconfigured, so adding degrades to switching for the
	// known ones
	if !s.chainSource.IsSupported(chainID) {
		return nil, domain.NewProviderError(
			domain.CodeUnrecognizedChain,
			fmt.Sprintf("chain %s cannot be added", chainID),
		)
	}
	return s.switchChain(ctx, origin, params)
}

func (s *providerService) getPermissions(
	ctx context.Context, origin string,
) (interface{}, error) {
	connected, err := s.isConnected(ctx, origin)
	if err != nil {
		return nil, err
	}
	if !connected {
		return []interface{}{}, nil
	}
	return []map[string]interface{}{{
		"parentCapability": "eth_accounts",
		"invoker":          origin,
	}}, nil
}

func (s *providerService) isConnected(
	ctx context.Context, origin string,
) (bool, error) {
	account, err := s.repoManager.AccountRepository().GetActiveAccount(ctx)
	if err != nil {
		return false, nil
	}
	sites, err := s.repoManager.AccountRepository().GetConnectedSites(ctx, account.ID)
	if err != nil {
		return false, err
	}
	for _, site := range sites {
		if site == origin {
			return true, nil
		}
	}
	return false, nil
}

func (s *providerService) requireConnected(ctx context.Context, origin string) error {
	connected, err := s.isConnected(ctx, origin)
	if err != nil {
		return err
	}
	if !connected {
		return domain.NewProviderError(
			domain.CodeUnauthorized, "origin is not connected",
		)
	}
	return nil
}

func (s *providerService) emit(origin string, event ProviderEvent) {
	s.locker.Lock()
	defer s.locker.Unlock()

	for _, sub := range s.subscribers[origin] {
		select {
		case sub <- event:
		default:
			log.WithField("origin", origin).Warn("provider: dropping event, slow subscriber")
		}
	}
}

func (s *providerService) broadcast(event ProviderEvent) {
	s.locker.Lock()
	defer s.locker.Unlock()

	for origin, subs := range s.subscribers {
		for _, sub := range subs {
			select {
			case sub <- event:
			default:
				log.WithField("origin", origin).Warn("provider: dropping event, slow subscriber")
			}
		}
	}
}

func waitOutcome(ctx context.Context, outcome <-chan Outcome) (interface{}, error) {
	select {
	case out := <-outcome:
		return out.Result, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func parseParams(params json.RawMessage, min int) ([]string, error) {
	var args []string
	if err := json.Unmarshal(params, &args); err != nil || len(args) < min {
		return nil, domain.NewProviderError(
			domain.CodeInvalidParams,
			fmt.Sprintf("expected at least %d parameters", min),
		)
	}
	return args, nil
}

func parseChainIDParam(params json.RawMessage) (string, error) {
	var args []struct {
		ChainID string `json:"chainId"`
	}
	if err := json.Unmarshal(params, &args); err != nil ||
		len(args) < 1 || args[0].ChainID == "" {
		return "", domain.NewProviderError(
			domain.CodeInvalidParams, "expected an object with a chainId",
		)
	}
	return args[0].ChainID, nil
}
