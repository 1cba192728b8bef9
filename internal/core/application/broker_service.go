package application

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
	"github.com/tidewallet/tide-daemon/pkg/vault"
)

// BrokerService queues dApp authorization requests, shows them to the user
// through the approval surface and resolves each exactly once: approval,
// rejection or timeout.
type BrokerService interface {
	// EnqueueConnect registers a connection request for the origin. The
	// returned channel delivers the single Outcome.
	EnqueueConnect(ctx context.Context, origin string) (string, <-chan Outcome, error)
	EnqueueSign(
		ctx context.Context, origin string, payload *domain.SignPayload,
	) (string, <-chan Outcome, error)
	EnqueueTransaction(
		ctx context.Context, origin string, payload *domain.TransactionPayload,
	) (string, <-chan Outcome, error)

	ListPending(ctx context.Context) []*domain.PendingRequest
	// Approve executes the request and delivers its result. Approving an
	// unknown or already resolved request is a no-op.
	Approve(ctx context.Context, requestID string) error
	// Reject delivers ErrUserRejected. Unknown ids are a no-op.
	Reject(ctx context.Context, requestID string) error
	// Shutdown rejects everything still pending.
	Shutdown()
}

type originKey struct {
	origin string
	kind   domain.RequestKind
}

type pendingEntry struct {
	request *domain.PendingRequest
	outcome chan Outcome
	timer   *time.Timer
}

type brokerService struct {
	repoManager ports.RepoManager
	unlocker    UnlockerService
	surface     ports.ApprovalSurface
	chainSource ports.ChainSource
	engine      *hdwallet.Engine

	locker   sync.Mutex
	pending  map[string]*pendingEntry
	byOrigin map[originKey]string
}

// NewBrokerService ...
func NewBrokerService(
	repoManager ports.RepoManager,
	unlocker UnlockerService,
	surface ports.ApprovalSurface,
	chainSource ports.ChainSource,
	engine *hdwallet.Engine,
) BrokerService {
	return &brokerService{
		repoManager: repoManager,
		unlocker:    unlocker,
		surface:     surface,
		chainSource: chainSource,
		engine:      engine,
		pending:     make(map[string]*pendingEntry),
		byOrigin:    make(map[originKey]string),
	}
}

func (s *brokerService) EnqueueConnect(
	ctx context.Context, origin string,
) (string, <-chan Outcome, error) {
	return s.enqueue(ctx, origin, domain.RequestConnect, nil)
}

func (s *brokerService) EnqueueSign(
	ctx context.Context, origin string, payload *domain.SignPayload,
) (string, <-chan Outcome, error) {
	if payload == nil || payload.Message == "" {
		return "", nil, domain.NewProviderError(
			domain.CodeInvalidParams, "sign request without a message",
		)
	}
	if payload.Kind == "" {
		payload.Kind = detectSignKind(payload.Message)
	}
	return s.enqueue(ctx, origin, domain.RequestSign, payload)
}

func (s *brokerService) EnqueueTransaction(
	ctx context.Context, origin string, payload *domain.TransactionPayload,
) (string, <-chan Outcome, error) {
	if payload == nil || payload.From == "" {
		return "", nil, domain.NewProviderError(
			domain.CodeInvalidParams, "transaction request without a sender",
		)
	}
	return s.enqueue(ctx, origin, domain.RequestTransaction, payload)
}

func (s *brokerService) enqueue(
	ctx context.Context, origin string, kind domain.RequestKind, payload interface{},
) (string, <-chan Outcome, error) {
	if origin == "" {
		return "", nil, domain.NewProviderError(
			domain.CodeInvalidParams, "request without an origin",
		)
	}

	request := &domain.PendingRequest{
		ID:       uuid.NewString(),
		Origin:   origin,
		Kind:     kind,
		Payload:  payload,
		Deadline: time.Now().Add(kind.Timeout()),
	}
	entry := &pendingEntry{
		request: request,
		outcome: make(chan Outcome, 1),
	}

	s.locker.Lock()
	key := originKey{origin: origin, kind: kind}
	if _, ok := s.byOrigin[key]; ok {
		s.locker.Unlock()
		return "", nil, domain.ErrRequestPending
	}
	s.pending[request.ID] = entry
	s.byOrigin[key] = request.ID
	entry.timer = time.AfterFunc(kind.Timeout(), func() {
		s.expire(request.ID)
	})
	s.locker.Unlock()

	// the surface must never block request intake
	go func() {
		if err := s.surface.Open(context.Background(), request); err != nil {
			log.WithError(err).WithField("origin", origin).
				Warn("broker: could not open approval surface")
		}
	}()

	log.WithFields(log.Fields{
		"id": request.ID, "origin": origin, "kind": kind,
	}).Debug("broker: request enqueued")
	return request.ID, entry.outcome, nil
}

func (s *brokerService) ListPending(_ context.Context) []*domain.PendingRequest {
	s.locker.Lock()
	defer s.locker.Unlock()

	list := make([]*domain.PendingRequest, 0, len(s.pending))
	for _, entry := range s.pending {
		list = append(list, entry.request)
	}
	return list
}

func (s *brokerService) Approve(ctx context.Context, requestID string) error {
	s.locker.Lock()
	entry, ok := s.pending[requestID]
	s.locker.Unlock()
	if !ok {
		log.WithField("id", requestID).Warn("broker: approve on unknown request")
		return nil
	}

	result, err := s.execute(ctx, entry.request)
	if err != nil {
		// a locked wallet aborts the approval but keeps the request alive
		// so the user can unlock and approve again
		if errors.Is(err, domain.ErrMustBeUnlocked) ||
			errors.Is(err, domain.ErrUnavailable) {
			return err
		}
		s.resolve(requestID, Outcome{Err: err})
		return err
	}
	s.resolve(requestID, Outcome{Result: result})
	return nil
}

func (s *brokerService) Reject(_ context.Context, requestID string) error {
	if !s.resolve(requestID, Outcome{Err: domain.ErrUserRejected}) {
		log.WithField("id", requestID).Warn("broker: reject on unknown request")
	}
	return nil
}

func (s *brokerService) Shutdown() {
	s.locker.Lock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.locker.Unlock()

	for _, id := range ids {
		s.resolve(id, Outcome{Err: domain.ErrUserRejected})
	}
}

// resolve delivers the outcome and forgets the request in one critical
// section so no second resolution can sneak in. Returns false when the
// request was already gone.
func (s *brokerService) resolve(requestID string, outcome Outcome) bool {
	s.locker.Lock()
	entry, ok := s.pending[requestID]
	if !ok {
		s.locker.Unlock()
		return false
	}
	delete(s.pending, requestID)
	delete(s.byOrigin, originKey{
		origin: entry.request.Origin, kind: entry.request.Kind,
	})
	entry.timer.Stop()
	entry.outcome <- outcome
	s.locker.Unlock()

	go func() {
		if err := s.surface.Close(context.Background(), requestID); err != nil {
			log.WithError(err).Debug("broker: could not close approval surface")
		}
	}()
	return true
}

func (s *brokerService) expire(requestID string) {
	if s.resolve(requestID, Outcome{Err: domain.ErrRequestTimeout}) {
		log.WithField("id", requestID).Info("broker: request timed out")
	}
}

func (s *brokerService) execute(
	ctx context.Context, request *domain.PendingRequest,
) (interface{}, error) {
	switch request.Kind {
	case domain.RequestConnect:
		return s.executeConnect(ctx, request.Origin)
	case domain.RequestSign:
		payload, ok := request.Payload.(*domain.SignPayload)
		if !ok {
			return nil, domain.NewProviderError(
				domain.CodeInternal, "corrupted sign payload",
			)
		}
		return s.executeSign(ctx, payload)
	case domain.RequestTransaction:
		payload, ok := request.Payload.(*domain.TransactionPayload)
		if !ok {
			return nil, domain.NewProviderError(
				domain.CodeInternal, "corrupted transaction payload",
			)
		}
		return s.executeTransaction(ctx, payload)
	default:
		return nil, domain.NewProviderError(
			domain.CodeUnsupportedMethod, "unknown request kind",
		)
	}
}

func (s *brokerService) executeConnect(
	ctx context.Context, origin string,
) (interface{}, error) {
	account, address, err := s.activeEVMAddress(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repoManager.AccountRepository().AddConnectedSite(
		ctx, account.ID, origin,
	); err != nil {
		return nil, err
	}
	return []string{address}, nil
}

func (s *brokerService) executeSign(
	ctx context.Context, payload *domain.SignPayload,
) (interface{}, error) {
	_, address, err := s.activeEVMAddress(ctx)
	if err != nil {
		return nil, err
	}
	if payload.Address != "" && !strings.EqualFold(payload.Address, address) {
		return nil, domain.ErrAddressMismatch
	}

	key, err := s.activeEVMKey(ctx)
	if err != nil {
		return nil, err
	}
	defer zeroKey(key)

	if payload.Kind == domain.SignTypedData {
		return signTypedData(key, payload.Message)
	}
	return signPersonalMessage(key, payload.Message)
}

func (s *brokerService) executeTransaction(
	ctx context.Context, payload *domain.TransactionPayload,
) (interface{}, error) {
	_, address, err := s.activeEVMAddress(ctx)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(payload.From, address) {
		return nil, domain.ErrAddressMismatch
	}

	chainID := payload.ChainID
	if chainID == "" {
		if chainID, err = s.repoManager.SettingsRepository().
			GetCurrentChainID(ctx); err != nil {
			return nil, err
		}
	}
	chainIDBig, err := hexutil.DecodeBig(chainID)
	if err != nil {
		return nil, domain.NewProviderError(
			domain.CodeInvalidParams, "malformed chain id",
		)
	}
	client, err := s.chainSource.ClientFor(ctx, chainID)
	if err != nil {
		return nil, err
	}

	key, err := s.activeEVMKey(ctx)
	if err != nil {
		return nil, err
	}
	defer zeroKey(key)

	return fillAndSendTransaction(ctx, client, key, payload, chainIDBig)
}

func (s *brokerService) activeEVMAddress(
	ctx context.Context,
) (*domain.Account, string, error) {
	account, err := s.repoManager.AccountRepository().GetActiveAccount(ctx)
	if err != nil {
		return nil, "", err
	}
	wallet, err := s.repoManager.AccountRepository().GetWallet(ctx, account.ID)
	if err != nil {
		return nil, "", err
	}
	address := wallet.AddressFor(hdwallet.ChainEVM)
	if address == "" {
		return nil, "", domain.NewProviderError(
			domain.CodeUnauthorized, "active account has no address on this chain",
		)
	}
	return account, address, nil
}

// activeEVMKey decrypts the signing key of the active account. The caller
// must zero it when done.
func (s *brokerService) activeEVMKey(ctx context.Context) (*ecdsa.PrivateKey, error) {
	session, err := s.unlocker.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.repoManager.AccountRepository().GetActiveAccount(ctx)
	if err != nil {
		return nil, err
	}
	if !account.CanSign() {
		return nil, domain.NewProviderError(
			domain.CodeUnauthorized, "active account cannot sign",
		)
	}

	switch account.Source {
	case domain.SourceSeedPhrase:
		record, err := s.repoManager.SecretRepository().GetSeedPhrase(
			ctx, account.SeedPhraseID,
		)
		if err != nil {
			return nil, err
		}
		mnemonic, err := vault.Decrypt(vault.DecryptOpts{
			Blob: record.EncryptedMnemonic, Password: session.Password,
		})
		if err != nil {
			return nil, err
		}
		deriver, err := s.engine.Deriver(hdwallet.ChainEVM)
		if err != nil {
			return nil, err
		}
		chainKey, err := deriver.DeriveFromMnemonic(mnemonic, account.DerivationIndex)
		if err != nil {
			return nil, err
		}
		return crypto.ToECDSA(chainKey.PrivateKey)
	case domain.SourcePrivateKey:
		record, err := s.repoManager.SecretRepository().GetPrivateKey(
			ctx, account.PrivateKeyID,
		)
		if err != nil {
			return nil, err
		}
		keyHex, err := vault.Decrypt(vault.DecryptOpts{
			Blob: record.EncryptedKey, Password: session.Password,
		})
		if err != nil {
			return nil, err
		}
		keyBytes, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, err
		}
		return crypto.ToECDSA(keyBytes)
	default:
		return nil, domain.NewProviderError(
			domain.CodeUnauthorized, "active account cannot sign",
		)
	}
}

func zeroKey(key *ecdsa.PrivateKey) {
	if key != nil && key.D != nil {
		key.D.SetInt64(0)
	}
}
