package inmemory

import (
	"context"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
)

// SecretRepositoryImpl represents an in memory storage
type SecretRepositoryImpl struct {
	db *DbManager
}

func newSecretRepositoryImpl(db *DbManager) domain.SecretRepository {
	return &SecretRepositoryImpl{db: db}
}

func (r SecretRepositoryImpl) SaveSeedPhrase(
	_ context.Context, record *domain.SeedPhraseRecord,
) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	if _, ok := r.db.secretStore.seedPhrases[record.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.db.secretStore.seedPhrases[record.ID] = record
	return nil
}

func (r SecretRepositoryImpl) GetSeedPhrase(
	_ context.Context, id string,
) (*domain.SeedPhraseRecord, error) {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	record, ok := r.db.secretStore.seedPhrases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (r SecretRepositoryImpl) UpdateSeedPhrase(
	_ context.Context, id string,
	updateFn func(*domain.SeedPhraseRecord) (*domain.SeedPhraseRecord, error),
) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	record, ok := r.db.secretStore.seedPhrases[id]
	if !ok {
		return domain.ErrNotFound
	}
	updated, err := updateFn(record)
	if err != nil {
		return err
	}
	r.db.secretStore.seedPhrases[id] = updated
	return nil
}

func (r SecretRepositoryImpl) ListSeedPhrases(
	_ context.Context,
) ([]*domain.SeedPhraseRecord, error) {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	records := make([]*domain.SeedPhraseRecord, 0, len(r.db.secretStore.seedPhrases))
	for _, record := range r.db.secretStore.seedPhrases {
		records = append(records, record)
	}
	return records, nil
}

func (r SecretRepositoryImpl) RemoveSeedPhrase(_ context.Context, id string) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	delete(r.db.secretStore.seedPhrases, id)
	return nil
}

func (r SecretRepositoryImpl) SavePrivateKey(
	_ context.Context, record *domain.PrivateKeyRecord,
) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	if _, ok := r.db.secretStore.privateKeys[record.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.db.secretStore.privateKeys[record.ID] = record
	return nil
}

func (r SecretRepositoryImpl) GetPrivateKey(
	_ context.Context, id string,
) (*domain.PrivateKeyRecord, error) {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	record, ok := r.db.secretStore.privateKeys[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (r SecretRepositoryImpl) ListPrivateKeys(
	_ context.Context,
) ([]*domain.PrivateKeyRecord, error) {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	records := make([]*domain.PrivateKeyRecord, 0, len(r.db.secretStore.privateKeys))
	for _, record := range r.db.secretStore.privateKeys {
		records = append(records, record)
	}
	return records, nil
}

func (r SecretRepositoryImpl) RemovePrivateKey(_ context.Context, id string) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	delete(r.db.secretStore.privateKeys, id)
	return nil
}

func (r SecretRepositoryImpl) SavePassword(
	_ context.Context, record *domain.PasswordRecord,
) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	if r.db.secretStore.password != nil {
		return domain.ErrAlreadyExists
	}
	r.db.secretStore.password = record
	return nil
}

func (r SecretRepositoryImpl) GetPassword(
	_ context.Context,
) (*domain.PasswordRecord, error) {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	if r.db.secretStore.password == nil {
		return nil, domain.ErrNotFound
	}
	return r.db.secretStore.password, nil
}

func (r SecretRepositoryImpl) ReplacePassword(
	_ context.Context, record *domain.PasswordRecord,
) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	r.db.secretStore.password = record
	return nil
}

func (r SecretRepositoryImpl) ReplaceSeedPhrase(
	_ context.Context, record *domain.SeedPhraseRecord,
) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	r.db.secretStore.seedPhrases[record.ID] = record
	return nil
}

func (r SecretRepositoryImpl) ReplacePrivateKey(
	_ context.Context, record *domain.PrivateKeyRecord,
) error {
	r.db.secretStore.locker.Lock()
	defer r.db.secretStore.locker.Unlock()

	r.db.secretStore.privateKeys[record.ID] = record
	return nil
}
