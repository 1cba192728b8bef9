package dbbadger

import (
	"context"
	"errors"
	"sync"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const passwordRecordKey = "password"

// SecretRepositoryImpl is the badger implementation of the SecretRepository.
type SecretRepositoryImpl struct {
	db     *DbManager
	locker sync.Mutex
}

func newSecretRepositoryImpl(db *DbManager) domain.SecretRepository {
	return &SecretRepositoryImpl{db: db}
}

func (r *SecretRepositoryImpl) SaveSeedPhrase(
	_ context.Context, record *domain.SeedPhraseRecord,
) error {
	if err := r.db.Store.Insert(record.ID, *record); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SecretRepositoryImpl) GetSeedPhrase(
	_ context.Context, id string,
) (*domain.SeedPhraseRecord, error) {
	var record domain.SeedPhraseRecord
	if err := r.db.Store.Get(id, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *SecretRepositoryImpl) UpdateSeedPhrase(
	ctx context.Context, id string,
	updateFn func(*domain.SeedPhraseRecord) (*domain.SeedPhraseRecord, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	record, err := r.GetSeedPhrase(ctx, id)
	if err != nil {
		return err
	}
	updated, err := updateFn(record)
	if err != nil {
		return err
	}
	return r.db.Store.Update(id, *updated)
}

func (r *SecretRepositoryImpl) ListSeedPhrases(
	_ context.Context,
) ([]*domain.SeedPhraseRecord, error) {
	var records []domain.SeedPhraseRecord
	if err := r.db.Store.Find(&records, nil); err != nil {
		return nil, err
	}
	list := make([]*domain.SeedPhraseRecord, 0, len(records))
	for i := range records {
		list = append(list, &records[i])
	}
	return list, nil
}

func (r *SecretRepositoryImpl) RemoveSeedPhrase(_ context.Context, id string) error {
	err := r.db.Store.Delete(id, domain.SeedPhraseRecord{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return err
	}
	return nil
}

func (r *SecretRepositoryImpl) SavePrivateKey(
	_ context.Context, record *domain.PrivateKeyRecord,
) error {
	if err := r.db.Store.Insert(record.ID, *record); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SecretRepositoryImpl) GetPrivateKey(
	_ context.Context, id string,
) (*domain.PrivateKeyRecord, error) {
	var record domain.PrivateKeyRecord
	if err := r.db.Store.Get(id, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *SecretRepositoryImpl) ListPrivateKeys(
	_ context.Context,
) ([]*domain.PrivateKeyRecord, error) {
	var records []domain.PrivateKeyRecord
	if err := r.db.Store.Find(&records, nil); err != nil {
		return nil, err
	}
	list := make([]*domain.PrivateKeyRecord, 0, len(records))
	for i := range records {
		list = append(list, &records[i])
	}
	return list, nil
}

func (r *SecretRepositoryImpl) RemovePrivateKey(_ context.Context, id string) error {
	err := r.db.Store.Delete(id, domain.PrivateKeyRecord{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return err
	}
	return nil
}

func (r *SecretRepositoryImpl) SavePassword(
	_ context.Context, record *domain.PasswordRecord,
) error {
	if err := r.db.Store.Insert(passwordRecordKey, *record); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SecretRepositoryImpl) GetPassword(
	_ context.Context,
) (*domain.PasswordRecord, error) {
	var record domain.PasswordRecord
	if err := r.db.Store.Get(passwordRecordKey, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *SecretRepositoryImpl) ReplacePassword(
	_ context.Context, record *domain.PasswordRecord,
) error {
	return r.db.Store.Upsert(passwordRecordKey, *record)
}

func (r *SecretRepositoryImpl) ReplaceSeedPhrase(
	_ context.Context, record *domain.SeedPhraseRecord,
) error {
	return r.db.Store.Upsert(record.ID, *record)
}

func (r *SecretRepositoryImpl) ReplacePrivateKey(
	_ context.Context, record *domain.PrivateKeyRecord,
) error {
	return r.db.Store.Upsert(record.ID, *record)
}
