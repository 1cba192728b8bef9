package domain

import "github.com/tidewallet/tide-daemon/pkg/vault"

// SeedPhraseRecord persists an encrypted mnemonic together with the
// bookkeeping needed to hand out derivation indexes. CurrentDerivationIndex
// is the next index to assign: it only ever grows, so an index is never
// reused even after the account that owned it is removed.
type SeedPhraseRecord struct {
	ID                     string               `json:"id"`
	Name                   string               `json:"name"`
	EncryptedMnemonic      *vault.EncryptedBlob `json:"encryptedMnemonic"`
	CurrentDerivationIndex uint32               `json:"currentDerivationIndex"`
	AccountIDs             []string             `json:"accountIds"`
}

// NextIndex reserves the next derivation index and links the account that
// claims it. Callers persist the updated record atomically with the new
// account.
func (r *SeedPhraseRecord) NextIndex(accountID string) uint32 {
	index := r.CurrentDerivationIndex
	r.CurrentDerivationIndex++
	r.AccountIDs = append(r.AccountIDs, accountID)
	return index
}

// Unlink removes an account from the record's ownership list.
func (r *SeedPhraseRecord) Unlink(accountID string) {
	ids := make([]string, 0, len(r.AccountIDs))
	for _, id := range r.AccountIDs {
		if id != accountID {
			ids = append(ids, id)
		}
	}
	r.AccountIDs = ids
}

// PrivateKeyRecord persists a single imported key, keyed by the content hash
// of the plaintext key so re-importing the same key resolves to the same
// record.
type PrivateKeyRecord struct {
	ID           string               `json:"id"`
	EncryptedKey *vault.EncryptedBlob `json:"encryptedKey"`
}

// PasswordRecord is the singleton master-password verifier. The wallet is
// uninitialized until one exists.
type PasswordRecord struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}
