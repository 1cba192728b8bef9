package hdwallet

// MultiChainKey bundles the keypairs derived for every supported chain at a
// single account index. Accounts are created from one of these so that all
// chain addresses exist from the start.
type MultiChainKey struct {
	Index uint32
	Keys  map[Chain]*ChainKey
}

// Engine is the multi-chain derivation façade. Chain detection follows a
// fixed priority order so a key valid for more than one chain resolves
// deterministically.
type Engine struct {
	derivers map[Chain]Deriver
	priority []Chain
}

// NewEngine returns an Engine covering all supported chains.
func NewEngine() *Engine {
	derivers := map[Chain]Deriver{
		ChainEVM:    NewEVMDeriver(),
		ChainSolana: NewSolanaDeriver(),
		ChainSui:    NewSuiDeriver(),
	}
	return &Engine{
		derivers: derivers,
		priority: []Chain{ChainEVM, ChainSolana, ChainSui},
	}
}

// Deriver returns the deriver for the given chain.
func (e *Engine) Deriver(chain Chain) (Deriver, error) {
	deriver, ok := e.derivers[chain]
	if !ok {
		return nil, ErrUnsupportedChain
	}
	return deriver, nil
}

// DeriveAll derives the keypair of every supported chain for the given
// mnemonic and account index.
func (e *Engine) DeriveAll(mnemonic string, index uint32) (*MultiChainKey, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	keys := make(map[Chain]*ChainKey, len(e.derivers))
	for chain, deriver := range e.derivers {
		key, err := deriver.DeriveFromSeed(seed, index)
		if err != nil {
			return nil, err
		}
		keys[chain] = key
	}
	return &MultiChainKey{Index: index, Keys: keys}, nil
}

// DetectChain attempts to import the raw key against each chain in priority
// order and returns the first chain whose validator builds a working keypair.
func (e *Engine) DetectChain(raw string) (Chain, *ChainKey, error) {
	for _, chain := range e.priority {
		deriver := e.derivers[chain]
		if key, err := deriver.FromPrivateKey(raw); err == nil {
			return chain, key, nil
		}
	}
	return "", nil, ErrInvalidKeyFormat
}
