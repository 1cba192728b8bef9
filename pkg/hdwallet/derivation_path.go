package hdwallet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the sequence of child indexes walked from the master
// node. Hardened steps carry the hdkeychain.HardenedKeyStart offset.
type DerivationPath []uint32

// ParseDerivationPath parses a BIP32 path like m/44'/60'/0'/0/5 into its
// binary form. A trailing ' marks a hardened step, the leading m is optional.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strPath == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if len(elems) == 0 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)

		var offset uint32
		if strings.HasSuffix(elem, "'") {
			offset = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}

		value, err := strconv.ParseUint(elem, 10, 32)
		if err != nil {
			return nil, ErrMalformedDerivationPath
		}
		if value > uint64(math.MaxUint32-offset) {
			return nil, fmt.Errorf(
				"path step %d is out of the hardened range", value,
			)
		}
		path = append(path, offset+uint32(value))
	}

	return path, nil
}

// String renders the path in its canonical textual form.
func (path DerivationPath) String() string {
	if len(path) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("m")
	for _, step := range path {
		suffix := ""
		if step >= hdkeychain.HardenedKeyStart {
			step -= hdkeychain.HardenedKeyStart
			suffix = "'"
		}
		fmt.Fprintf(&sb, "/%d%s", step, suffix)
	}
	return sb.String()
}

// pathForIndex renders a chain's path template for the given account index
// and parses it back, so every derivation walks a path that round-trips
// through the canonical string form.
func pathForIndex(template string, index uint32) (DerivationPath, error) {
	return ParseDerivationPath(fmt.Sprintf(template, index))
}
