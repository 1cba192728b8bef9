package hdwallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "m/44'/60'/0'/0/0", expected: "m/44'/60'/0'/0/0"},
		{path: "m/44'/501'/0'/0'", expected: "m/44'/501'/0'/0'"},
		{path: "44'/784'/0'/0'/0'", expected: "m/44'/784'/0'/0'/0'"},
	}
	for _, tt := range tests {
		parsed, err := ParseDerivationPath(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, parsed.String())
	}
}

func TestChainPathTemplates(t *testing.T) {
	tests := []struct {
		template string
		index    uint32
		expected string
	}{
		{template: evmPathTemplate, index: 3, expected: "m/44'/60'/0'/0/3"},
		{template: solanaPathTemplate, index: 3, expected: "m/44'/501'/3'/0'"},
		{template: suiPathTemplate, index: 3, expected: "m/44'/784'/0'/0'/3'"},
	}
	for _, tt := range tests {
		path, err := pathForIndex(tt.template, tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, path.String())
	}
}

func TestFailingParseDerivationPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
	}{
		{name: "empty", path: "", err: ErrNullDerivationPath},
		{name: "leading slash", path: "/44'/60'", err: ErrMalformedDerivationPath},
		{name: "trailing slash", path: "m/44'/60'/", err: ErrMalformedDerivationPath},
		{name: "single elem", path: "m", err: ErrMalformedDerivationPath},
		{name: "not a number", path: "m/44'/abc", err: ErrMalformedDerivationPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDerivationPath(tt.path)
			assert.Equal(t, tt.err, err)
		})
	}
}

func TestParseDerivationPathHardenedBounds(t *testing.T) {
	_, err := ParseDerivationPath("m/2147483648'")
	require.Error(t, err)

	path, err := ParseDerivationPath("m/2147483647'")
	require.NoError(t, err)
	assert.Equal(t, "m/2147483647'", path.String())
}
