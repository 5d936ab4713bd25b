package keymanager

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDerivationPath(t *testing.T) {
	h := uint32(hdkeychain.HardenedKeyStart)

	tests := []struct {
		input  string
		output DerivationPath
		err    error
	}{
		{"m/44'/1237'/38383'/0", DefaultBasePath, nil},
		{"m/44'/1237'/38383'/0/5", DerivationPath{h + 44, h + 1237, h + 38383, 0, 5}, nil},
		{"m/0x2c'/0x4d5'/0x95ef'/0", DefaultBasePath, nil},
		{"m/2147483692/2147484885/2147522031/0", DefaultBasePath, nil},
		{"	m  /   44			'\n/\n   1237	\n\n\t'   /\n38383 ' /\t\t	0", DefaultBasePath, nil},
		{"44'/1237'/0/0", DerivationPath{h + 44, h + 1237, 0, 0}, nil},
		{"0/0", DerivationPath{0, 0}, nil},

		{"", nil, ErrNullDerivationPath},
		{"m", nil, ErrMalformedDerivationPath},
		{"m/", nil, ErrMalformedDerivationPath},
		{"/44'/1237'/0'/0", nil, ErrMalformedDerivationPath},
		{"0", nil, ErrMalformedDerivationPath},
		{"m/2147483648'", nil, nil},
		{"m/-1'", nil, nil},
	}
	for _, tt := range tests {
		path, err := ParseDerivationPath(tt.input)
		if err != nil && tt.err != nil {
			assert.Equal(t, tt.err, err)
		}
		assert.Equal(t, tt.output, path)
	}
}

func TestDerivationPathString(t *testing.T) {
	require.Equal(t, "m/44'/1237'/38383'/0", DefaultBasePath.String())
	require.Equal(t, "m/44'/1237'/38383'/0/3", DefaultBasePath.Child(3).String())
	require.Len(t, DefaultBasePath, 4)
	require.Equal(t, "", DerivationPath{}.String())
}

func TestValidateBasePath(t *testing.T) {
	h := uint32(hdkeychain.HardenedKeyStart)

	require.NoError(t, DefaultBasePath.validateBasePath())

	invalid := []DerivationPath{
		{h + 44, h + 1237, h + 38383},
		{h + 44, h + 1237, 38383, 0},
		{h + 44, h + 1237, h + 38383, h},
		DefaultBasePath.Child(0),
	}
	for _, path := range invalid {
		require.ErrorIs(t, path.validateBasePath(), ErrInvalidBasePath, path.String())
	}
}
