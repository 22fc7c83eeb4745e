package txlookup_test

import (
	"testing"

	"github.com/akavelink/akavelink/txlookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddress(t *testing.T) {
	// Well-known test vector.
	const key = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	const want = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"

	addr, err := txlookup.DeriveAddress(key)
	require.NoError(t, err)
	assert.Equal(t, want, addr)

	// 0x prefix is tolerated.
	addr, err = txlookup.DeriveAddress("0x" + key)
	require.NoError(t, err)
	assert.Equal(t, want, addr)
}

func TestDeriveAddress_Invalid(t *testing.T) {
	_, err := txlookup.DeriveAddress("not-a-key")
	assert.Error(t, err)

	_, err = txlookup.DeriveAddress("")
	assert.Error(t, err)
}
