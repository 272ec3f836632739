package keyGenerator

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratedKey_PublicKeyFormats(t *testing.T) {
	pub := make([]byte, 65)
	pub[0] = 0x04
	pub[64] = 0xff

	gk := &GeneratedKey{PublicKey: pub, Address: common.HexToAddress("0x01"), KeyId: "k"}

	full, err := gk.GetPublicKeyHex()
	require.NoError(t, err)
	assert.Len(t, full, 2+130)

	unprefixed, err := gk.GetPublicKeyHexUnprefixed()
	require.NoError(t, err)
	assert.Len(t, unprefixed, 2+128)
	assert.Equal(t, full[4:], unprefixed[2:])

	summary, err := gk.Summary()
	require.NoError(t, err)
	b, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "privateKey")

	_, err = (&GeneratedKey{}).GetPublicKeyHex()
	assert.Error(t, err)
	_, err = (&GeneratedKey{PublicKey: []byte{1, 2}}).GetPublicKeyHexUnprefixed()
	assert.Error(t, err)
}
