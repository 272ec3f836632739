package web3signer

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func Test_Client_TLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JsonRpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(JsonRpcResponse{
			JsonRpc: "2.0",
			ID:      req.ID,
			Result:  resultOf(t, []string{"0x14791697260E4c9A71f18484C9f997B308e59325"}),
		})
	}))
	t.Cleanup(srv.Close)

	caPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}))

	t.Run("trusted CA", func(t *testing.T) {
		client, err := NewWeb3SignerClientFromRemoteSignerConfig(&config.RemoteSignerConfig{
			Url:    srv.URL,
			CACert: caPEM,
		}, zaptest.NewLogger(t))
		require.NoError(t, err)

		var signer IWeb3Signer = client
		accounts, err := signer.EthAccounts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"0x14791697260E4c9A71f18484C9f997B308e59325"}, accounts)
	})

	t.Run("unknown CA", func(t *testing.T) {
		client, err := NewWeb3SignerClientFromRemoteSignerConfig(&config.RemoteSignerConfig{Url: srv.URL}, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = client.EthAccounts(context.Background())
		require.Error(t, err)
	})

	t.Run("bad client certificate", func(t *testing.T) {
		_, err := NewWeb3SignerClientFromRemoteSignerConfig(&config.RemoteSignerConfig{
			Url:    srv.URL,
			CACert: caPEM,
			Cert:   caPEM,
			Key:    "not a key",
		}, zaptest.NewLogger(t))
		require.Error(t, err)
	})
}

func Test_NewClient_Defaults(t *testing.T) {
	client, err := NewClient(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.Nil(t, client.limiter)

	_, err = NewClient(&Config{}, nil)
	require.Error(t, err)
}
