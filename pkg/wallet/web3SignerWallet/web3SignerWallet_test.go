package web3SignerWallet

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/clients/web3signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/secp256k1Signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet/localWallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testPrivateKey = "0x0123456789012345678901234567890123456789012345678901234567890123"

// fakeWeb3Signer answers the way Web3Signer would, holding a single local key.
// upcheck is the body served on /upcheck.
func fakeWeb3Signer(t *testing.T, signer *localWallet.LocalWallet, upcheck string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/upcheck", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, upcheck)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "eth_accounts":
			result = []string{strings.ToLower(signer.GetAddress().Hex())}
		case "eth_signTypedData":
			require.Len(t, req.Params, 2)

			var td eip712.TypedData
			require.NoError(t, json.Unmarshal(req.Params[1], &td))

			sig, err := signer.SignTypedData(r.Context(), &td)
			require.NoError(t, err)
			result = sig
		default:
			t.Errorf("unexpected method %s", req.Method)
			return
		}

		raw, _ := json.Marshal(result)
		_ = json.NewEncoder(w).Encode(web3signer.JsonRpcResponse{JsonRpc: "2.0", ID: req.ID, Result: raw})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func typedData() *eip712.TypedData {
	return eip712.NewTypedData(
		eip712.Domain{Name: "HyperliquidSignTransaction", Version: "1", ChainId: big.NewInt(0x66eee)},
		"HyperliquidTransaction:UsdSend",
		[]eip712.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "destination", Type: "string"},
			{Name: "amount", Type: "string"},
			{Name: "time", Type: "uint64"},
		},
		map[string]interface{}{
			"hyperliquidChain": "Testnet",
			"destination":      "0x5e9ee1089755c3435139848e47e6635505d5a13a",
			"amount":           "1",
			"time":             uint64(1687816341423),
		},
	)
}

func Test_Web3SignerWallet(t *testing.T) {
	logger := zaptest.NewLogger(t)
	local, err := localWallet.NewLocalWalletFromHex(testPrivateKey, logger)
	require.NoError(t, err)

	srv := fakeWeb3Signer(t, local, "OK")
	ctx := context.Background()

	t.Run("Should sign through the remote service", func(t *testing.T) {
		w, err := NewWeb3SignerWalletFromConfig(ctx, &config.RemoteSignerConfig{
			Url:         srv.URL,
			FromAddress: local.GetAddress().Hex(),
		}, logger)
		require.NoError(t, err)
		assert.Equal(t, local.GetAddress(), w.GetAddress())

		sig, err := w.SignTypedData(ctx, typedData())
		require.NoError(t, err)
		assert.Equal(t, "0x"+
			"637b37dd731507cdd24f46532ca8ba6eec616952c56218baeff04144e4a77073"+
			"11a6a24900e6e314136d2592e2f8d502cd89b7c15b198e1bee043c9589f9fad7"+
			"1b", sig)
	})

	t.Run("Should reject a signature from another key", func(t *testing.T) {
		client, err := web3signer.NewClient(&web3signer.Config{BaseURL: srv.URL}, logger)
		require.NoError(t, err)

		w, err := NewWeb3SignerWallet(client, common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"), logger)
		require.NoError(t, err)

		_, err = w.SignTypedData(ctx, typedData())
		require.ErrorIs(t, err, secp256k1Signer.ErrRecoveryFailure)
	})

	t.Run("Should reject an address the service does not hold", func(t *testing.T) {
		_, err := NewWeb3SignerWalletFromConfig(ctx, &config.RemoteSignerConfig{
			Url:         srv.URL,
			FromAddress: "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
		}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no key for")
	})

	t.Run("Should reject a service that is not up", func(t *testing.T) {
		down := fakeWeb3Signer(t, local, "STARTING")
		_, err := NewWeb3SignerWalletFromConfig(ctx, &config.RemoteSignerConfig{
			Url:         down.URL,
			FromAddress: local.GetAddress().Hex(),
		}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not available")
	})

	t.Run("Should reject invalid config", func(t *testing.T) {
		_, err := NewWeb3SignerWalletFromConfig(ctx, &config.RemoteSignerConfig{Url: srv.URL}, logger)
		require.Error(t, err)

		_, err = NewWeb3SignerWallet(nil, local.GetAddress(), logger)
		require.Error(t, err)
	})
}
