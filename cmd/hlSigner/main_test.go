package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivateKey = "0x0123456789012345678901234567890123456789012345678901234567890123"
	testAddress    = "0x14791697260E4c9A71f18484C9f997B308e59325"
	testVault      = "0x1719884eb866cb12b2287399b15f7db5e7d775ea"
	cancelAction   = `{"type":"cancel","cancels":[{"a":1,"o":123}]}`
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"HL_NETWORK", "HL_WALLET_TYPE", "HL_PRIVATE_KEY", "HL_VAULT_ADDRESS", "HL_NONCE_STORE", "HL_NONCE_STORE_PATH", "HL_VERBOSE"} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	app.Reader = strings.NewReader(stdin)

	err := app.Run(append([]string{"hl-signer"}, args...))
	return out.String(), err
}

func Test_AddressCommand(t *testing.T) {
	out, err := run(t, "", "--private-key", testPrivateKey, "address")
	require.NoError(t, err)
	assert.Equal(t, testAddress+"\n", out)
}

func Test_SignL1Command(t *testing.T) {
	t.Run("vault and expiry", func(t *testing.T) {
		out, err := run(t, "",
			"--network", "testnet", "--private-key", testPrivateKey,
			"sign-l1", "--action", cancelAction, "--nonce", "1700000000000",
			"--vault-address", testVault, "--expires-after", "1700000060000",
		)
		require.NoError(t, err)
		assert.Equal(t, `{"action":{"type":"cancel","cancels":[{"a":1,"o":123}]},"nonce":1700000000000,`+
			`"signature":{"r":"0x18f23ef1ffd8134671840c38cbafc7c95f3a609951d0e786919416f7f9e232cd","s":"0x56c91e1b9e94f31778b4406382ddd2c9d022e1fdcbb6213d4f1fe64467b273","v":28},`+
			`"vaultAddress":"0x1719884eb866cb12b2287399b15f7db5e7d775ea","expiresAfter":1700000060000}`+"\n", out)
	})

	t.Run("action from stdin", func(t *testing.T) {
		out, err := run(t, `{"type":"dummy","num":100000000000}`,
			"--private-key", testPrivateKey,
			"sign-l1", "--action-file", "-", "--nonce", "0",
		)
		require.NoError(t, err)
		assert.Contains(t, out, `"r":"0x53749d5b30552aeb2fca34b530185976545bb22d0b3ce6f62e31be961a59298"`)
		assert.Contains(t, out, `"v":27`)
	})

	t.Run("nonce from badger store", func(t *testing.T) {
		dir := t.TempDir()
		out, err := run(t, "",
			"--private-key", testPrivateKey, "--nonce-store", "badger", "--nonce-store-path", dir,
			"sign-l1", "--action", `{"type":"noop"}`,
		)
		require.NoError(t, err)

		var env struct {
			Nonce uint64 `json:"nonce"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &env))
		assert.Greater(t, env.Nonce, uint64(1700000000000))

		out, err = run(t, "", "--nonce-store", "badger", "--nonce-store-path", dir, "nonces")
		require.NoError(t, err)

		var records []struct {
			Address string `json:"address"`
			Nonce   uint64 `json:"nonce"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &records))
		require.Len(t, records, 1)
		assert.Equal(t, strings.ToLower(testAddress), records[0].Address)
		assert.Equal(t, env.Nonce, records[0].Nonce)

		store := []string{"--nonce-store", "badger", "--nonce-store-path", dir}
		out, err = run(t, "", append(store, "nonces", "--address", testAddress)...)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal([]byte(out), &records[0]))
		assert.Equal(t, env.Nonce, records[0].Nonce)

		out, err = run(t, "", append(store, "nonces", "--address", testAddress, "--delete")...)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal([]byte(out), &records[0]))
		assert.Equal(t, env.Nonce, records[0].Nonce)

		out, err = run(t, "", append(store, "nonces", "--address", testAddress)...)
		require.NoError(t, err)
		assert.Equal(t, "null\n", out)

		out, err = run(t, "", append(store, "nonces")...)
		require.NoError(t, err)
		assert.Equal(t, "[]\n", out)
	})

	t.Run("action file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "action.json")
		require.NoError(t, os.WriteFile(path, []byte(cancelAction), 0o600))

		out, err := run(t, "", "--private-key", testPrivateKey, "sign-l1", "--action-file", path, "--nonce", "1")
		require.NoError(t, err)
		assert.Contains(t, out, `"nonce":1,`)
	})
}

func Test_SignUserCommand(t *testing.T) {
	out, err := run(t, "",
		"--network", "testnet", "--private-key", testPrivateKey,
		"sign-user", "--action", `{"type":"usdSend","destination":"0x5e9ee1089755c3435139848e47e6635505d5a13a","amount":"1"}`,
		"--nonce", "1687816341423",
	)
	require.NoError(t, err)
	assert.Equal(t, `{"action":{"type":"usdSend","signatureChainId":"0x66eee","hyperliquidChain":"Testnet",`+
		`"destination":"0x5e9ee1089755c3435139848e47e6635505d5a13a","amount":"1","time":1687816341423},"nonce":1687816341423,`+
		`"signature":{"r":"0x637b37dd731507cdd24f46532ca8ba6eec616952c56218baeff04144e4a77073","s":"0x11a6a24900e6e314136d2592e2f8d502cd89b7c15b198e1bee043c9589f9fad7","v":27}}`+"\n", out)
}

func Test_RecoverCommand(t *testing.T) {
	t.Run("l1 with json signature", func(t *testing.T) {
		out, err := run(t, "",
			"--network", "testnet",
			"recover", "--action", cancelAction, "--nonce", "1700000000000",
			"--vault-address", testVault, "--expires-after", "1700000060000",
			"--signature", `{"r":"0x18f23ef1ffd8134671840c38cbafc7c95f3a609951d0e786919416f7f9e232cd","s":"0x56c91e1b9e94f31778b4406382ddd2c9d022e1fdcbb6213d4f1fe64467b273","v":28}`,
		)
		require.NoError(t, err)
		assert.Equal(t, testAddress+"\n", out)
	})

	t.Run("user with hex signature", func(t *testing.T) {
		out, err := run(t, "",
			"--network", "testnet",
			"recover", "--user", "--nonce", "1687816341423",
			"--action", `{"type":"usdSend","destination":"0x5e9ee1089755c3435139848e47e6635505d5a13a","amount":"1"}`,
			"--signature", "0x637b37dd731507cdd24f46532ca8ba6eec616952c56218baeff04144e4a7707311a6a24900e6e314136d2592e2f8d502cd89b7c15b198e1bee043c9589f9fad71b",
		)
		require.NoError(t, err)
		assert.Equal(t, testAddress+"\n", out)
	})

	t.Run("wrong network recovers someone else", func(t *testing.T) {
		out, err := run(t, "",
			"--network", "mainnet",
			"recover", "--user", "--nonce", "1687816341423",
			"--action", `{"type":"usdSend","destination":"0x5e9ee1089755c3435139848e47e6635505d5a13a","amount":"1"}`,
			"--signature", "0x637b37dd731507cdd24f46532ca8ba6eec616952c56218baeff04144e4a7707311a6a24900e6e314136d2592e2f8d502cd89b7c15b198e1bee043c9589f9fad71b",
		)
		if err == nil {
			assert.NotEqual(t, testAddress+"\n", out)
		}
	})

	t.Run("nonce required", func(t *testing.T) {
		_, err := run(t, "", "recover", "--action", cancelAction, "--signature", "0x00")
		assert.Error(t, err)
	})
}

func Test_HashActionCommand(t *testing.T) {
	out, err := run(t, "", "hash-action", "--action", cancelAction, "--nonce", "1700000000000")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"msgpack": "0x82a474797065a663616e63656ca763616e63656c739182a16101a16f7b",
		"connectionId": "0x227dd83fc6036ea00c6d486a485194f3592301e7e44368013c75d48fa26394a0"
	}`, out)

	out, err = run(t, "", "hash-action", "--action", cancelAction, "--nonce", "1700000000000",
		"--vault-address", testVault, "--expires-after", "1700000060000")
	require.NoError(t, err)
	assert.Contains(t, out, "0x763d03c6f4fbfed1e7b2b7c723875483ec43046c76259c0eb42449a0dfd67f7f")
}

func Test_CommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing private key", args: []string{"address"}},
		{name: "unknown network", args: []string{"--network", "devnet", "--private-key", testPrivateKey, "address"}},
		{name: "unknown wallet type", args: []string{"--wallet-type", "ledger", "address"}},
		{name: "web3signer without url", args: []string{"--wallet-type", "web3signer", "address"}},
		{name: "no action", args: []string{"--private-key", testPrivateKey, "sign-l1", "--nonce", "1"}},
		{name: "both action flags", args: []string{"--private-key", testPrivateKey, "sign-l1", "--action", cancelAction, "--action-file", "x", "--nonce", "1"}},
		{name: "malformed action", args: []string{"--private-key", testPrivateKey, "sign-l1", "--action", `{"type":"cancel","cancels":[]}`, "--nonce", "1"}},
		{name: "order without asset and side", args: []string{"--private-key", testPrivateKey, "sign-l1", "--action", `{"type":"order","orders":[{"p":"100","s":"1","t":{"limit":{"tif":"Gtc"}}}],"grouping":"na"}`, "--nonce", "1"}},
		{name: "bad vault", args: []string{"--private-key", testPrivateKey, "sign-l1", "--action", cancelAction, "--nonce", "1", "--vault-address", "0x12"}},
		{name: "unknown user action", args: []string{"--private-key", testPrivateKey, "sign-user", "--action", `{"type":"mint"}`, "--nonce", "1"}},
		{name: "nonces without store", args: []string{"nonces"}},
		{name: "nonces delete without address", args: []string{"--nonce-store", "memory", "nonces", "--delete"}},
		{name: "nonces bad address", args: []string{"--nonce-store", "memory", "nonces", "--address", "0x12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func Test_KeygenCommand(t *testing.T) {
	out, err := run(t, "", "keygen", "--key-name", "desk")
	require.NoError(t, err)

	var key struct {
		KeyId      string `json:"keyId"`
		Address    string `json:"address"`
		PrivateKey string `json:"privateKey"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &key))
	assert.True(t, strings.HasPrefix(key.KeyId, "local-key-"))
	require.NotEmpty(t, key.PrivateKey)

	// the printed key drives the address command
	addr, err := run(t, "", "--private-key", key.PrivateKey, "address")
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(key.Address)+"\n", strings.ToLower(addr))

	_, err = run(t, "", "keygen", "--key-type", "hsm")
	require.Error(t, err)
}
