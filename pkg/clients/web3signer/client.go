package web3signer

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "http://localhost:9000"
	DefaultTimeout = 30 * time.Second

	jsonRpcVersion = "2.0"
)

// Config holds the connection settings of a Web3Signer client
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Client-side cap on requests per second, 0 disables limiting
	RequestsPerSecond float64

	TLSConfig *tls.Config
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Client talks to a Web3Signer instance over its JSON-RPC and REST endpoints
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLSConfig != nil {
		transport.TLSClientConfig = cfg.TLSConfig
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// NewWeb3SignerClientFromRemoteSignerConfig builds a client from the signer configuration.
// CACert, Cert and Key hold PEM data. A nil config yields the defaults.
func NewWeb3SignerClientFromRemoteSignerConfig(rsc *config.RemoteSignerConfig, logger *zap.Logger) (*Client, error) {
	cfg := DefaultConfig()
	if rsc == nil {
		return NewClient(cfg, logger)
	}

	if rsc.Url != "" {
		cfg.BaseURL = rsc.Url
	}
	cfg.RequestsPerSecond = rsc.RequestsPerSecond

	if rsc.CACert != "" || rsc.Cert != "" {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if rsc.CACert != "" {
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM([]byte(rsc.CACert)) {
				return nil, fmt.Errorf("failed to parse CA certificate")
			}
			tlsConfig.RootCAs = pool
		}
		if rsc.Cert != "" {
			cert, err := tls.X509KeyPair([]byte(rsc.Cert), []byte(rsc.Key))
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
		cfg.TLSConfig = tlsConfig
	}

	return NewClient(cfg, logger)
}

type JsonRpcRequest struct {
	JsonRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      string        `json:"id"`
}

type JsonRpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *JsonRpcError   `json:"error,omitempty"`
	ID      string          `json:"id"`
}

type JsonRpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *JsonRpcError) Error() string {
	return fmt.Sprintf("web3signer error %d: %s", e.Code, e.Message)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req := JsonRpcRequest{
		JsonRpc: jsonRpcVersion,
		Method:  method,
		Params:  params,
		ID:      uuid.New().String(),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	c.logger.Debug("Sending Web3Signer request",
		zap.String("method", method),
		zap.String("id", req.ID),
	)

	respBody, err := c.do(ctx, http.MethodPost, "/", "application/json", body)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}

	var resp JsonRpcResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if resp.ID != req.ID {
		return fmt.Errorf("%s response id %q does not match request id %q", method, resp.ID, req.ID)
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

func (c *Client) EthAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.call(ctx, "eth_accounts", []interface{}{}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error) {
	var sig string
	if err := c.call(ctx, "eth_signTypedData", []interface{}{account, typedData}, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

func (c *Client) Upcheck(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	body, err := c.do(ctx, http.MethodGet, "/upcheck", "", nil)
	if err != nil {
		return fmt.Errorf("upcheck failed: %w", err)
	}
	if strings.TrimSpace(string(body)) != "OK" {
		return fmt.Errorf("upcheck returned %q", strings.TrimSpace(string(body)))
	}
	return nil
}
