package main

import (
	"log"
	"os"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	actionFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "action",
			Usage: "Action JSON",
		},
		&cli.StringFlag{
			Name:  "action-file",
			Usage: "Path to a file holding the action JSON, - for stdin",
		},
		&cli.Uint64Flag{
			Name:  "nonce",
			Usage: "Nonce in unix milliseconds. Taken from the nonce provider when unset",
		},
	}
	l1Flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "vault-address",
			Usage:   "Vault or sub-account to act for",
			EnvVars: []string{config.EnvHLVaultAddress},
		},
		&cli.Uint64Flag{
			Name:  "expires-after",
			Usage: "Unix milliseconds after which the exchange rejects the action",
		},
	}

	return &cli.App{
		Name:  "hl-signer",
		Usage: "Sign Hyperliquid exchange actions",
		Description: `Builds and signs the request bodies accepted by the Hyperliquid /exchange endpoint.

L1 actions (orders, cancels, leverage, ...) are signed as an Agent connection id.
User actions (transfers, withdrawals, approvals) are signed as EIP-712 structs.
Keys can live in-process, behind a Web3Signer, or in AWS KMS.`,
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "network",
				Usage:   "Network to sign for (" + config.GetSupportedNetworksString() + ")",
				Value:   string(config.NetworkMainnet),
				EnvVars: []string{config.EnvHLNetwork},
			},
			&cli.StringFlag{
				Name:    "wallet-type",
				Usage:   "Wallet backend (local, web3signer, awskms)",
				Value:   string(config.WalletTypeLocal),
				EnvVars: []string{config.EnvHLWalletType},
			},
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "Hex private key for the local wallet",
				EnvVars: []string{config.EnvHLPrivateKey},
			},
			&cli.StringFlag{
				Name:    "remote-signer-url",
				Usage:   "Web3Signer base URL",
				EnvVars: []string{config.EnvHLRemoteSignerURL},
			},
			&cli.StringFlag{
				Name:    "remote-signer-from",
				Usage:   "Address the Web3Signer signs as",
				EnvVars: []string{config.EnvHLRemoteSignerFrom},
			},
			&cli.StringFlag{
				Name:  "remote-signer-ca-cert",
				Usage: "Path to the PEM CA certificate of the Web3Signer",
			},
			&cli.StringFlag{
				Name:  "remote-signer-cert",
				Usage: "Path to the PEM client certificate for mutual TLS",
			},
			&cli.StringFlag{
				Name:  "remote-signer-key",
				Usage: "Path to the PEM client key for mutual TLS",
			},
			&cli.StringFlag{
				Name:    "kms-key-id",
				Usage:   "AWS KMS key id or ARN",
				EnvVars: []string{config.EnvHLKMSKeyID},
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Usage:   "AWS region of the KMS key",
				EnvVars: []string{config.EnvHLAWSRegion},
			},
			&cli.StringFlag{
				Name:    "aws-profile",
				Usage:   "AWS shared config profile, ignored inside Kubernetes",
				EnvVars: []string{config.EnvHLAWSProfile},
			},
			&cli.StringFlag{
				Name:    "nonce-store",
				Usage:   "Nonce high-water-mark store (memory, badger, redis), empty for none",
				EnvVars: []string{config.EnvHLNonceStore},
			},
			&cli.StringFlag{
				Name:    "nonce-store-path",
				Usage:   "Data directory of the badger nonce store",
				EnvVars: []string{config.EnvHLNonceStorePath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "host:port of the redis nonce store",
				EnvVars: []string{config.EnvHLRedisAddress},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvHLVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "address",
				Usage:  "Print the address of the configured wallet",
				Action: addressCommand,
			},
			{
				Name:   "sign-l1",
				Usage:  "Sign an L1 action and print the /exchange request body",
				Flags:  append(append([]cli.Flag{}, actionFlags...), l1Flags...),
				Action: signL1Command,
			},
			{
				Name:   "sign-user",
				Usage:  "Sign a user action and print the /exchange request body",
				Flags:  actionFlags,
				Action: signUserCommand,
			},
			{
				Name:  "recover",
				Usage: "Recover the address that signed an action",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:     "signature",
						Usage:    "65-byte hex signature or {r,s,v} JSON",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "user",
						Usage: "The action is a user action",
					},
				}, actionFlags...), l1Flags...),
				Action: recoverCommand,
			},
			{
				Name:   "hash-action",
				Usage:  "Print the msgpack encoding and connection id of an L1 action",
				Flags:  append(append([]cli.Flag{}, actionFlags...), l1Flags...),
				Action: hashActionCommand,
			},
			{
				Name:  "nonces",
				Usage: "List, show or delete the nonce high-water marks in the configured store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "address",
						Usage: "Only show the record of this signing address",
					},
					&cli.BoolFlag{
						Name:  "delete",
						Usage: "Delete the record of --address, printing it as it was",
					},
				},
				Action: noncesCommand,
			},
			{
				Name:  "keygen",
				Usage: "Create a new signing key and print its address",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "key-type",
						Usage: "Where to create the key (local, awskms)",
						Value: "local",
					},
					&cli.StringFlag{
						Name:  "key-name",
						Usage: "Name tag of the key",
						Value: "hl-signer",
					},
					&cli.StringFlag{
						Name:  "alias",
						Usage: "Alias to register for the key",
					},
				},
				Action: keygenCommand,
			},
		},
	}
}
