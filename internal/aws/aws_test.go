package aws

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outsideKubernetes(t *testing.T) {
	t.Helper()
	prev := serviceAccountTokenPath
	serviceAccountTokenPath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { serviceAccountTokenPath = prev })
}

func Test_resolveProfile(t *testing.T) {
	t.Run("outside kubernetes", func(t *testing.T) {
		outsideKubernetes(t)

		t.Setenv("AWS_PROFILE", "")
		assert.Equal(t, "default", resolveProfile(""))

		t.Setenv("AWS_PROFILE", "trading")
		assert.Equal(t, "trading", resolveProfile(""))
		assert.Equal(t, "signer", resolveProfile("signer"))
	})

	t.Run("inside kubernetes", func(t *testing.T) {
		token := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(token, []byte("jwt"), 0o600))

		prev := serviceAccountTokenPath
		serviceAccountTokenPath = token
		t.Cleanup(func() { serviceAccountTokenPath = prev })

		t.Setenv("AWS_PROFILE", "trading")
		assert.Equal(t, "", resolveProfile("signer"))
	})
}

type fakeSTS struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return f.out, f.err
}

func Test_callerIdentity(t *testing.T) {
	id, err := callerIdentity(context.Background(), &fakeSTS{out: &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:iam::123456789012:role/hl-signer"),
		UserId:  aws.String("AROAEXAMPLE"),
	}})
	require.NoError(t, err)
	assert.Equal(t, &Identity{
		Account: "123456789012",
		Arn:     "arn:aws:iam::123456789012:role/hl-signer",
		UserId:  "AROAEXAMPLE",
	}, id)

	_, err = callerIdentity(context.Background(), &fakeSTS{err: errors.New("expired token")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired token")
}
