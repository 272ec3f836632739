package aws

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/pkg/errors"
)

const defaultProfile = "default"

// serviceAccountTokenPath is mounted into every pod; its presence means credentials
// come from IRSA rather than a shared profile.
var serviceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

type Options struct {
	// Region overrides the region from the environment and shared config
	Region string
	// Profile is the shared config profile. Falls back to AWS_PROFILE, then "default".
	// Ignored inside Kubernetes.
	Profile string
}

// LoadAWSConfig resolves credentials through the default chain.
func LoadAWSConfig(ctx context.Context, opts Options) (aws.Config, error) {
	var loadOptions []func(*config.LoadOptions) error

	if profile := resolveProfile(opts.Profile); profile != "" {
		loadOptions = append(loadOptions, config.WithSharedConfigProfile(profile))
	}
	if opts.Region != "" {
		loadOptions = append(loadOptions, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "failed to load AWS config")
	}
	return cfg, nil
}

// resolveProfile returns "" inside Kubernetes, where no shared config exists.
func resolveProfile(explicit string) string {
	if isInKubernetes() {
		return ""
	}
	if explicit != "" {
		return explicit
	}
	if profile := os.Getenv("AWS_PROFILE"); profile != "" {
		return profile
	}
	return defaultProfile
}

func isInKubernetes() bool {
	_, err := os.Stat(serviceAccountTokenPath)
	return err == nil
}

// Identity is the principal the loaded credentials act as.
type Identity struct {
	Account string
	Arn     string
	UserId  string
}

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func CallerIdentity(ctx context.Context, cfg aws.Config) (*Identity, error) {
	return callerIdentity(ctx, sts.NewFromConfig(cfg))
}

func callerIdentity(ctx context.Context, client stsAPI) (*Identity, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get AWS caller identity")
	}
	return &Identity{
		Account: aws.ToString(out.Account),
		Arn:     aws.ToString(out.Arn),
		UserId:  aws.ToString(out.UserId),
	}, nil
}
