package stores

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// NewAWSStoreFactory opens AWS Secrets Manager.
//
// Options: region (required), profile, endpoint, access_key_id and
// secret_access_key (for LocalStack), role_arn with external_id and
// role_session_name.
func NewAWSStoreFactory(ctx context.Context, name string, cfg config.StoreConfig) (*Opened, error) {
	region := cfg.String("region")
	if region == "" {
		return nil, dserrors.ConfigError{
			Field:      fmt.Sprintf("stores.%s.region", name),
			Message:    "region is required for aws.secretsmanager",
			Suggestion: "Set region, e.g. us-east-1",
		}
	}

	configOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile := cfg.String("profile"); profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	if ak, sk := cfg.String("access_key_id"), cfg.String("secret_access_key"); ak != "" && sk != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ak, sk, cfg.String("session_token")),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if roleARN := cfg.String("role_arn"); roleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), roleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = "gsmconfig"
			if session := cfg.String("role_session_name"); session != "" {
				o.RoleSessionName = session
			}
			if externalID := cfg.String("external_id"); externalID != "" {
				o.ExternalID = aws.String(externalID)
			}
		})
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
	}

	client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if endpoint := cfg.String("endpoint"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &Opened{Store: secretstore.NewAWSStore(client, region)}, nil
}
