package secretstore

import (
	"context"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"google.golang.org/api/iterator"
)

// AWSClientAPI is the subset of the Secrets Manager client used by AWSStore.
type AWSClientAPI interface {
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
	ListSecretVersionIds(ctx context.Context, params *secretsmanager.ListSecretVersionIdsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretVersionIdsOutput, error)
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSStore reads secrets from AWS Secrets Manager.
//
// Only the version labeled AWSCURRENT is reported as enabled. AWSPENDING
// versions are mid-rotation and AWSPREVIOUS ones are superseded, whatever
// their creation dates.
type AWSStore struct {
	client AWSClientAPI
	region string
}

// AWSCurrentStage is the staging label of the live version of a secret.
const AWSCurrentStage = "AWSCURRENT"

// NewAWSStore wraps a Secrets Manager client bound to region.
func NewAWSStore(client AWSClientAPI, region string) *AWSStore {
	return &AWSStore{client: client, region: region}
}

// Scope returns the region the client is bound to.
func (s *AWSStore) Scope() string {
	return s.region
}

// ListSecrets lists secrets visible to the client. scope is unused because
// the client is already bound to a region.
func (s *AWSStore) ListSecrets(ctx context.Context, scope, filter string) SecretIterator {
	input := &secretsmanager.ListSecretsInput{
		Filters: awsFilters(filter),
	}
	return &awsSecretIterator{
		ctx:   ctx,
		pages: secretsmanager.NewListSecretsPaginator(s.client, input),
	}
}

// ListVersions lists the non-deprecated versions of secret.
func (s *AWSStore) ListVersions(ctx context.Context, secret Secret, filter string) VersionIterator {
	id := secret.Name
	if id == "" {
		id = secret.ID
	}
	input := &secretsmanager.ListSecretVersionIdsInput{
		SecretId: aws.String(id),
	}
	want, filtered := wantsState(filter)
	return &awsVersionIterator{
		ctx:      ctx,
		secret:   secret,
		pages:    secretsmanager.NewListSecretVersionIdsPaginator(s.client, input),
		want:     want,
		filtered: filtered,
	}
}

// AccessVersion reads the string or binary payload of version.
func (s *AWSStore) AccessVersion(ctx context.Context, version Version) ([]byte, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:  aws.String(version.Name),
		VersionId: aws.String(version.ID),
	})
	if err != nil {
		return nil, err
	}
	if out.SecretString != nil {
		return []byte(*out.SecretString), nil
	}
	return out.SecretBinary, nil
}

// awsFilters maps filter terms onto ListSecrets filters. Unknown keys are
// dropped; "state" only applies to versions.
func awsFilters(filter string) []types.Filter {
	var filters []types.Filter
	for _, t := range FilterTerms(filter) {
		switch t.Key {
		case "name", "description", "tag-key", "tag-value", "primary-region", "owning-service", "all":
			filters = append(filters, types.Filter{
				Key:    types.FilterNameStringType(t.Key),
				Values: []string{t.Value},
			})
		}
	}
	return filters
}

type awsSecretIterator struct {
	ctx   context.Context
	pages *secretsmanager.ListSecretsPaginator
	page  []types.SecretListEntry
}

func (i *awsSecretIterator) Next() (Secret, error) {
	for len(i.page) == 0 {
		if !i.pages.HasMorePages() {
			return Secret{}, iterator.Done
		}
		out, err := i.pages.NextPage(i.ctx)
		if err != nil {
			return Secret{}, err
		}
		i.page = out.SecretList
	}
	e := i.page[0]
	i.page = i.page[1:]

	s := Secret{
		Name: aws.ToString(e.ARN),
		ID:   aws.ToString(e.Name),
	}
	if e.CreatedDate != nil {
		s.CreateTime = *e.CreatedDate
	}
	if len(e.Tags) > 0 {
		s.Labels = make(map[string]string, len(e.Tags))
		for _, tag := range e.Tags {
			s.Labels[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
		}
	}
	return s, nil
}

type awsVersionIterator struct {
	ctx      context.Context
	secret   Secret
	pages    *secretsmanager.ListSecretVersionIdsPaginator
	page     []types.SecretVersionsListEntry
	want     State
	filtered bool
}

func (i *awsVersionIterator) Next() (Version, error) {
	for {
		for len(i.page) == 0 {
			if !i.pages.HasMorePages() {
				return Version{}, iterator.Done
			}
			out, err := i.pages.NextPage(i.ctx)
			if err != nil {
				return Version{}, err
			}
			i.page = out.Versions
		}
		e := i.page[0]
		i.page = i.page[1:]

		v := Version{
			Name:   i.secret.Name,
			ID:     aws.ToString(e.VersionId),
			Secret: i.secret.ID,
			State:  StateDisabled,
		}
		if v.Name == "" {
			v.Name = i.secret.ID
		}
		if slices.Contains(e.VersionStages, AWSCurrentStage) {
			v.State = StateEnabled
		}
		if e.CreatedDate != nil {
			v.CreateTime = *e.CreatedDate
		}
		if i.filtered && v.State != i.want {
			continue
		}
		return v, nil
	}
}
