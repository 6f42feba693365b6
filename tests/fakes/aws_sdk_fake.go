package fakes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// FakeSecretsManagerClient implements secretstore.AWSClientAPI in memory.
// Listings are paginated PageSize entries at a time.
type FakeSecretsManagerClient struct {
	mu      sync.Mutex
	secrets []*AWSSecretData

	Region   string
	PageSize int

	// Errors maps a secret name to an error returned by
	// ListSecretVersionIds and GetSecretValue. The key "*" fails ListSecrets.
	Errors map[string]error

	ListSecretsInputs []*secretsmanager.ListSecretsInput
}

// AWSSecretData holds a fake secret.
type AWSSecretData struct {
	Name     string
	ARN      string
	Created  time.Time
	Tags     map[string]string
	Versions []*AWSVersionData
}

// AWSVersionData holds one fake version. Versions without stages are
// deprecated.
type AWSVersionData struct {
	ID           string
	Stages       []string
	Created      time.Time
	SecretString *string
	SecretBinary []byte
}

var _ secretstore.AWSClientAPI = (*FakeSecretsManagerClient)(nil)

// NewFakeSecretsManagerClient creates an empty fake for us-east-1.
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Region:   "us-east-1",
		PageSize: 2,
		Errors:   make(map[string]error),
	}
}

// AddVersion adds a string version to name, creating the secret if needed.
func (f *FakeSecretsManagerClient) AddVersion(name, versionID, value string, created time.Time, stages ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.secretLocked(name)
	s.Versions = append(s.Versions, &AWSVersionData{
		ID:           versionID,
		Stages:       stages,
		Created:      created,
		SecretString: aws.String(value),
	})
}

// AddSecretString adds a secret whose only version is AWSCURRENT.
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	f.AddVersion(name, "v1", value, time.Now(), "AWSCURRENT")
}

// AddSecretBinary adds a secret with a binary AWSCURRENT version.
func (f *FakeSecretsManagerClient) AddSecretBinary(name string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.secretLocked(name)
	s.Versions = append(s.Versions, &AWSVersionData{
		ID:           "v1",
		Stages:       []string{"AWSCURRENT"},
		Created:      time.Now(),
		SecretBinary: value,
	})
}

// AddError configures the fake to fail for name.
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

func (f *FakeSecretsManagerClient) secretLocked(name string) *AWSSecretData {
	for _, s := range f.secrets {
		if s.Name == name {
			return s
		}
	}
	s := &AWSSecretData{
		Name:    name,
		ARN:     fmt.Sprintf("arn:aws:secretsmanager:%s:123456789012:secret:%s-AbCdEf", f.Region, name),
		Created: time.Now(),
	}
	f.secrets = append(f.secrets, s)
	return s
}

func (f *FakeSecretsManagerClient) lookupLocked(id string) *AWSSecretData {
	for _, s := range f.secrets {
		if s.Name == id || s.ARN == id {
			return s
		}
	}
	return nil
}

// ListSecrets pages through secrets matching the name and tag-key filters.
func (f *FakeSecretsManagerClient) ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListSecretsInputs = append(f.ListSecretsInputs, params)

	if err, ok := f.Errors["*"]; ok {
		return nil, err
	}

	var matched []types.SecretListEntry
	for _, s := range f.secrets {
		if !awsFilterMatch(params.Filters, s) {
			continue
		}
		entry := types.SecretListEntry{
			Name:        aws.String(s.Name),
			ARN:         aws.String(s.ARN),
			CreatedDate: aws.Time(s.Created),
		}
		for k, v := range s.Tags {
			entry.Tags = append(entry.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
		}
		matched = append(matched, entry)
	}

	page, next := paginate(len(matched), f.PageSize, aws.ToString(params.NextToken))
	out := &secretsmanager.ListSecretsOutput{SecretList: matched[page[0]:page[1]]}
	if next != "" {
		out.NextToken = aws.String(next)
	}
	return out, nil
}

// ListSecretVersionIds pages through the versions of a secret.
func (f *FakeSecretsManagerClient) ListSecretVersionIds(ctx context.Context, params *secretsmanager.ListSecretVersionIdsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretVersionIdsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.lookupLocked(aws.ToString(params.SecretId))
	if s == nil {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret.")}
	}
	if err, ok := f.Errors[s.Name]; ok {
		return nil, err
	}

	entries := make([]types.SecretVersionsListEntry, 0, len(s.Versions))
	for _, v := range s.Versions {
		entries = append(entries, types.SecretVersionsListEntry{
			VersionId:     aws.String(v.ID),
			VersionStages: v.Stages,
			CreatedDate:   aws.Time(v.Created),
		})
	}

	page, next := paginate(len(entries), f.PageSize, aws.ToString(params.NextToken))
	out := &secretsmanager.ListSecretVersionIdsOutput{
		ARN:      aws.String(s.ARN),
		Name:     aws.String(s.Name),
		Versions: entries[page[0]:page[1]],
	}
	if next != "" {
		out.NextToken = aws.String(next)
	}
	return out, nil
}

// GetSecretValue returns one version of a secret.
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.lookupLocked(aws.ToString(params.SecretId))
	if s == nil {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret.")}
	}
	if err, ok := f.Errors[s.Name]; ok {
		return nil, err
	}

	for _, v := range s.Versions {
		if params.VersionId != nil && v.ID != *params.VersionId {
			continue
		}
		out := &secretsmanager.GetSecretValueOutput{
			ARN:           aws.String(s.ARN),
			Name:          aws.String(s.Name),
			VersionId:     aws.String(v.ID),
			VersionStages: v.Stages,
		}
		if v.SecretString != nil {
			out.SecretString = aws.String(*v.SecretString)
		} else {
			out.SecretBinary = append([]byte(nil), v.SecretBinary...)
		}
		return out, nil
	}
	return nil, &types.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret value for VersionId")}
}

func awsFilterMatch(filters []types.Filter, s *AWSSecretData) bool {
	for _, flt := range filters {
		switch flt.Key {
		case types.FilterNameStringTypeName:
			if !anyValue(flt.Values, func(v string) bool {
				return strings.HasPrefix(strings.ToLower(s.Name), strings.ToLower(v))
			}) {
				return false
			}
		case types.FilterNameStringTypeTagKey:
			if !anyValue(flt.Values, func(v string) bool { _, ok := s.Tags[v]; return ok }) {
				return false
			}
		}
	}
	return true
}

func anyValue(values []string, match func(string) bool) bool {
	for _, v := range values {
		if match(v) {
			return true
		}
	}
	return false
}

// paginate returns the [start, end) bounds of the page at token and the
// token of the following page, or "".
func paginate(total, size int, token string) ([2]int, string) {
	if size <= 0 {
		size = total
	}
	start, _ := strconv.Atoi(token)
	if start > total {
		start = total
	}
	end := start + size
	if end >= total {
		return [2]int{start, total}, ""
	}
	return [2]int{start, end}, strconv.Itoa(end)
}
