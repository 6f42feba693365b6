package secretstore

import (
	"context"
	"strings"
	"time"

	"google.golang.org/api/iterator"
)

// Store is the read-only view of a secret manager.
type Store interface {
	// ListSecrets returns the secrets under scope matching filter.
	// An empty filter lists everything.
	ListSecrets(ctx context.Context, scope, filter string) SecretIterator

	// ListVersions returns the versions of secret matching filter.
	ListVersions(ctx context.Context, secret Secret, filter string) VersionIterator

	// AccessVersion returns the payload bytes of one version.
	// The returned slice belongs to the caller.
	AccessVersion(ctx context.Context, version Version) ([]byte, error)
}

// Scoped is implemented by stores that carry their own listing scope, such as
// an AWS region or an Azure vault host, so no GCP project id is needed.
type Scoped interface {
	Scope() string
}

// SecretIterator is a single-pass sequence of secrets.
// Next returns iterator.Done when the sequence is exhausted.
type SecretIterator interface {
	Next() (Secret, error)
}

// VersionIterator is a single-pass sequence of secret versions.
// Next returns iterator.Done when the sequence is exhausted.
type VersionIterator interface {
	Next() (Version, error)
}

// Secret describes a secret returned by a listing.
type Secret struct {
	// Name is the store's full resource name (e.g. projects/p/secrets/id, an ARN).
	Name string

	// ID is the short secret id configuration keys are derived from.
	ID string

	CreateTime time.Time
	Labels     map[string]string
}

// Version describes one revision of a secret.
type Version struct {
	// Name is the store's full resource name of the version.
	Name string

	// ID is the version id within its secret.
	ID string

	// Secret is the owning secret's short id.
	Secret string

	State      State
	CreateTime time.Time
}

// State is the lifecycle state of a secret version.
type State int

const (
	StateUnspecified State = iota
	StateEnabled
	StateDisabled
	StateDestroyed
)

// String returns the state in the upper-case form used by filters.
func (s State) String() string {
	switch s {
	case StateEnabled:
		return "ENABLED"
	case StateDisabled:
		return "DISABLED"
	case StateDestroyed:
		return "DESTROYED"
	default:
		return "STATE_UNSPECIFIED"
	}
}

// ParseState parses a state name case-insensitively.
func ParseState(s string) State {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENABLED":
		return StateEnabled
	case "DISABLED":
		return StateDisabled
	case "DESTROYED":
		return StateDestroyed
	default:
		return StateUnspecified
	}
}

// SecretSlice returns an iterator over a fixed list of secrets.
func SecretSlice(secrets []Secret, err error) SecretIterator {
	return &secretSlice{items: secrets, err: err}
}

type secretSlice struct {
	items []Secret
	err   error
}

func (it *secretSlice) Next() (Secret, error) {
	if len(it.items) == 0 {
		if it.err != nil {
			return Secret{}, it.err
		}
		return Secret{}, iterator.Done
	}
	s := it.items[0]
	it.items = it.items[1:]
	return s, nil
}

// VersionSlice returns an iterator over a fixed list of versions.
func VersionSlice(versions []Version, err error) VersionIterator {
	return &versionSlice{items: versions, err: err}
}

type versionSlice struct {
	items []Version
	err   error
}

func (it *versionSlice) Next() (Version, error) {
	if len(it.items) == 0 {
		if it.err != nil {
			return Version{}, it.err
		}
		return Version{}, iterator.Done
	}
	v := it.items[0]
	it.items = it.items[1:]
	return v, nil
}

// lastSegment returns the part of a resource name after the final marker.
func lastSegment(name, marker string) string {
	if i := strings.LastIndex(name, marker); i >= 0 {
		rest := name[i+len(marker):]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	return name
}
