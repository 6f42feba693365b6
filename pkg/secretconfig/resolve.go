package secretconfig

import (
	"context"
	"errors"

	"google.golang.org/api/iterator"

	"github.com/systmms/gsmconfig/internal/metrics"
	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// policy controls which listed secrets resolveSecrets reads.
type policy struct {
	provider string // metrics label
	first    bool
	accept   func(secretstore.Secret) bool
	log      Logger
}

// consumeAll reads every listed secret that accept lets through.
func consumeAll(provider string, log Logger, accept func(secretstore.Secret) bool) policy {
	return policy{provider: provider, accept: accept, log: orNop(log)}
}

// consumeFirst reads only the first listed secret.
func consumeFirst(provider string, log Logger) policy {
	return policy{provider: provider, first: true, log: orNop(log)}
}

type visitFunc func(secret secretstore.Secret, version secretstore.Version, payload []byte) error

// resolveSecrets lists the secrets of scope matching filter and calls visit
// with the payload of the newest enabled version of each one the policy
// accepts. Store errors are returned as is.
func resolveSecrets(ctx context.Context, store secretstore.Store, scope, filter string, pol policy, visit visitFunc) error {
	it := store.ListSecrets(ctx, scope, filter)
	seen := 0
	for {
		secret, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		seen++

		if pol.accept != nil && !pol.accept(secret) {
			pol.log.Debug("skipping secret %s: id does not start with prefix", secret.ID)
			metrics.RecordSkipped(pol.provider, metrics.ReasonPrefixMismatch)
			continue
		}

		version, ok, err := latestEnabled(ctx, store, secret)
		if err != nil {
			return err
		}
		if !ok {
			pol.log.Debug("skipping secret %s: no enabled version", secret.ID)
			metrics.RecordSkipped(pol.provider, metrics.ReasonNoEnabledVersion)
		} else {
			payload, err := store.AccessVersion(ctx, version)
			if err != nil {
				return err
			}
			if err := visit(secret, version, payload); err != nil {
				return err
			}
		}

		if pol.first {
			return nil
		}
	}

	if seen == 0 {
		pol.log.Debug("no secrets in %s match filter %q", scope, filter)
		metrics.RecordSkipped(pol.provider, metrics.ReasonNoMatch)
	}
	return nil
}

// latestEnabled returns the enabled version of secret with the greatest
// create time. Ties keep the version listed first.
func latestEnabled(ctx context.Context, store secretstore.Store, secret secretstore.Secret) (secretstore.Version, bool, error) {
	it := store.ListVersions(ctx, secret, secretstore.FilterEnabled)
	var (
		latest secretstore.Version
		found  bool
	)
	for {
		v, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return secretstore.Version{}, false, err
		}
		if v.State != secretstore.StateEnabled {
			continue
		}
		if !found || v.CreateTime.After(latest.CreateTime) {
			latest, found = v, true
		}
	}
	return latest, found, nil
}
