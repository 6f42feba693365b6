package secretstore_test

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/iterator"

	"github.com/systmms/gsmconfig/pkg/secretstore"
	"github.com/systmms/gsmconfig/tests/fakes"
)

// Example walks a store the way the configuration providers do: list the
// secrets, list each one's enabled versions and read a payload.
func Example() {
	client := fakes.NewFakeGCPSecretManagerClient()
	client.AddSecretString("my-project", "app__Setting01", "5")
	client.AddSecretString("my-project", "app__Email__Host", "smtp.example.com")

	var store secretstore.Store = secretstore.NewGCPStoreWithClient(client)
	ctx := context.Background()

	secrets := store.ListSecrets(ctx, "my-project", "name:app__")
	for {
		secret, err := secrets.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			fmt.Println("list failed:", err)
			return
		}

		version, err := store.ListVersions(ctx, secret, secretstore.FilterEnabled).Next()
		if err != nil {
			fmt.Println("no enabled version:", secret.ID)
			continue
		}
		payload, err := store.AccessVersion(ctx, version)
		if err != nil {
			fmt.Println("access failed:", err)
			return
		}
		fmt.Printf("%s@%s = %s\n", secret.ID, version.ID, payload)
	}

	// Output:
	// app__Setting01@1 = 5
	// app__Email__Host@1 = smtp.example.com
}

// ExampleFilterTerms shows how store adapters without a native filter
// grammar read a Secret Manager style filter.
func ExampleFilterTerms() {
	for _, term := range secretstore.FilterTerms(`name:app__ AND labels.env:"prod"`) {
		fmt.Printf("%s=%s\n", term.Key, term.Value)
	}

	// Output:
	// name=app__
	// labels.env=prod
}
