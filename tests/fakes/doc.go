// Package fakes provides test doubles for the cloud SDK clients wrapped by
// pkg/secretstore.
//
// Fakes are manually implemented (not generated) to provide precise control
// over listing order, version states and failures. Each fake records the
// requests it receives and exposes *Func fields to override a method.
//
// Usage:
//
//	client := fakes.NewFakeGCPSecretManagerClient()
//	client.AddSecretString("test-project", "app__Db__Host", "db.internal")
//	store := secretstore.NewGCPStoreWithClient(client)
//	// Load a provider from store...
package fakes
