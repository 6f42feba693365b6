// Package secretstore defines the secret store boundary used by gsmconfig.
//
// A secret store is anything that can enumerate named, versioned secrets and
// return the payload of one version. gsmconfig only ever reads from a store:
// it lists secrets, lists the versions of each secret, and reads one payload.
// Everything else (creating secrets, rotating versions, IAM) is out of scope.
//
// # Store Contract
//
//	┌──────────────┐  ListSecrets(scope, filter)   ┌────────────────┐
//	│ secretconfig │ ─────────────────────────────►│                │
//	│   providers  │  ListVersions(secret, filter) │  Store adapter │──► cloud API
//	│              │ ─────────────────────────────►│                │
//	│              │  AccessVersion(version)       │                │
//	│              │ ─────────────────────────────►│                │
//	└──────────────┘                               └────────────────┘
//
// Listing calls return single-pass iterators. Each call to Next returns the
// next element or iterator.Done (from google.golang.org/api/iterator) once the
// sequence is exhausted. Iterators fetch pages lazily; callers must not assume
// a count up front and must drain them to the end.
//
// Filters are passed through verbatim. The GCP adapter hands them to the
// Secret Manager API; the AWS and Azure adapters understand the subset
// described on FilterTerms.
//
// # Implementations
//
//   - GCPStore: Google Cloud Secret Manager (cloud.google.com/go/secretmanager)
//   - AWSStore: AWS Secrets Manager (aws-sdk-go-v2/service/secretsmanager)
//   - AzureStore: Azure Key Vault (azure-sdk-for-go/sdk/security/keyvault/azsecrets)
//
// Each adapter takes a narrow client interface so tests can substitute the
// fakes in tests/fakes instead of talking to a cloud.
//
// # Errors
//
// Adapters return SDK errors unmodified. Callers that want friendlier text use
// internal/errors.StoreSuggestion on the returned error.
package secretstore
