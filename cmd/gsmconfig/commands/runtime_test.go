package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/gsmconfig/internal/config"
	"github.com/systmms/gsmconfig/internal/stores"
)

func TestSourceSeparator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		storeType string
		separator string
		want      string
	}{
		{"gcp default", stores.TypeGCPSecretManager, "", "__"},
		{"aws default", stores.TypeAWSSecretsManager, "", "__"},
		{"key vault default", stores.TypeAzureKeyVault, "", "--"},
		{"configured wins", stores.TypeAzureKeyVault, "-_-", "-_-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := config.SourceConfig{Kind: config.KindKeyValue, Separator: tt.separator}
			assert.Equal(t, tt.want, sourceSeparator(src, &stores.Opened{Type: tt.storeType}))
		})
	}
}
