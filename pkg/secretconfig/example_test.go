package secretconfig_test

import (
	"context"
	"fmt"

	"github.com/systmms/gsmconfig/pkg/secretconfig"
	"github.com/systmms/gsmconfig/pkg/secretstore"
	"github.com/systmms/gsmconfig/tests/fakes"
)

// AppConfig is bound from the merged tree.
type AppConfig struct {
	Setting01 int    `koanf:"Setting01"`
	Setting02 string `koanf:"Setting02"`
	Email     struct {
		Host string `koanf:"Host"`
		Port int    `koanf:"Port"`
		From string `koanf:"From"`
	} `koanf:"Email"`
}

// Example binds a struct from a JSON secret overlaid with per-key secrets.
func Example() {
	client := fakes.NewFakeGCPSecretManagerClient()
	client.AddSecretString("my-project", "appconfig01",
		`{"Setting01": 5, "Setting02": "from json", "Email": {"Host": "smtp.example.com", "Port": 25}}`)
	client.AddSecretString("my-project", "app__Email__Port", "587")
	client.AddSecretString("my-project", "app__Email__From", "noreply@example.com")
	store := secretstore.NewGCPStoreWithClient(client)

	b := secretconfig.NewBuilder(secretconfig.BuilderOptions{}).
		AddJSONSecretsWith(func(o *secretconfig.JSONOptions) {
			o.Store = store
			o.ProjectID = "my-project"
			o.Filter = "name:appconfig01"
		}).
		AddKeyValueSecretsWith(func(o *secretconfig.KeyValueOptions) {
			o.Store = store
			o.ProjectID = "my-project"
			o.Prefix = "app__"
		})
	defer b.Close()

	k, err := b.Build(context.Background())
	if err != nil {
		fmt.Println("build failed:", err)
		return
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		fmt.Println("unmarshal failed:", err)
		return
	}
	fmt.Println(cfg.Setting01, cfg.Setting02)
	fmt.Println(cfg.Email.Host, cfg.Email.Port, cfg.Email.From)

	// Output:
	// 5 from json
	// smtp.example.com 587 noreply@example.com
}

// ExampleKeyValueProvider reads one key per secret without a Builder.
func ExampleKeyValueProvider() {
	client := fakes.NewFakeGCPSecretManagerClient()
	client.AddSecretString("my-project", "svc__Database__Url", "postgres://db")

	p := secretconfig.NewKeyValueProvider(secretconfig.KeyValueOptions{
		Store:     secretstore.NewGCPStoreWithClient(client),
		ProjectID: "my-project",
		Prefix:    "svc__",
	})
	if err := p.Load(context.Background()); err != nil {
		fmt.Println(err)
		return
	}
	v, _ := p.Get("Database:Url")
	fmt.Println(v)

	// Output: postgres://db
}
