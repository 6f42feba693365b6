package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics(t *testing.T) {
	// InitMetrics uses sync.Once; every test below relies on it having run.
	InitMetrics()
	InitMetrics()

	assert.True(t, IsMetricsRegistered())
}

func TestRecordingWhileInitializing(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			RecordLoad("concurrent-test", nil, time.Millisecond)
			SetKeysLoaded("concurrent-test", 3)
			RecordSkipped("concurrent-test", ReasonKeyConflict)
			RecordReload(time.Now())
		}()
		go func() {
			defer wg.Done()
			InitMetrics()
		}()
	}
	wg.Wait()

	assert.True(t, IsMetricsRegistered())
}

func TestRecordLoad(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(loadTotal.WithLabelValues("keyvalue-test", StatusError))
	RecordLoad("keyvalue-test", errors.New("unavailable"), 20*time.Millisecond)
	RecordLoad("keyvalue-test", nil, 10*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(loadTotal.WithLabelValues("keyvalue-test", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(loadTotal.WithLabelValues("keyvalue-test", StatusSuccess)))
}

func TestRecordSkippedAndKeys(t *testing.T) {
	InitMetrics()

	RecordSkipped("json-test", ReasonNoMatch)
	RecordSkipped("json-test", ReasonNoMatch)
	SetKeysLoaded("json-test", 7)
	SetKeysLoaded("json-test", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(secretsSkipped.WithLabelValues("json-test", ReasonNoMatch)))
	assert.Equal(t, 4.0, testutil.ToFloat64(keysLoaded.WithLabelValues("json-test")))
}

func TestRecordReload(t *testing.T) {
	InitMetrics()

	at := time.Unix(1_700_000_000, 0)
	RecordReload(at)

	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(lastReload))
}

func TestDefaultServerConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultServerConfig()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/metrics", cfg.Path)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
}

func TestServerServesMetrics(t *testing.T) {
	srv := NewServer(ServerConfig{Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second})
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	addr := srv.Addr()
	require.NotEmpty(t, addr)
	port := addr[strings.LastIndex(addr, ":"):]

	RecordLoad("server-test", nil, time.Millisecond)

	resp, err := http.Get("http://127.0.0.1" + port + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `gsmconfig_load_total{provider="server-test",status="success"} 1`)

	health, err := http.Get("http://127.0.0.1" + port + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServerStopBeforeStart(t *testing.T) {
	t.Parallel()

	srv := NewServer(DefaultServerConfig())
	assert.NoError(t, srv.Stop(context.Background()))
	assert.Empty(t, srv.Addr())
}
