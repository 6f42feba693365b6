package secure

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValue_WipesInput(t *testing.T) {
	t.Parallel()

	data := []byte("hunter2-password")
	v := NewValue(data)
	defer v.Destroy()

	assert.Equal(t, make([]byte, len(data)), data, "source buffer must be zeroed")
	assert.Equal(t, len("hunter2-password"), v.Size())
}

func TestValue_WriteTo(t *testing.T) {
	t.Parallel()

	v := FromString("postgres://user:pw@db/app")
	defer v.Destroy()

	var out bytes.Buffer
	n, err := v.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(out.Len()), n)
	assert.Equal(t, "postgres://user:pw@db/app", out.String())

	// Readable more than once.
	out.Reset()
	_, err = v.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, "postgres://user:pw@db/app", out.String())
}

func TestValue_Empty(t *testing.T) {
	t.Parallel()

	v := NewValue(nil)
	var out bytes.Buffer
	n, err := v.WriteTo(&out)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, v.Size())
}

func TestValue_Destroy(t *testing.T) {
	t.Parallel()

	v := FromString("secret")
	v.Destroy()
	v.Destroy()

	_, err := v.Open()
	assert.ErrorIs(t, err, ErrDestroyed)

	_, err = v.WriteTo(&bytes.Buffer{})
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.Zero(t, v.Size())
}

func TestValue_ConcurrentReads(t *testing.T) {
	t.Parallel()

	v := FromString("shared-secret")
	defer v.Destroy()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf, err := v.Open()
			if !assert.NoError(t, err) {
				return
			}
			defer buf.Destroy()
			assert.Equal(t, "shared-secret", string(buf.Bytes()))
		}()
	}
	wg.Wait()
}
