package secure

import (
	"errors"
	"io"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed Value is used.
var ErrDestroyed = errors.New("secure value has been destroyed")

// Value is a secret sealed in a memguard enclave.
type Value struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	size      int
	destroyed bool
}

// NewValue seals data. data is wiped once copied into the enclave.
func NewValue(data []byte) *Value {
	v := &Value{size: len(data)}
	if len(data) > 0 {
		v.enclave = memguard.NewEnclave(data)
	}
	return v
}

// FromString seals a copy of s. The string itself cannot be wiped.
func FromString(s string) *Value {
	return NewValue([]byte(s))
}

// Size returns the length of the sealed value.
func (v *Value) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.size
}

// Open decrypts the value into a locked buffer. The caller must Destroy the
// buffer.
func (v *Value) Open() (*memguard.LockedBuffer, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.destroyed {
		return nil, ErrDestroyed
	}
	if v.enclave == nil {
		return memguard.NewBuffer(0), nil
	}
	return v.enclave.Open()
}

// WriteTo decrypts the value, writes it to w and wipes the plaintext.
func (v *Value) WriteTo(w io.Writer) (int64, error) {
	buf, err := v.Open()
	if err != nil {
		return 0, err
	}
	defer buf.Destroy()

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// Destroy drops the enclave. It is safe to call more than once.
func (v *Value) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enclave = nil
	v.size = 0
	v.destroyed = true
}

// Purge wipes every buffer memguard holds. Call it on exit.
func Purge() {
	memguard.Purge()
}
