// Package secure holds single secret values in memguard enclaves.
//
// gsmconfig reads configuration values that are usually credentials. When a
// value has to outlive the call that fetched it, as with
// `gsmconfig get --secure`, it is sealed in an enclave: encrypted in memory,
// kept out of swap where mlock is available, and only decrypted into a
// guarded buffer for the moment it is written out.
//
//	v := secure.NewValue([]byte(plain)) // plain is wiped
//	defer v.Destroy()
//	_, err := v.WriteTo(os.Stdout)
//
// Call memguard.Purge (or secure.Purge) before the process exits to wipe
// every buffer memguard still holds.
//
// This does not protect against an attacker with access to the running
// process.
package secure
