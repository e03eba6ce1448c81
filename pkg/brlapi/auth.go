package brlapi

import (
	"os"

	"github.com/dbernaca/brltty2/pkg/wire"
)

// DefaultAuthCallback is the default AuthCallback: it accepts AUTH_NONE
// unconditionally, accepts AUTH_KEY by reading the shared secret from
// /etc/brlapi.key, and refuses everything else (AUTH_CRED is out of
// scope, see spec.md ss1). A Client built with WithAuthKeyPath uses the
// same logic against the configured path instead of this hard-coded one.
//
// This mirrors the original implementation's Client.auth_callback.
func DefaultAuthCallback(method wire.AuthMethod) (bool, []byte) {
	return defaultAuthCallback(method, "/etc/brlapi.key")
}

func defaultAuthCallback(method wire.AuthMethod, keyPath string) (bool, []byte) {
	switch method {
	case wire.AuthNone:
		return true, nil
	case wire.AuthKey:
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return false, nil
		}
		return true, key
	default:
		return false, nil
	}
}
