package redis

const (
	// KeyPrefixSession is the prefix for active session keys
	KeyPrefixSession = "marklet:session:"
	// KeyPrefixState is the prefix for pending OAuth state keys
	KeyPrefixState = "marklet:oauthstate:"
)

// SessionKey returns the Redis key for a session by jti
func SessionKey(jti string) string {
	return KeyPrefixSession + jti
}

// StateKey returns the Redis key for a pending OAuth state value
func StateKey(state string) string {
	return KeyPrefixState + state
}
