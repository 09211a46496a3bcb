package identitycache

import "github.com/karupanerura/identity-cache/expiration"

// PendingExpirations returns the number of armed expirations.
func (c *Cache[K, V]) PendingExpirations() int {
	if c.scheduler == nil {
		return 0
	}
	return c.scheduler.Pending()
}

// IndexLen returns the number of identity keys in the secondary index.
func (c *Cache[K, V]) IndexLen() int {
	return c.index.Len()
}

// LookupIdentity returns the primary keys indexed under the identity key.
func (c *Cache[K, V]) LookupIdentity(identity IdentityKey) []K {
	return c.index.Lookup(identity)
}

// ArmedToken returns the token of the expiration armed for the key, or zero.
func (c *Cache[K, V]) ArmedToken(key K) expiration.Token {
	e, ok := c.store.Load(key)
	if !ok {
		return 0
	}
	return e.timer
}

// Expire runs the expiration of the key as the worker does when a task fires.
func (c *Cache[K, V]) Expire(key K, token expiration.Token) {
	c.expire(key, token)
}
