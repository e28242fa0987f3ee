// Package redis provides the Redis client wrapper and the per-tenant usage
// counter store.
package redis
