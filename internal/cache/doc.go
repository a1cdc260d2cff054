// Package cache provides the sharded LRU used to memoize composed
// transforms.
//
// A composed transform depends only on the operation tape and the original
// canvas size, never on pixel content, so a dataset export that applies the
// same tape to thousands of images computes the matrix once per distinct
// original size.
//
//	c := cache.NewSharded[string, int](256, cache.StringHasher)
//	v, err := c.GetOrCreate("key", func() (int, error) { return 42, nil })
//
// ShardedCache is safe for concurrent use and must not be copied after
// creation.
package cache
