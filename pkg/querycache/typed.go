package querycache

// AsSlice converts a cached value to []T. Unloaded or nil values yield nil.
func AsSlice[T any](v any) []T {
	s, _ := v.([]T)
	return s
}

// Items returns the visible value of key as []T.
func Items[T any](c *Cache, key string) ([]T, bool) {
	st, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	return AsSlice[T](st.Data), true
}
