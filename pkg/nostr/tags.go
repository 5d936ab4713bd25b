package nostr

// Tag is a single tag row, the first element being the key.
type Tag []string

// Key returns the first element of the row, if any.
func (t Tag) Key() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the second element of the row, if any.
func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// Tags is the list of rows attached to an event.
type Tags []Tag

// Find returns the first row with the given key, or nil.
func (tags Tags) Find(key string) Tag {
	for _, t := range tags {
		if t.Key() == key {
			return t
		}
	}
	return nil
}

// FindAll returns every row with the given key.
func (tags Tags) FindAll(key string) Tags {
	found := make(Tags, 0)
	for _, t := range tags {
		if t.Key() == key {
			found = append(found, t)
		}
	}
	return found
}

// Value returns the value of the first row with the given key.
func (tags Tags) Value(key string) string {
	return tags.Find(key).Value()
}

// ContainsValue reports whether some row with the given key carries value.
func (tags Tags) ContainsValue(key, value string) bool {
	for _, t := range tags {
		if t.Key() == key && t.Value() == value {
			return true
		}
	}
	return false
}
