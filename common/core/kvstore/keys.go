package kvstore

import "strings"

const KeySeparator = ":"

func Key(segments ...string) string {
	return strings.Join(segments, KeySeparator)
}

func FirstSegment(key string) string {
	if i := strings.Index(key, KeySeparator); i >= 0 {
		return key[:i]
	}
	return key
}

func LastSegment(key string) string {
	if i := strings.LastIndex(key, KeySeparator); i >= 0 {
		return key[i+1:]
	}
	return key
}

// SegmentAt returns the zero-based segment of key.
func SegmentAt(key string, index int) (string, bool) {
	segments := strings.Split(key, KeySeparator)
	if index < 0 || index >= len(segments) {
		return "", false
	}
	return segments[index], true
}

func SegmentCount(key string) int {
	return strings.Count(key, KeySeparator) + 1
}
