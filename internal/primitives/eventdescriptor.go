package primitives

import "strings"

// ParseDescriptors splits a transition's space-separated event descriptor
// list ("error.* foo.bar baz") into tokens.
func ParseDescriptors(field string) []string {
	return strings.Fields(field)
}

// DescriptorMatches reports whether a single event descriptor matches an
// event name per W3C 3.12.1: exact match, "*" matches anything, and a
// descriptor matches any event name for which it is a dot-delimited prefix
// ("error" matches "error.send.failed" but not "errors").
func DescriptorMatches(descriptor, eventName string) bool {
	if descriptor == "*" {
		return true
	}
	if descriptor == eventName {
		return true
	}
	if strings.HasSuffix(descriptor, ".*") {
		descriptor = strings.TrimSuffix(descriptor, "*")
		return strings.HasPrefix(eventName, descriptor)
	}
	return strings.HasPrefix(eventName, descriptor+".")
}

// AnyDescriptorMatches reports whether any descriptor in the space-separated
// list matches eventName. An empty list never matches (used for eventless
// transitions, which are selected by a separate code path).
func AnyDescriptorMatches(descriptorField, eventName string) bool {
	for _, d := range ParseDescriptors(descriptorField) {
		if DescriptorMatches(d, eventName) {
			return true
		}
	}
	return false
}
