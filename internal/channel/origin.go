package channel

import "strings"

// OriginPolicy decides whether a debuggee connection with the given Origin
// header may attach.
type OriginPolicy func(origin string) bool

// AllowAll accepts every origin. The runtime connects from localhost and
// usually sends no Origin at all, so this is the default.
func AllowAll() OriginPolicy {
	return func(string) bool { return true }
}

// AllowList accepts only the listed origins, compared case-insensitively.
// An empty list accepts every origin.
func AllowList(origins []string) OriginPolicy {
	if len(origins) == 0 {
		return AllowAll()
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(o)] = struct{}{}
	}
	return func(origin string) bool {
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}
