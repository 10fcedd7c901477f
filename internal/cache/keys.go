package cache

import (
	"strings"
)

// Key identifies a cached query as ordered segments, e.g. ["sites", "list"]
// or ["sites", "detail", "42"]. The first segment names the entity and
// selects the staleness window.
type Key []string

// sep cannot appear in URL-derived segments, so joined keys never collide.
const sep = "\x1f"

func (k Key) id() string { return strings.Join(k, sep) }

func (k Key) String() string { return strings.Join(k, "/") }

// Entity returns the first segment, or "" for an empty key.
func (k Key) Entity() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether every segment of p equals the matching segment of k.
// Matching is per segment: ["sites","li"] is not a prefix of ["sites","list"].
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

func parseKey(id string) Key {
	if id == "" {
		return Key{}
	}
	return Key(strings.Split(id, sep))
}

// Entity names used as the first key segment.
const (
	EntitySites      = "sites"
	EntityClients    = "clients"
	EntityActivities = "activities"
	EntityDashboard  = "dashboard"
	EntityUser       = "user"
)

// Key builders. List keys carry the search text as a q= segment so that
// Invalidate(ListsOf(entity)) drops every search result at once.

func ListsOf(entity string) Key { return Key{entity, "list"} }

func List(entity, query string) Key {
	q := strings.TrimSpace(query)
	if q == "" {
		return Key{entity, "list"}
	}
	return Key{entity, "list", "q=" + q}
}

// ListBy keys a backend-filtered list, e.g. the activities of one site.
func ListBy(entity, field, value string) Key { return Key{entity, "list", field + "=" + value} }

func Detail(entity, id string) Key { return Key{entity, "detail", id} }

func All(entity string) Key { return Key{entity} }

var (
	DashboardStats  = Key{EntityDashboard, "stats"}
	DashboardRecent = Key{EntityDashboard, "recent"}
	CurrentUser     = Key{EntityUser, "me"}
)
