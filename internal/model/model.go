// Package model defines the domain models for driverhelper.
package model

import "strings"

// Entity names a local table. Outbox records carry it verbatim.
type Entity string

// Entity tables.
const (
	EntityTransactions  Entity = "earnings"
	EntityReminders     Entity = "reminders"
	EntityNotes         Entity = "notes"
	EntityHealthMetrics Entity = "health_metrics"
	EntityPosts         Entity = "community_posts"
	EntitySosLogs       Entity = "sos_logs"
	EntityUserProfile   Entity = "user_profile"
)

// AllEntities lists the entity tables in display order.
func AllEntities() []Entity {
	return []Entity{
		EntityTransactions,
		EntityReminders,
		EntityNotes,
		EntityHealthMetrics,
		EntityPosts,
		EntitySosLogs,
		EntityUserProfile,
	}
}

// IsValidEntity checks if s names an entity table.
func IsValidEntity(s string) bool {
	for _, e := range AllEntities() {
		if string(e) == s {
			return true
		}
	}
	return false
}

// SplitTags turns a comma-separated tag list into trimmed, non-empty tags.
func SplitTags(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}
