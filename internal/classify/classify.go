// Package classify implements the reconciliation rules between the webhook
// assignment list and the portal work queue, plus the delay arithmetic used
// in notification bodies.
package classify

import (
	"fmt"
	"sort"
	"time"

	"UploadWatcher/internal/domain"
)

// Assignee reconciles one assignee's work items against a portal snapshot.
// An item counts as not uploaded when it still sits in the portal queue and
// is not QA-pending. Absence from the portal means the article already moved
// past the portal stage, so it counts as uploaded; QA-pending likewise.
// Items with an empty article ID are skipped. No input shape is an error.
func Assignee(assignee string, items []domain.WorkItem, snap domain.PortalSnapshot) domain.Classification {
	result := domain.Classification{Assignee: assignee}
	seen := map[string]struct{}{}

	for _, item := range items {
		if item.Assignee != assignee || item.ArticleID == "" {
			continue
		}
		if _, dup := seen[item.ArticleID]; dup {
			continue
		}
		seen[item.ArticleID] = struct{}{}

		if snap.Has(item.ArticleID) && !snap.QAPending(item.ArticleID) {
			result.NotUploaded = append(result.NotUploaded, item.ArticleID)
		} else {
			result.Uploaded = append(result.Uploaded, item.ArticleID)
		}
	}

	sort.Strings(result.NotUploaded)
	sort.Strings(result.Uploaded)
	return result
}

// All classifies every assignee present in items, in sorted assignee order.
// An article assigned to two people appears in both classifications.
func All(items []domain.WorkItem, snap domain.PortalSnapshot) []domain.Classification {
	assignees := make([]string, 0)
	known := map[string]struct{}{}
	for _, item := range items {
		if item.Assignee == "" {
			continue
		}
		if _, ok := known[item.Assignee]; ok {
			continue
		}
		known[item.Assignee] = struct{}{}
		assignees = append(assignees, item.Assignee)
	}
	sort.Strings(assignees)

	results := make([]domain.Classification, 0, len(assignees))
	for _, a := range assignees {
		results = append(results, Assignee(a, items, snap))
	}
	return results
}

// WholeHours returns the floor of elapsed hours between assignment and now.
// A future assignment reports zero.
func WholeHours(assignedAt, now time.Time) int {
	if !assignedAt.Before(now) {
		return 0
	}
	return int(now.Sub(assignedAt) / time.Hour)
}

// PastDue reports whether the assignment date falls strictly before today's
// midnight in loc.
func PastDue(assignedAt, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return assignedAt.In(loc).Before(midnight)
}

// FormatDelay renders whole hours for display. At and above 24 hours the
// value buckets to whole days by integer division; remainder hours are
// dropped. The day form is always pluralized ("1 days").
func FormatDelay(hours int) string {
	if hours < 0 {
		hours = 0
	}
	if hours >= 24 {
		return fmt.Sprintf("%d days", hours/24)
	}
	return fmt.Sprintf("%d hours", hours)
}
