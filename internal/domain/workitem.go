package domain

import "time"

// WorkItem is a single assignment record fetched from the webhook.
type WorkItem struct {
	ArticleID  string
	Assignee   string
	AssignedAt time.Time
	Pages      int
}

// PortalSnapshot is an immutable view of the portal work queue at one
// point in time. QAPendingIDs is always a subset of ArticleIDs.
type PortalSnapshot struct {
	ArticleIDs   map[string]struct{}
	QAPendingIDs map[string]struct{}
	CapturedAt   time.Time
}

// Has reports whether the portal queue contains the given article.
func (s PortalSnapshot) Has(articleID string) bool {
	_, ok := s.ArticleIDs[articleID]
	return ok
}

// QAPending reports whether the article awaits QA validation.
func (s PortalSnapshot) QAPending(articleID string) bool {
	_, ok := s.QAPendingIDs[articleID]
	return ok
}

// Classification is the per-assignee reconciliation outcome. It is a
// snapshot derived on every check and never cached across checks.
type Classification struct {
	Assignee    string
	NotUploaded []string
	Uploaded    []string
}

// AllAssignees is the sentinel profile meaning "classify everyone".
const AllAssignees = "ALL"

// Settings is the runtime configuration of the periodic check loop.
type Settings struct {
	Assignee      string `json:"assignee"`
	Enabled       bool   `json:"enabled"`
	IntervalHours int    `json:"intervalHours"`
}

const (
	MinIntervalHours     = 1
	MaxIntervalHours     = 10
	DefaultIntervalHours = 3
)

// Clamp forces IntervalHours into the allowed range, substituting the
// default when unset.
func (s Settings) Clamp() Settings {
	switch {
	case s.IntervalHours == 0:
		s.IntervalHours = DefaultIntervalHours
	case s.IntervalHours < MinIntervalHours:
		s.IntervalHours = MinIntervalHours
	case s.IntervalHours > MaxIntervalHours:
		s.IntervalHours = MaxIntervalHours
	}
	return s
}

// Armed reports whether these settings should keep the check loop running.
func (s Settings) Armed() bool {
	return s.Enabled && s.Assignee != ""
}

// Notification is a sink-agnostic outbound message. Two notifications with
// the same Tag occupy the same slot: the later one replaces the earlier.
type Notification struct {
	Tag   string
	Title string
	Body  string
}

// CheckStatus enumerates check-run outcomes for the check log.
type CheckStatus string

const (
	CheckOK      CheckStatus = "ok"
	CheckSkipped CheckStatus = "skipped"
	CheckFailed  CheckStatus = "failed"
)

// CheckRecord is one entry of the persisted check log.
type CheckRecord struct {
	ID            string
	StartedAt     time.Time
	Duration      time.Duration
	Status        CheckStatus
	Error         string
	WebhookItems  int
	PortalRows    int
	NotUploaded   int
	Notifications int
}
