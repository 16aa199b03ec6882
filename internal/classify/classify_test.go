package classify

import (
	"reflect"
	"testing"
	"time"

	"UploadWatcher/internal/domain"
)

func snapshot(ids []string, qa []string) domain.PortalSnapshot {
	snap := domain.PortalSnapshot{
		ArticleIDs:   map[string]struct{}{},
		QAPendingIDs: map[string]struct{}{},
	}
	for _, id := range ids {
		snap.ArticleIDs[id] = struct{}{}
	}
	for _, id := range qa {
		snap.QAPendingIDs[id] = struct{}{}
	}
	return snap
}

func TestAssigneeInPortalNotQAPending(t *testing.T) {
	t.Parallel()

	items := []domain.WorkItem{{ArticleID: "A1", Assignee: "X"}}
	got := Assignee("X", items, snapshot([]string{"A1"}, nil))

	if !reflect.DeepEqual(got.NotUploaded, []string{"A1"}) {
		t.Fatalf("expected A1 not uploaded, got %v", got.NotUploaded)
	}
	if len(got.Uploaded) != 0 {
		t.Fatalf("expected no uploaded items, got %v", got.Uploaded)
	}
}

func TestAssigneeQAPendingExcluded(t *testing.T) {
	t.Parallel()

	items := []domain.WorkItem{{ArticleID: "A1", Assignee: "X"}}
	got := Assignee("X", items, snapshot([]string{"A1"}, []string{"A1"}))

	if len(got.NotUploaded) != 0 {
		t.Fatalf("QA-pending article must not be classified, got %v", got.NotUploaded)
	}
	if !reflect.DeepEqual(got.Uploaded, []string{"A1"}) {
		t.Fatalf("QA-pending article counts as uploaded, got %v", got.Uploaded)
	}
}

func TestAssigneeAbsentFromPortal(t *testing.T) {
	t.Parallel()

	items := []domain.WorkItem{{ArticleID: "A9", Assignee: "X"}}
	got := Assignee("X", items, snapshot([]string{"A1"}, nil))

	if len(got.NotUploaded) != 0 {
		t.Fatalf("article absent from portal is already past the portal stage, got %v", got.NotUploaded)
	}
	if !reflect.DeepEqual(got.Uploaded, []string{"A9"}) {
		t.Fatalf("unexpected uploaded list: %v", got.Uploaded)
	}
}

func TestAssigneeEmptyInputs(t *testing.T) {
	t.Parallel()

	if got := Assignee("X", nil, snapshot([]string{"A1", "A2"}, []string{"A2"})); len(got.NotUploaded) != 0 {
		t.Fatalf("empty work-item list must classify nothing, got %v", got.NotUploaded)
	}

	items := []domain.WorkItem{
		{ArticleID: "A1", Assignee: "X"},
		{ArticleID: "A2", Assignee: "X"},
	}
	if got := Assignee("X", items, snapshot(nil, nil)); len(got.NotUploaded) != 0 {
		t.Fatalf("empty portal set must classify nothing, got %v", got.NotUploaded)
	}
}

func TestAssigneeSkipsMalformedAndDuplicateItems(t *testing.T) {
	t.Parallel()

	items := []domain.WorkItem{
		{ArticleID: "", Assignee: "X"},
		{ArticleID: "A1", Assignee: "X"},
		{ArticleID: "A1", Assignee: "X"},
		{ArticleID: "A2", Assignee: "Y"},
	}
	got := Assignee("X", items, snapshot([]string{"A1", "A2"}, nil))

	if !reflect.DeepEqual(got.NotUploaded, []string{"A1"}) {
		t.Fatalf("expected exactly [A1], got %v", got.NotUploaded)
	}
}

func TestAssigneeResultIsSubsetOfPortalMinusQA(t *testing.T) {
	t.Parallel()

	items := []domain.WorkItem{
		{ArticleID: "A1", Assignee: "X"},
		{ArticleID: "A2", Assignee: "X"},
		{ArticleID: "A3", Assignee: "X"},
		{ArticleID: "A4", Assignee: "X"},
	}
	snap := snapshot([]string{"A1", "A2", "A3"}, []string{"A2"})

	got := Assignee("X", items, snap)
	want := []string{"A1", "A3"}
	if !reflect.DeepEqual(got.NotUploaded, want) {
		t.Fatalf("expected %v, got %v", want, got.NotUploaded)
	}
}

func TestAllGroupsPerAssignee(t *testing.T) {
	t.Parallel()

	items := []domain.WorkItem{
		{ArticleID: "A2", Assignee: "Y"},
		{ArticleID: "A1", Assignee: "X"},
		{ArticleID: "A3", Assignee: "X"},
		{ArticleID: "A1", Assignee: "Y"},
	}
	snap := snapshot([]string{"A1", "A2", "A3"}, nil)

	got := All(items, snap)
	if len(got) != 2 {
		t.Fatalf("expected 2 classifications, got %d", len(got))
	}
	if got[0].Assignee != "X" || got[1].Assignee != "Y" {
		t.Fatalf("expected sorted assignee order, got %s, %s", got[0].Assignee, got[1].Assignee)
	}
	if !reflect.DeepEqual(got[0].NotUploaded, []string{"A1", "A3"}) {
		t.Fatalf("unexpected list for X: %v", got[0].NotUploaded)
	}
	// A1 is assigned to both X and Y: it shows up in both lists.
	if !reflect.DeepEqual(got[1].NotUploaded, []string{"A1", "A2"}) {
		t.Fatalf("unexpected list for Y: %v", got[1].NotUploaded)
	}
}

func TestWholeHours(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)

	if got := WholeHours(now.Add(-90*time.Minute), now); got != 1 {
		t.Fatalf("90 minutes should floor to 1 hour, got %d", got)
	}
	if got := WholeHours(now.Add(time.Hour), now); got != 0 {
		t.Fatalf("future assignment should report 0, got %d", got)
	}
}

func TestFormatDelayBucketsToDays(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hours int
		want  string
	}{
		{0, "0 hours"},
		{5, "5 hours"},
		{23, "23 hours"},
		{24, "1 days"},
		{47, "1 days"},
		{48, "2 days"},
	}
	for _, c := range cases {
		if got := FormatDelay(c.hours); got != c.want {
			t.Errorf("FormatDelay(%d) = %q, want %q", c.hours, got, c.want)
		}
	}
}

func TestFormatDelayExactDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	assigned := now.Add(-24 * time.Hour)

	if got := FormatDelay(WholeHours(assigned, now)); got != "1 days" {
		t.Fatalf("exactly 24h should display as %q, got %q", "1 days", got)
	}
}

func TestPastDue(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	now := time.Date(2026, time.August, 26, 8, 0, 0, 0, loc)

	yesterday := time.Date(2026, time.August, 25, 23, 59, 0, 0, loc)
	if !PastDue(yesterday, now, loc) {
		t.Fatal("assignment before local midnight must be past due")
	}

	today := time.Date(2026, time.August, 26, 0, 30, 0, 0, loc)
	if PastDue(today, now, loc) {
		t.Fatal("assignment after local midnight must not be past due")
	}
}
