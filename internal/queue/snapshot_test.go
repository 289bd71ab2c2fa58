package queue

import "testing"

func TestCategories_FixedOrderAndExhaustive(t *testing.T) {
	want := []string{"queued", "downloading", "completed", "error"}
	got := Categories()
	if len(got) != len(want) {
		t.Fatalf("Categories() len = %d, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.Key() != want[i] {
			t.Fatalf("Categories()[%d] = %q, want %q", i, c.Key(), want[i])
		}
		if c.Label() == "" {
			t.Fatalf("category %q has no label", c.Key())
		}
		parsed, ok := ParseCategory(c.Key())
		if !ok || parsed != c {
			t.Fatalf("ParseCategory(%q) = %v,%v want %v", c.Key(), parsed, ok, c)
		}
	}

	// Mutating the returned slice must not affect later calls.
	got[0] = Errored
	if Categories()[0] != Queued {
		t.Fatalf("Categories() returned shared backing array")
	}
}

func TestCategory_LabelsAndCancelable(t *testing.T) {
	tests := []struct {
		c          Category
		label      string
		cancelable bool
	}{
		{Queued, "Queued", true},
		{Downloading, "Downloading", true},
		{Completed, "Completed", false},
		{Errored, "Error", false},
	}
	for _, tt := range tests {
		if got := tt.c.Label(); got != tt.label {
			t.Errorf("%v.Label() = %q, want %q", tt.c, got, tt.label)
		}
		if got := tt.c.Cancelable(); got != tt.cancelable {
			t.Errorf("%v.Cancelable() = %v, want %v", tt.c, got, tt.cancelable)
		}
	}

	if Category(42).Valid() || Category(42).Label() != "" {
		t.Fatalf("out of range category should be invalid")
	}
	if _, ok := ParseCategory("paused"); ok {
		t.Fatalf("ParseCategory(paused) should fail")
	}
}

func TestSnapshot_AccessorsReturnCopies(t *testing.T) {
	snap := NewSnapshot(map[Category][]Job{
		Downloading: {{ID: "1", Title: "A"}},
	})

	jobs := snap.Jobs(Downloading)
	jobs[0].Title = "mutated"

	again := snap.Jobs(Downloading)
	if again[0].Title != "A" {
		t.Fatalf("Jobs should return a copy; got title %q", again[0].Title)
	}
	if snap.Jobs(Category(-1)) != nil || snap.Len(Category(9)) != 0 {
		t.Fatalf("invalid category should yield no jobs")
	}
}

func TestNewSnapshot_AssignsCategoryAndDropsEmptyIDs(t *testing.T) {
	snap := NewSnapshot(map[Category][]Job{
		Completed: {{ID: "c", Category: Queued}, {ID: ""}},
	})
	jobs := snap.Jobs(Completed)
	if len(jobs) != 1 || jobs[0].Category != Completed {
		t.Fatalf("jobs = %#v, want one completed job", jobs)
	}
}
