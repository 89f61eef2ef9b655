package store

import "testing"

func TestEnrollmentRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Enrollments()

	first, err := repo.Create("Alice", 10)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID == 0 {
		t.Error("Create() should assign an ID")
	}
	repo.Create("Bob", 4)

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() = %d enrollments, want 2", len(list))
	}
	if list[0].Name != "Bob" || list[0].Samples != 4 {
		t.Errorf("most recent = %+v, want Bob with 4 samples", list[0])
	}
}
