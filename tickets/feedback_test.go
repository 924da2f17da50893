package tickets

import "testing"

func TestAverageCountsAnsweredOnly(t *testing.T) {
	sess := FeedbackSession{Q1: 4, Q3: 2}
	if avg := sess.Average(); avg != 3.0 {
		t.Fatalf("average = %v, want 3.0", avg)
	}
}

func TestAverageAllUnanswered(t *testing.T) {
	var sess FeedbackSession
	if sess.Answered() {
		t.Fatalf("empty session reports answered")
	}
	if avg := sess.Average(); avg != 0 {
		t.Fatalf("average of empty session = %v", avg)
	}
}

func TestSessionStoreGetOrCreate(t *testing.T) {
	s := NewSessionStore()

	first := s.Get(7)
	if first.Answered() {
		t.Fatalf("fresh session has ratings: %+v", first)
	}

	s.SetRating(7, 2, 4)
	if got := s.Get(7); got.Q2 != 4 {
		t.Fatalf("rating lost: %+v", got)
	}

	// Other tickets stay independent.
	if got := s.Get(8); got.Answered() {
		t.Fatalf("session leaked across tickets: %+v", got)
	}
}

func TestSessionStoreClearRating(t *testing.T) {
	s := NewSessionStore()
	s.SetRating(1, 1, 3)
	s.SetRating(1, 2, 5)

	got := s.ClearRating(1, 1)
	if got.Q1 != 0 {
		t.Fatalf("q1 not cleared: %+v", got)
	}
	if got.Q2 != 5 {
		t.Fatalf("clearing q1 touched q2: %+v", got)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	s := NewSessionStore()
	s.SetRating(1, 1, 5)
	s.Delete(1)
	if got := s.Get(1); got.Answered() {
		t.Fatalf("session survived delete: %+v", got)
	}
}
