package tickets

import "sync"

// FeedbackSession holds a requester's in-progress star ratings for the
// three close-form questions. Zero means unanswered.
type FeedbackSession struct {
	Q1, Q2, Q3 int
}

func (f FeedbackSession) Rating(question int) int {
	switch question {
	case 1:
		return f.Q1
	case 2:
		return f.Q2
	case 3:
		return f.Q3
	}
	return 0
}

func (f FeedbackSession) Answered() bool {
	return f.Q1 > 0 || f.Q2 > 0 || f.Q3 > 0
}

// Average is the mean of the answered questions only; unanswered
// questions do not count toward the denominator. Zero when nothing is
// answered.
func (f FeedbackSession) Average() float64 {
	sum, n := 0, 0
	for q := 1; q <= 3; q++ {
		if r := f.Rating(q); r > 0 {
			sum += r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// SessionStore keeps unsubmitted feedback forms in process memory,
// keyed by ticket ID. Sessions are not persisted: a restart loses
// in-progress ratings and the user starts the close flow again.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]FeedbackSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]FeedbackSession)}
}

// Get returns the session for the ticket, creating an empty one if
// none exists yet.
func (s *SessionStore) Get(ticketID int64) FeedbackSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[ticketID]
	if !ok {
		s.sessions[ticketID] = sess
	}
	return sess
}

func (s *SessionStore) SetRating(ticketID int64, question, rating int) FeedbackSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[ticketID]
	switch question {
	case 1:
		sess.Q1 = rating
	case 2:
		sess.Q2 = rating
	case 3:
		sess.Q3 = rating
	}
	s.sessions[ticketID] = sess
	return sess
}

// ClearRating resets a single question back to unanswered.
func (s *SessionStore) ClearRating(ticketID int64, question int) FeedbackSession {
	return s.SetRating(ticketID, question, 0)
}

func (s *SessionStore) Delete(ticketID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, ticketID)
}
