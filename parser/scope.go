package parser

// scope collects release actions for work in progress. Unless commit is called,
// close runs them newest first.
//
//	sc := new(scope)
//	defer sc.close()
//	... sc.onRollback(release) after each allocation ...
//	sc.commit()
type scope struct {
	undo      []func()
	committed bool
}

func (s *scope) onRollback(fn func()) {
	s.undo = append(s.undo, fn)
}

// commit hands ownership of everything registered so far to the caller.
func (s *scope) commit() {
	s.committed = true
	s.undo = nil
}

func (s *scope) close() {
	if s.committed {
		return
	}
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.undo = nil
}
