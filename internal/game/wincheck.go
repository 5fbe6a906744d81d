package game

// checkWin is the single place a game can end. Quest completion is scanned in
// turn order starting from the acting seat, so when one action completes two
// quests the actor is favoured. Failing that, the last player standing wins.
func (s *Session) checkWin(from int) {
	if s.GameOver || s.Stage != StagePlaying {
		return
	}
	n := len(s.Players)
	for i := 0; i < n; i++ {
		p := s.Players[(from+i)%n]
		if p.Alive && p.Complete {
			s.finish(p.ID, p.Name+" completed their quest")
			return
		}
	}

	var last *Player
	alive := 0
	for _, p := range s.Players {
		if p.Alive {
			alive++
			last = p
		}
	}
	switch alive {
	case 0:
		s.finish("", "nobody survived")
	case 1:
		s.finish(last.ID, last.Name+" is the last one standing")
	}
}

func (s *Session) finish(winnerID, msg string) {
	s.GameOver = true
	s.WinnerID = winnerID
	s.Stage = StageFinished
	s.logAction(LogEntry{PlayerID: winnerID, Action: ActionGameOver, Message: msg})
}

// Winner returns the winning player, or nil while the game runs or when
// nobody survived.
func (s *Session) Winner() *Player {
	if !s.GameOver || s.WinnerID == "" {
		return nil
	}
	return s.Player(s.WinnerID)
}
