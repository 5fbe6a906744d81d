package room

import (
	"context"

	"go.uber.org/zap"

	"hidden-quest/internal/game"
	"hidden-quest/internal/shared"
)

// maxBotActions bounds how many bot outcomes one human action can trigger.
const maxBotActions = 256

func (m *Manager) SelectQuest(ctx context.Context, code, playerID, questID string) (Reply, error) {
	return m.act(ctx, code, playerID, func(s *game.Session) game.Outcome {
		return s.SelectQuest(playerID, questID)
	})
}

func (m *Manager) Draw(ctx context.Context, code, playerID string) (Reply, error) {
	return m.act(ctx, code, playerID, func(s *game.Session) game.Outcome {
		return s.Draw(playerID)
	})
}

func (m *Manager) PlayCard(ctx context.Context, code, playerID, cardID, targetID string) (Reply, error) {
	return m.act(ctx, code, playerID, func(s *game.Session) game.Outcome {
		return s.PlayCard(playerID, cardID, targetID)
	})
}

func (m *Manager) Discard(ctx context.Context, code, playerID, cardID string) (Reply, error) {
	return m.act(ctx, code, playerID, func(s *game.Session) game.Outcome {
		return s.Discard(playerID, cardID)
	})
}

func (m *Manager) EndTurn(ctx context.Context, code, playerID string) (Reply, error) {
	return m.act(ctx, code, playerID, func(s *game.Session) game.Outcome {
		return s.EndTurn(playerID)
	})
}

func (m *Manager) Transmute(ctx context.Context, code, playerID string, cardIDs []string) (Reply, error) {
	return m.act(ctx, code, playerID, func(s *game.Session) game.Outcome {
		return s.Transmute(playerID, cardIDs)
	})
}

// act forwards one game action. A rejected outcome leaves the room untouched
// and is not persisted.
func (m *Manager) act(ctx context.Context, code, playerID string, fn func(s *game.Session) game.Outcome) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		if sl.room.member(playerID) == nil {
			return refuse(shared.CodePlayerNotFound, "player not in room"), nil
		}
		if sl.session == nil {
			return refuse(shared.CodeNotPlaying, "game has not started"), nil
		}
		out := fn(sl.session)
		if !out.Accepted {
			m.log.Debug("action rejected",
				zap.String("room_code", sl.room.Code),
				zap.String("player_id", playerID),
				zap.String("action", string(out.Action)),
				zap.String("reason", string(out.Reason)),
			)
			rep := refuse(out.Reason, out.Message)
			rep.Outcome = &out
			return rep, nil
		}

		outs := append([]game.Outcome{out}, m.runBots(sl)...)
		m.sync(sl)
		if err := m.persist(ctx, sl); err != nil {
			return Reply{}, err
		}
		m.pushOutcomes(sl, outs)
		m.pushState(sl)
		if sl.session.GameOver {
			m.log.Info("game over",
				zap.String("room_code", sl.room.Code),
				zap.String("winner_id", sl.session.WinnerID),
			)
			m.pushRoom(sl)
		}

		state := sl.session.PublicView(sl.room.connected)
		return Reply{
			Accepted: true,
			PlayerID: playerID,
			Outcome:  &out,
			State:    &state,
			Private:  m.private(sl, playerID),
		}, nil
	})
}

// sync moves the room status along with the session stage.
func (m *Manager) sync(sl *slot) {
	s := sl.session
	switch {
	case s == nil:
	case s.GameOver:
		sl.room.Status = StatusFinished
	case s.Stage == game.StagePlaying:
		sl.room.Status = StatusPlaying
	}
}

// runBots lets computer seats pick quests and take their turns until a human
// has to act.
func (m *Manager) runBots(sl *slot) []game.Outcome {
	s := sl.session
	var outs []game.Outcome
	if s.Stage == game.StageQuestSelection {
		for _, mem := range sl.room.Members {
			if !mem.IsBot {
				continue
			}
			if opts := s.Options(mem.ID); len(opts) > 0 {
				outs = append(outs, s.SelectQuest(mem.ID, opts[0].ID))
			}
		}
	}
	for len(outs) < maxBotActions && !s.GameOver && s.Stage == game.StagePlaying {
		cur := s.CurrentPlayer()
		if cur == nil {
			break
		}
		mem := sl.room.member(cur.ID)
		if mem == nil || !mem.IsBot {
			break
		}
		turn := game.PlayAutoTurn(s, cur.ID, m.weights)
		stuck := len(turn) == 0
		for _, o := range turn {
			if !o.Accepted {
				stuck = true
				continue
			}
			outs = append(outs, o)
		}
		if stuck {
			m.log.Warn("bot could not finish its turn", zap.String("room_code", sl.room.Code), zap.String("player_id", cur.ID))
			break
		}
	}
	return outs
}
