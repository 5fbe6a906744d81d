package shared

// Code is a machine-checkable reason attached to a rejected action.
type Code string

const (
	CodeGameOver        Code = "game_over"
	CodeNotPlaying      Code = "not_playing"
	CodeNotInGame       Code = "not_in_game"
	CodeNotYourTurn     Code = "not_your_turn"
	CodeWrongPhase      Code = "wrong_phase"
	CodeAlreadyPlayed   Code = "already_played"
	CodeCardNotInHand   Code = "card_not_in_hand"
	CodeTargetRequired  Code = "target_required"
	CodeTargetNotFound  Code = "target_not_found"
	CodeTargetDead      Code = "target_dead"
	CodeSelfTarget      Code = "self_target"
	CodeTrapActive      Code = "trap_active"
	CodeHandLimit       Code = "hand_limit"
	CodeEmptyDeck       Code = "empty_deck"
	CodeQuestHeld       Code = "quest_held"
	CodeQuestNotOffered Code = "quest_not_offered"
	CodeNoAbility       Code = "no_ability"
	CodeAbilityUsed     Code = "ability_used"
	CodeInvalidCards    Code = "invalid_cards"

	CodeRoomNotFound    Code = "room_not_found"
	CodeAlreadyStarted  Code = "already_started"
	CodeRoomFull        Code = "room_full"
	CodeDuplicateName   Code = "duplicate_name"
	CodeInvalidName     Code = "invalid_name"
	CodeInvalidCode     Code = "invalid_code"
	CodeNotHost         Code = "not_host"
	CodeNeedMorePlayers Code = "need_more_players"
	CodeNotAllReady     Code = "not_all_ready"
	CodePlayerNotFound  Code = "player_not_found"
	CodeInvalidToken    Code = "invalid_token"
)

// Rejection explains why an action was refused. It never accompanies a state change.
type Rejection struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (r *Rejection) Error() string {
	return string(r.Code) + ": " + r.Message
}

func Reject(code Code, msg string) *Rejection {
	return &Rejection{Code: code, Message: msg}
}
