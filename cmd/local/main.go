package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hidden-quest/internal/config"
	"hidden-quest/internal/game"
)

var (
	configPath = flag.String("config", "", "optional configuration file for rules and bot weights")
	humans     = flag.Int("humans", 1, "number of human seats sharing this terminal")
	bots       = flag.Int("bots", 3, "number of computer seats")
	seed       = flag.Int64("seed", 0, "random seed, 0 for time based")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	var seats []game.Seat
	isBot := map[string]bool{}
	for i := 0; i < *humans; i++ {
		seats = append(seats, game.Seat{ID: fmt.Sprintf("human-%d", i+1), Name: fmt.Sprintf("Player %d", i+1)})
	}
	for i := 0; i < *bots; i++ {
		id := fmt.Sprintf("bot-%d", i+1)
		seats = append(seats, game.Seat{ID: id, Name: fmt.Sprintf("Bot %d", i+1)})
		isBot[id] = true
	}

	s, err := game.NewSession(uuid.NewString(), "local", seats,
		game.WithRules(cfg.Game.Rules()),
		game.WithRand(rand.New(rand.NewSource(*seed))),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot start: %v\n", err)
		os.Exit(1)
	}

	in := bufio.NewReader(os.Stdin)
	for _, p := range s.Players {
		opts := s.Options(p.ID)
		if isBot[p.ID] {
			s.SelectQuest(p.ID, opts[0].ID)
			continue
		}
		fmt.Printf("\n%s, choose your secret quest:\n", p.Name)
		for i, q := range opts {
			fmt.Printf("  %d) %s: %s\n", i+1, q.Name, q.Description)
		}
		for {
			n := prompt(in, len(opts))
			if out := s.SelectQuest(p.ID, opts[n-1].ID); out.Accepted {
				break
			}
		}
	}

	for !s.GameOver {
		cur := s.CurrentPlayer()
		if isBot[cur.ID] {
			outs := game.PlayAutoTurn(s, cur.ID, cfg.Bot)
			for _, out := range outs {
				fmt.Printf("%s:", cur.Name)
				report(out)
			}
			if len(outs) == 0 || !outs[len(outs)-1].Accepted {
				fmt.Printf("%s cannot finish its turn, stopping.\n", cur.Name)
				return
			}
			continue
		}
		printTable(s)
		printHand(s, cur.ID)
		fmt.Println("Commands: d = draw, p <card#> [target#] = play, x <card#> = discard, t <card#> <card#> = transmute, e = end turn, q = quit")
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return
		}
		if out, quit := command(s, cur.ID, strings.Fields(line)); quit {
			return
		} else if out != nil {
			report(*out)
		}
	}

	fmt.Println("\nGame over!")
	if w := s.Winner(); w != nil {
		fmt.Printf("%s wins with quest %q\n", w.Name, w.Quest.Name)
	} else {
		fmt.Println("Nobody survived.")
	}
	js, _ := json.MarshalIndent(s.PublicView(nil), "", "  ")
	fmt.Println(string(js))
}

func command(s *game.Session, playerID string, parts []string) (*game.Outcome, bool) {
	if len(parts) == 0 {
		return nil, false
	}
	pv, _ := s.PrivateView(playerID)
	card := func(i int) string {
		if i < len(parts) {
			if n, err := strconv.Atoi(parts[i]); err == nil && n >= 1 && n <= len(pv.Hand) {
				return pv.Hand[n-1].ID
			}
		}
		return ""
	}
	var out game.Outcome
	switch parts[0] {
	case "q":
		return nil, true
	case "d":
		out = s.Draw(playerID)
	case "e":
		out = s.EndTurn(playerID)
	case "x":
		out = s.Discard(playerID, card(1))
	case "t":
		out = s.Transmute(playerID, []string{card(1), card(2)})
	case "p":
		target := ""
		if len(parts) > 2 {
			if n, err := strconv.Atoi(parts[2]); err == nil && n >= 1 && n <= len(s.Players) {
				target = s.Players[n-1].ID
			}
		}
		out = s.PlayCard(playerID, card(1), target)
	default:
		fmt.Println("Unknown command.")
		return nil, false
	}
	return &out, false
}

func prompt(in *bufio.Reader, limit int) int {
	for {
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			os.Exit(0)
		}
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 1 && n <= limit {
			return n
		}
		fmt.Printf("Enter a number between 1 and %d.\n", limit)
	}
}

func report(out game.Outcome) {
	if !out.Accepted {
		fmt.Printf("  rejected (%s): %s\n", out.Reason, out.Message)
		return
	}
	fmt.Printf("  %s\n", out.Message)
}

func printTable(s *game.Session) {
	v := s.PublicView(nil)
	fmt.Printf("\nTurn %d, %s phase. Draw pile %d, discard %d", v.Turn, v.Phase, v.DrawPileSize, v.DiscardPileSize)
	if v.TrapActive {
		fmt.Print(", a trap is set")
	}
	fmt.Println()
	for i, p := range v.Players {
		mark := " "
		if p.ID == v.CurrentPlayerID {
			mark = ">"
		}
		status := ""
		if !p.Alive {
			status = " (dead)"
		}
		fmt.Printf("%s %d) %-10s %-11s HP %2d/%2d ATK %d ARM %d hand %d quest %3d%%%s\n",
			mark, i+1, p.Name, p.Character, p.HP, p.MaxHP, p.ATK, p.Armor, p.HandCount, p.QuestProgress, status)
	}
}

func printHand(s *game.Session, playerID string) {
	pv, ok := s.PrivateView(playerID)
	if !ok {
		return
	}
	if pv.Quest != nil {
		fmt.Printf("Quest: %s\n", pv.Quest.Name)
		for _, c := range pv.Quest.Conditions {
			fmt.Printf("  - %s %d/%d\n", c.Description, c.Current, c.Target)
		}
	}
	fmt.Println("Hand:")
	for i, c := range pv.Hand {
		fmt.Printf("  %d) %s [%s]: %s\n", i+1, c.Name, c.Kind, c.Description)
	}
	if pv.MustDiscard > 0 {
		fmt.Printf("Discard %d before ending the turn.\n", pv.MustDiscard)
	}
}
