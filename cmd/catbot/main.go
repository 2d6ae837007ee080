package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"cat-endurance/internal/api"
	"cat-endurance/internal/domain"
	"cat-endurance/internal/game"
	"cat-endurance/internal/logger"

	"github.com/joho/godotenv"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type options struct {
	apiURL      string
	name        string
	continent   string
	cat         string
	runs        int
	fps         int
	seed        int64
	skill       float64
	maxSeconds  float64
	realtime    bool
	submit      bool
	leaderboard bool
}

type runResult struct {
	playerID string
	name     string
	state    game.State
	rank     int
}

func main() {
	_ = godotenv.Load()

	opts := parseFlags()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.Error().Err(err).Msg("catbot failed")
		os.Exit(1)
	}
}

func parseFlags() options {
	apiURL := os.Getenv("CATBOT_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	var o options
	flag.StringVar(&o.apiURL, "api", apiURL, "leaderboard API base URL")
	flag.StringVar(&o.name, "name", "CatBot", "player name")
	flag.StringVar(&o.continent, "continent", "EU", "region code: "+strings.Join(domain.ContinentCodes, ", "))
	flag.StringVar(&o.cat, "cat", "1", "cat avatar id")
	flag.IntVar(&o.runs, "runs", 1, "number of games to play")
	flag.IntVar(&o.fps, "fps", 60, "simulated frames per second")
	flag.Int64Var(&o.seed, "seed", time.Now().UnixNano(), "random seed")
	flag.Float64Var(&o.skill, "skill", 0.9, "chance per frame of a sensible input, 0..1")
	flag.Float64Var(&o.maxSeconds, "max", 600, "give up after this many seconds of game time")
	flag.BoolVar(&o.realtime, "realtime", false, "play on the wall clock instead of fast-forwarding")
	flag.BoolVar(&o.submit, "submit", false, "submit each endurance duration to the leaderboard")
	flag.BoolVar(&o.leaderboard, "leaderboard", false, "print the leaderboard when done")
	flag.Parse()
	return o
}

func run(ctx context.Context, o options, log zerolog.Logger) error {
	if _, ok := domain.LookupContinent(o.continent); !ok {
		return fmt.Errorf("unknown continent %q", o.continent)
	}
	if o.runs < 1 {
		return fmt.Errorf("runs must be at least 1")
	}
	if o.fps < 1 {
		o.fps = 60
	}

	client := api.NewClient(o.apiURL, log)
	results := make([]runResult, o.runs)

	g, gCtx := errgroup.WithContext(ctx)
	for i := range o.runs {
		g.Go(func() error {
			res, err := playOne(gCtx, o, i, client, log)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printResults(results)

	if o.leaderboard {
		data, err := client.Leaderboard(ctx, 10, "")
		if err != nil {
			return fmt.Errorf("failed to fetch leaderboard: %w", err)
		}
		printLeaderboard(data)
	}
	return nil
}

func playOne(ctx context.Context, o options, i int, client *api.Client, log zerolog.Logger) (runResult, error) {
	id, err := gonanoid.New()
	if err != nil {
		return runResult{}, fmt.Errorf("failed to generate player id: %w", err)
	}
	res := runResult{playerID: "player_" + id, name: o.name, rank: -1}
	if o.runs > 1 {
		res.name = fmt.Sprintf("%s-%d", o.name, i+1)
	}

	cfg := game.DefaultConfig()
	engine := game.NewEngine(cfg, game.NewRandom(o.seed+int64(2*i)))
	bot := game.Thermostat(cfg, o.skill, game.NewRandom(o.seed+int64(2*i+1)))

	runLog := log.With().Str("player_id", res.playerID).Str("player_name", res.name).Logger()
	runLog.Debug().Msg("game started")

	frame := time.Second / time.Duration(o.fps)
	if o.realtime {
		res.state, err = engine.Run(ctx, engine.Start(), frame, bot)
	} else {
		res.state, err = engine.Simulate(ctx, engine.Start(), frame.Seconds(), o.maxSeconds, bot)
	}
	if err != nil {
		return res, err
	}

	runLog.Info().
		Str("status", string(res.state.Status)).
		Float64("endurance_duration", res.state.Timer).
		Str("grade", game.TimeGrade(res.state.Timer)).
		Msg("game finished")

	if !o.submit {
		return res, nil
	}
	result, err := client.SubmitScore(ctx, domain.ScoreRecord{
		PlayerID:          res.playerID,
		PlayerName:        res.name,
		CatAvatarID:       o.cat,
		ContinentID:       o.continent,
		EnduranceDuration: res.state.Timer,
	})
	if err != nil {
		return res, fmt.Errorf("failed to submit score for %s: %w", res.name, err)
	}
	res.rank = result.Rank
	return res, nil
}

func printResults(results []runResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tSTATUS\tTIME\tGRADE\tCOMFORT\tRANK")
	for _, r := range results {
		rank := "-"
		if r.rank > 0 {
			rank = fmt.Sprint(r.rank)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.name,
			r.state.Status,
			game.FormatTime(r.state.Timer),
			game.TimeGrade(r.state.Timer),
			game.ComfortStatus(r.state.Comfort),
			rank,
		)
	}
	w.Flush()
}

func printLeaderboard(data *domain.LeaderboardData) {
	fmt.Printf("\nleaderboard (%d players)\n", data.TotalPlayers)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPLAYER\tREGION\tTIME")
	for _, e := range data.Entries {
		region := e.ContinentID
		if c, ok := domain.LookupContinent(e.ContinentID); ok {
			region = c.Flag + " " + c.Name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Rank, e.PlayerName, region, game.FormatTime(e.EnduranceDuration))
	}
	w.Flush()
}
