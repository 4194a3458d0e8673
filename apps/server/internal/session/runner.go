// Package session hosts one connected player's session behind an actor: every
// intent goes through a single event channel, so engine calls never race.
// Narrative generation runs in goroutines that post results back as events;
// a slow or dead collaborator never blocks a reveal.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"bombhunt-lite/bomb"
	"bombhunt-lite/bomb/npc"

	"bombhunt-lite/apps/server/internal/codec"
	"bombhunt-lite/apps/server/internal/history"
	"bombhunt-lite/apps/server/internal/narrative"
)

var ErrRunnerClosed = errors.New("session runner closed")

type eventType int

const (
	eventClient eventType = iota
	eventOpponentStep
	eventNarrative
	eventError
	eventClose
)

type narrativeKind int

const (
	narrativeBriefing narrativeKind = iota
	narrativeChat
	narrativeEnding
)

type event struct {
	Type   eventType
	Client codec.ClientEnvelope

	// For async results: the round they belong to. Stale results are dropped.
	RoundID  string
	Kind     narrativeKind
	Text     string
	Briefing narrative.Briefing
	Stance   bomb.Stance
	Claim    int
	Code     int

	Response chan error
}

// Options configures a runner; zero values get defaults.
type Options struct {
	Seed             int64
	ThinkDelay       time.Duration
	NarrativeTimeout time.Duration
}

// Runner drives one bomb.Session for one client connection.
type Runner struct {
	ID string

	mu        sync.RWMutex
	session   *bomb.Session
	policy    *npc.Policy
	closed    bool
	stopOnce  sync.Once
	serverSeq uint64
	opening   string

	events chan event
	done   chan struct{}

	broadcast func(data []byte)
	narrative narrative.Service
	fallback  narrative.Service
	histSvc   history.Service

	rng              *rand.Rand
	thinkDelay       time.Duration
	narrativeTimeout time.Duration
}

func New(
	broadcastFn func(data []byte),
	narrativeSvc narrative.Service,
	historySvc history.Service,
	opts Options,
) *Runner {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.ThinkDelay <= 0 {
		opts.ThinkDelay = 600 * time.Millisecond
	}
	if opts.NarrativeTimeout <= 0 {
		opts.NarrativeTimeout = 20 * time.Second
	}

	sess := bomb.NewSession(seed)
	r := &Runner{
		ID:               sess.ID(),
		session:          sess,
		events:           make(chan event, 64),
		done:             make(chan struct{}),
		broadcast:        broadcastFn,
		narrative:        narrativeSvc,
		fallback:         narrative.NewLocalService(seed + 1),
		histSvc:          historySvc,
		rng:              rand.New(rand.NewSource(seed + 2)),
		thinkDelay:       opts.ThinkDelay,
		narrativeTimeout: opts.NarrativeTimeout,
	}

	// Announce the session before the actor starts so the first envelope is
	// always the session info and seq ordering stays single-writer.
	r.sendSessionInfo()
	go r.run()
	r.spawnOpeningBriefing()

	log.Printf("[Session %s] Created", r.ID)
	return r
}

func (r *Runner) run() {
	for {
		select {
		case e := <-r.events:
			err := r.handleEvent(e)
			if e.Response != nil {
				e.Response <- err
			}
		case <-r.done:
			log.Printf("[Session %s] Actor stopped", r.ID)
			return
		}
	}
}

// Submit queues a decoded client message and waits for the engine verdict.
func (r *Runner) Submit(env codec.ClientEnvelope) error {
	return r.submit(event{Type: eventClient, Client: env, Response: make(chan error, 1)})
}

func (r *Runner) submit(e event) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRunnerClosed
	}

	select {
	case r.events <- e:
	case <-r.done:
		return ErrRunnerClosed
	}
	if e.Response == nil {
		return nil
	}
	select {
	case err := <-e.Response:
		return err
	case <-r.done:
		return ErrRunnerClosed
	}
}

// SendError emits an error envelope through the actor, so it carries the
// session's ordering counter like every other frame. Errors on a closed
// runner are dropped.
func (r *Runner) SendError(code int, msg string) {
	_ = r.submit(event{Type: eventError, Code: code, Text: msg})
}

// Stop shuts the actor down. Late narrative results are silently dropped.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *Runner) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Session exposes the underlying ledger for read-only inspection.
func (r *Runner) Session() *bomb.Session { return r.session }

func (r *Runner) handleEvent(e event) error {
	switch e.Type {
	case eventClient:
		return r.handleClient(e.Client)
	case eventOpponentStep:
		return r.handleOpponentStep(e.RoundID)
	case eventNarrative:
		r.handleNarrative(e)
		return nil
	case eventError:
		r.send(codec.ServerEnvelope{
			Type:  codec.ServerError,
			Error: &codec.ErrorMessage{Code: e.Code, Message: e.Text},
		})
		return nil
	case eventClose:
		r.Stop()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (r *Runner) handleClient(env codec.ClientEnvelope) error {
	switch env.Type {
	case codec.ClientBeginRound:
		return r.handleBeginRound(env.Difficulty)
	case codec.ClientPlaceBomb:
		return r.handlePlaceBomb(env.Row, env.Col)
	case codec.ClientReveal:
		return r.handleReveal(env.Row, env.Col)
	case codec.ClientChat:
		return r.handlePlayerChat(env.ClaimedCell, env.DeclaredTruth)
	default:
		return fmt.Errorf("unknown client message type: %q", env.Type)
	}
}

func (r *Runner) handleBeginRound(difficulty string) error {
	d, err := codec.ParseDifficulty(difficulty)
	if err != nil {
		return err
	}
	round, err := r.session.BeginRound(d)
	if err != nil {
		return err
	}
	r.policy = npc.NewPolicy(variantFor(d), r.session.Tracker(), r.rng.Int63())
	log.Printf("[Session %s] Round %s started (difficulty=%s, variant=%s)",
		r.ID, round.ID(), bomb.DifficultyDictionary[d], npc.VariantDictionary[variantFor(d)])
	r.sendRoundState(round)
	return nil
}

func (r *Runner) handlePlaceBomb(row, col int) error {
	round := r.session.Round()
	if round == nil {
		return bomb.ErrIllegalMove
	}
	if err := round.PlaceBomb(row, col); err != nil {
		return err
	}
	r.sendRoundState(round)
	r.openDialog(round)
	return nil
}

// openDialog has the opponent speak once at round start: the policy picks a
// stance, the engine materializes the claim, and the words arrive async.
func (r *Runner) openDialog(round *bomb.Round) {
	stance := r.policy.ChooseStance(round.Weakness())
	claim, spoke, err := round.OpponentClaim(stance)
	if err != nil {
		log.Printf("[Session %s] OpponentClaim failed: %v", r.ID, err)
		return
	}
	if !spoke {
		claim = 0
	}
	r.spawnChatLine(round.ID(), stance, claim)
}

func (r *Runner) handlePlayerChat(claimedCell int, declaredTruth bool) error {
	round := r.session.Round()
	if round == nil {
		return bomb.ErrIllegalMove
	}
	if err := round.RecordPlayerChat(claimedCell, declaredTruth); err != nil {
		return err
	}
	r.send(codec.ServerEnvelope{
		Type: codec.ServerChat,
		Chat: &codec.ChatMessage{
			Speaker:     bomb.OwnerDictionary[bomb.OwnerPlayer],
			ClaimedCell: claimedCell,
			Text:        fmt.Sprintf("My cache? Sector %d. Take it or leave it.", claimedCell),
		},
	})
	return nil
}

func (r *Runner) handleReveal(row, col int) error {
	round := r.session.Round()
	if round == nil {
		return bomb.ErrIllegalMove
	}
	outcome, err := round.RevealByPlayer(row, col)
	if err != nil {
		return err
	}
	r.send(codec.ServerEnvelope{
		Type: codec.ServerReveal,
		Reveal: &codec.RevealResult{
			By:  bomb.OwnerDictionary[bomb.OwnerPlayer],
			Row: row,
			Col: col,
			Hit: outcome.Hit,
		},
	})
	r.sendRoundState(round)

	if round.Phase() == bomb.PhaseTypeTerminal {
		r.finishRound(round)
		return nil
	}
	r.scheduleOpponentStep(round.ID())
	return nil
}

// scheduleOpponentStep injects the opponent's move back into the actor after
// a think delay, so the reply never lands in the same frame as the reveal.
func (r *Runner) scheduleOpponentStep(roundID string) {
	delay := r.thinkDelay
	go func() {
		time.Sleep(delay)
		_ = r.submit(event{Type: eventOpponentStep, RoundID: roundID})
	}()
}

func (r *Runner) handleOpponentStep(roundID string) error {
	round := r.session.Round()
	if round == nil || round.ID() != roundID {
		return nil // round abandoned; drop the stale step
	}
	if round.Phase() != bomb.PhaseTypeOpponentTurn {
		return nil
	}
	coord, outcome, err := round.StepOpponent(r.policy)
	if err != nil {
		log.Printf("[Session %s] StepOpponent failed: %v", r.ID, err)
		return err
	}
	r.send(codec.ServerEnvelope{
		Type: codec.ServerReveal,
		Reveal: &codec.RevealResult{
			By:  bomb.OwnerDictionary[bomb.OwnerOpponent],
			Row: coord.Row,
			Col: coord.Col,
			Hit: outcome.Hit,
		},
	})
	r.sendRoundState(round)

	if round.Phase() == bomb.PhaseTypeTerminal {
		r.finishRound(round)
	}
	return nil
}

func (r *Runner) finishRound(round *bomb.Round) {
	record, err := r.session.EndRound()
	if err != nil {
		log.Printf("[Session %s] EndRound failed: %v", r.ID, err)
		return
	}
	log.Printf("[Session %s] Round %s ended: winner=%s moves=%d",
		r.ID, record.Outcome.RoundID, bomb.OwnerDictionary[record.Outcome.Winner], record.Outcome.Moves)

	r.send(codec.ServerEnvelope{
		Type: codec.ServerRoundEnd,
		RoundEnd: &codec.RoundEnd{
			RoundID: record.Outcome.RoundID,
			Winner:  bomb.OwnerDictionary[record.Outcome.Winner],
			Moves:   record.Outcome.Moves,
		},
	})

	if r.histSvc != nil {
		sessionID := r.ID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.histSvc.AppendRound(ctx, sessionID, record); err != nil {
				log.Printf("[Session %s] persist round failed: %v", sessionID, err)
			}
		}()
	}

	r.spawnEndingReport(record.Outcome.RoundID, record.Outcome.Winner == bomb.OwnerPlayer)
}

// --- Async narrative ---

func (r *Runner) spawnOpeningBriefing() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.narrativeTimeout)
		defer cancel()
		briefing, err := r.narrative.OpeningBriefing(ctx)
		if err != nil {
			log.Printf("[Session %s] opening briefing failed, using local: %v", r.ID, err)
			briefing, _ = r.fallback.OpeningBriefing(context.Background())
		}
		_ = r.submit(event{Type: eventNarrative, Kind: narrativeBriefing, Briefing: briefing})
	}()
}

func (r *Runner) spawnChatLine(roundID string, stance bomb.Stance, claim int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.narrativeTimeout)
		defer cancel()
		line, err := r.narrative.ChatLine(ctx, stance, claim)
		if err != nil {
			log.Printf("[Session %s] chat line failed, using local: %v", r.ID, err)
			line, _ = r.fallback.ChatLine(context.Background(), stance, claim)
		}
		_ = r.submit(event{
			Type: eventNarrative, Kind: narrativeChat,
			RoundID: roundID, Text: line, Stance: stance, Claim: claim,
		})
	}()
}

func (r *Runner) spawnEndingReport(roundID string, playerWon bool) {
	opening := r.opening
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.narrativeTimeout)
		defer cancel()
		report, err := r.narrative.EndingReport(ctx, opening, playerWon)
		if err != nil {
			log.Printf("[Session %s] ending report failed, using local: %v", r.ID, err)
			report, _ = r.fallback.EndingReport(context.Background(), opening, playerWon)
		}
		_ = r.submit(event{Type: eventNarrative, Kind: narrativeEnding, RoundID: roundID, Text: report})
	}()
}

func (r *Runner) handleNarrative(e event) {
	switch e.Kind {
	case narrativeBriefing:
		r.opening = e.Briefing.Narrative
		r.send(codec.ServerEnvelope{
			Type: codec.ServerBriefing,
			Briefing: &codec.Briefing{
				PlayerItem: e.Briefing.PlayerItem,
				AIItem:     e.Briefing.AIItem,
				Narrative:  e.Briefing.Narrative,
			},
		})
	case narrativeChat:
		round := r.session.Round()
		if round == nil || round.ID() != e.RoundID {
			return // round gone; the words no longer matter
		}
		r.send(codec.ServerEnvelope{
			Type: codec.ServerChat,
			Chat: &codec.ChatMessage{
				Speaker:     bomb.OwnerDictionary[bomb.OwnerOpponent],
				Stance:      bomb.StanceDictionary[e.Stance],
				ClaimedCell: e.Claim,
				Text:        e.Text,
			},
		})
	case narrativeEnding:
		r.send(codec.ServerEnvelope{
			Type:     codec.ServerRoundEnd,
			RoundEnd: &codec.RoundEnd{RoundID: e.RoundID, Ending: e.Text},
		})
	}
}

// --- Wire helpers ---

func (r *Runner) nextSeq() uint64 {
	r.serverSeq++
	return r.serverSeq
}

func (r *Runner) send(env codec.ServerEnvelope) {
	env.Seq = r.nextSeq()
	env.TsMs = time.Now().UnixMilli()
	data, err := codec.Encode(env)
	if err != nil {
		log.Printf("[Session %s] encode failed: %v", r.ID, err)
		return
	}
	if r.broadcast != nil {
		r.broadcast(data)
	}
}

func (r *Runner) sendSessionInfo() {
	r.send(codec.ServerEnvelope{
		Type:    codec.ServerSession,
		Session: &codec.SessionInfo{SessionID: r.ID},
	})
}

func (r *Runner) sendRoundState(round *bomb.Round) {
	state := codec.RoundStateFromSnapshot(round.Snapshot())
	r.send(codec.ServerEnvelope{Type: codec.ServerRound, Round: &state})
}

// variantFor maps difficulty to the opponent's honesty preset: easy always
// tells the truth, hard always lies, medium flips a coin.
func variantFor(d bomb.Difficulty) npc.Variant {
	switch d {
	case bomb.DifficultyHard:
		return npc.VariantDeceptive
	case bomb.DifficultyMedium:
		return npc.VariantChaotic
	default:
		return npc.VariantHonest
	}
}
