package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holdem-room/models"
)

const (
	MaxSeats            = 10
	DefaultSmallBlind   = 50
	DefaultBigBlind     = 100
	DefaultInitialChips = 1000
	MinInitialChips     = 1000
	MinTotalHands       = 1
	MaxTotalHands       = 50
	MinRebuy            = 1000
	RebuyStep           = 50
	DefaultAIDelay      = 1200 * time.Millisecond

	boundaryTimeout = 2 * time.Second
	recordTimeout   = 5 * time.Second
)

// Options configures every room a RoomManager creates.
type Options struct {
	SmallBlind    int
	BigBlind      int
	DefaultChips  int
	AIDelay       time.Duration
	RebuyApproval bool // host must approve non-host rebuys
	Seed          int64
	Logger        *zerolog.Logger // nil logs nothing
	Recorder      MatchRecorder
	AfterFunc     AfterFunc
}

func (o Options) withDefaults() Options {
	if o.SmallBlind <= 0 {
		o.SmallBlind = DefaultSmallBlind
	}
	if o.BigBlind <= 0 {
		o.BigBlind = DefaultBigBlind
	}
	if o.BigBlind < o.SmallBlind {
		o.BigBlind = o.SmallBlind * 2
	}
	if o.DefaultChips < MinInitialChips {
		o.DefaultChips = DefaultInitialChips
	}
	if o.AIDelay < 0 {
		o.AIDelay = 0
	}
	if o.AfterFunc == nil {
		o.AfterFunc = realAfterFunc
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

type member struct {
	connID string
	name   string
}

// Room is one table: seats, the running hand, and match lifecycle. All
// exported methods take the room lock; unexported ones assume it is held.
type Room struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	opts      Options
	emitter   Emitter
	log       zerolog.Logger
	rng       *rand.Rand
	newDeck   func() *models.Deck
	onRelease func(roomID string, room *Room)

	hostID  string
	members []member

	seats   [MaxSeats]models.Seat
	players [MaxSeats]*models.PlayerState

	started  bool
	closing  bool
	released bool

	totalHands   int
	initialChips int
	smallBlind   int
	bigBlind     int

	handNum       int
	dealerSeatIdx int
	sbSeatIdx     int
	bbSeatIdx     int

	pot            int
	round          models.Round
	communityCards []models.Card
	deck           *models.Deck
	currentMaxBet  int
	minRaise       int
	activeSeatIdx  int
	pending        SeatSet
	turnNonce      uint64
	lastActorSeat  int
	history        []models.HandRecord

	aiTimer  Timer
	timerGen uint64
	aiCount  int

	rebuyRequests map[int]int
	expectedAcks  map[string]bool
	voice         *VoiceRelay
}

// NewRoom builds an empty room. onRelease is invoked once, under the room
// lock, when the room tears itself down.
func NewRoom(id string, emitter Emitter, opts Options, onRelease func(string, *Room)) *Room {
	opts = opts.withDefaults()
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &Room{
		id:            id,
		createdAt:     time.Now(),
		opts:          opts,
		emitter:       emitter,
		log:           opts.Logger.With().Str("room", id).Logger(),
		rng:           rand.New(rand.NewSource(seed)),
		onRelease:     onRelease,
		initialChips:  opts.DefaultChips,
		smallBlind:    opts.SmallBlind,
		bigBlind:      opts.BigBlind,
		dealerSeatIdx: 0,
		sbSeatIdx:     -1,
		bbSeatIdx:     -1,
		activeSeatIdx: -1,
		lastActorSeat: -1,
		round:         models.RoundWaiting,
		rebuyRequests: make(map[int]int),
		voice:         NewVoiceRelay(),
	}
	for i := range r.seats {
		r.seats[i].Index = i
	}
	r.newDeck = func() *models.Deck { return models.NewDeck(r.rng) }
	return r
}

func (r *Room) ID() string { return r.id }

func (r *Room) Summary() models.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary()
}

func (r *Room) State() models.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameState()
}

// History returns a copy of the hand history.
func (r *Room) History() []models.HandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.HandRecord(nil), r.history...)
}

// Released reports whether the room has torn itself down.
func (r *Room) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

func (r *Room) seatViews() []models.SeatView {
	views := make([]models.SeatView, MaxSeats)
	for i, seat := range r.seats {
		v := models.SeatView{SeatIdx: i, Type: seat.Occupant, Name: seat.Name}
		if p := r.players[i]; p != nil && seat.Occupied() {
			v.Chips = p.Chips
			v.Bet = p.Bet
			v.Folded = p.Folded
			v.Bankrupt = p.Bankrupt
			v.PendingRebuy = p.PendingRebuy
			v.HasCards = len(p.Hand) > 0
		}
		views[i] = v
	}
	return views
}

func (r *Room) summary() models.RoomSummary {
	return models.RoomSummary{
		RoomID:       r.id,
		HostID:       r.hostID,
		CreatedAt:    r.createdAt,
		Started:      r.started,
		Closing:      r.closing,
		TotalHands:   r.totalHands,
		HandNum:      r.handNum,
		InitialChips: r.initialChips,
		SmallBlind:   r.smallBlind,
		BigBlind:     r.bigBlind,
		Seats:        r.seatViews(),
		Members:      len(r.members),
	}
}

func (r *Room) gameState() models.GameState {
	community := make([]models.Card, len(r.communityCards))
	copy(community, r.communityCards)
	return models.GameState{
		RoomID:         r.id,
		Round:          r.round.String(),
		HandNum:        r.handNum,
		TotalHands:     r.totalHands,
		Pot:            r.pot,
		CommunityCards: community,
		CurrentMaxBet:  r.currentMaxBet,
		MinRaise:       r.minRaise,
		DealerSeatIdx:  r.dealerSeatIdx,
		SBSeatIdx:      r.sbSeatIdx,
		BBSeatIdx:      r.bbSeatIdx,
		ActiveSeatIdx:  r.activeSeatIdx,
		TurnNonce:      r.turnNonce,
		Seats:          r.seatViews(),
	}
}

func (r *Room) emitRoom(event string, payload interface{}) {
	if r.emitter == nil || r.released {
		return
	}
	r.emitter.EmitToRoom(r.id, event, payload)
}

func (r *Room) emitTo(connID, event string, payload interface{}) {
	if r.emitter == nil || connID == "" {
		return
	}
	r.emitter.EmitToParticipant(connID, event, payload)
}

func (r *Room) broadcastSummary() {
	r.emitRoom(EventRoomUpdate, r.summary())
}

func (r *Room) broadcastState() {
	r.emitRoom(EventGameState, r.gameState())
}

func (r *Room) activity(text string) {
	r.emitRoom(EventActivity, models.ActivityEvent{Text: text})
}

// connectedParticipants enumerates sockets in the room. Failures are
// logged and treated as nobody connected.
func (r *Room) connectedParticipants() []string {
	if r.emitter == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), boundaryTimeout)
	defer cancel()
	ids, err := r.emitter.ConnectedParticipants(ctx, r.id)
	if err != nil {
		r.log.Warn().Err(err).Msg("could not enumerate connected participants")
		return nil
	}
	return ids
}

// record runs an archive call off the room lock.
func (r *Room) record(fn func(ctx context.Context, rec MatchRecorder) error) {
	rec := r.opts.Recorder
	if rec == nil {
		return
	}
	logger := r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := fn(ctx, rec); err != nil {
			logger.Warn().Err(err).Msg("archive write failed")
		}
	}()
}

// Stop cancels any armed AI turn. Used at process shutdown.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelAITimer()
}
