package game

import "math/rand"

// Action is a named input.
type Action int

const (
	ActionLeft Action = iota
	ActionRight
	ActionUp
	ActionDown
	ActionBomb
)

// Input is sampled by the owning peer every tick.
type Input interface {
	Pressed(a Action) bool
}

// Poller is implemented by inputs that change state once per tick.
type Poller interface {
	Poll()
}

// Keys is an input whose pressed set is controlled directly.
type Keys map[Action]bool

func (k Keys) Pressed(a Action) bool { return k[a] }

func (k Keys) Press(actions ...Action) {
	for _, a := range actions {
		k[a] = true
	}
}

func (k Keys) Release(actions ...Action) {
	for _, a := range actions {
		delete(k, a)
	}
}

// Bot wanders in random directions and drops bombs now and then.
type Bot struct {
	rng       *rand.Rand
	keys      Keys
	countdown int
}

const (
	botMinHold    = TickRate / 4
	botMaxHold    = TickRate
	botBombChance = 0.3
)

// NewBot creates a bot input with its own random source.
func NewBot(seed int64) *Bot {
	return &Bot{
		rng:  rand.New(rand.NewSource(seed)),
		keys: Keys{},
	}
}

// Poll advances the bot by one tick.
func (b *Bot) Poll() {
	// A press only lasts one tick so the next bomb needs a new rising edge.
	b.keys.Release(ActionBomb)

	if b.countdown > 0 {
		b.countdown--
		return
	}

	b.keys.Release(ActionLeft, ActionRight, ActionUp, ActionDown)
	switch b.rng.Intn(5) {
	case 0:
		b.keys.Press(ActionLeft)
	case 1:
		b.keys.Press(ActionRight)
	case 2:
		b.keys.Press(ActionUp)
	case 3:
		b.keys.Press(ActionDown)
	}
	if b.rng.Float64() < botBombChance {
		b.keys.Press(ActionBomb)
	}
	b.countdown = botMinHold + b.rng.Intn(botMaxHold-botMinHold)
}

func (b *Bot) Pressed(a Action) bool { return b.keys.Pressed(a) }
