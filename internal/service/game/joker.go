package game

import (
	"fmt"
	"strings"

	appErr "ballmatro-service/pkg/errors"
)

// Joker is a pool card that changes how every hand drawn from the pool is
// scored. Implementations must be pure: callbacks return new values and never
// keep state between hands.
type Joker interface {
	Name() string
	Description() string
	// PlayedHand may transform the classified hand before cards are scored.
	PlayedHand(h Hand) Hand
	// CardScore may replace the default chips/multiplier delta of a played card.
	CardScore(c Card, chips, multiplier, addedChips, addedMultiplier int) (int, int)
}

// BaseJoker supplies the identity and pass-through callbacks. Concrete jokers
// embed it and override only the callbacks they need.
type BaseJoker struct {
	name        string
	description string
}

func (b BaseJoker) Name() string        { return b.name }
func (b BaseJoker) Description() string { return b.description }
func (b BaseJoker) PlayedHand(h Hand) Hand {
	return h
}
func (b BaseJoker) CardScore(_ Card, _, _, addedChips, addedMultiplier int) (int, int) {
	return addedChips, addedMultiplier
}

// PlanetJoker multiplies chips and multiplier of one hand kind.
type PlanetJoker struct {
	BaseJoker
	Target HandKind
	Factor int
}

func (p PlanetJoker) PlayedHand(h Hand) Hand {
	if h.Kind != p.Target {
		return h
	}
	h.Chips *= p.Factor
	h.Multiplier *= p.Factor
	return h
}

// DerankedJoker makes cards of one rank score 1 chip and 0 multiplier,
// ignoring their modifiers.
type DerankedJoker struct {
	BaseJoker
	TargetRank string
}

func (d DerankedJoker) CardScore(c Card, _, _, addedChips, addedMultiplier int) (int, int) {
	if r, ok := c.Rank(); ok && r == d.TargetRank {
		return 1, 0
	}
	return addedChips, addedMultiplier
}

type JokerConstructor func() Joker

// JokerCard returns the canonical card text of a joker.
func JokerCard(j Joker) Card {
	return Card(JokerGlyph + " " + j.Name() + ": " + j.Description())
}

// JokerRegistry resolves joker cards to joker instances. It is immutable once
// built and safe for concurrent use.
type JokerRegistry struct {
	order       []string
	byName      map[string]JokerConstructor
	byDesc      map[string]string
	byCanonical map[string]string
}

func NewJokerRegistry(constructors ...JokerConstructor) (*JokerRegistry, error) {
	r := &JokerRegistry{
		byName:      make(map[string]JokerConstructor, len(constructors)),
		byDesc:      make(map[string]string, len(constructors)),
		byCanonical: make(map[string]string, len(constructors)),
	}
	for _, ctor := range constructors {
		j := ctor()
		name := j.Name()
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate joker name %q", name)
		}
		r.order = append(r.order, name)
		r.byName[name] = ctor
		r.byDesc[j.Description()] = name
		r.byCanonical[name+": "+j.Description()] = name
	}
	return r, nil
}

var defaultRegistry = func() *JokerRegistry {
	r, err := NewJokerRegistry(catalog()...)
	if err != nil {
		panic(err)
	}
	return r
}()

// DefaultJokerRegistry holds the full joker catalog.
func DefaultJokerRegistry() *JokerRegistry {
	return defaultRegistry
}

// Catalog returns one instance of every registered joker in registration order.
func (r *JokerRegistry) Catalog() []Joker {
	out := make([]Joker, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]()
	}
	return out
}

func (r *JokerRegistry) Len() int {
	return len(r.order)
}

// ByName builds the joker registered under name.
func (r *JokerRegistry) ByName(name string) (Joker, error) {
	ctor, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", appErr.ErrUnknownJoker, name)
	}
	return ctor(), nil
}

// Resolve builds the joker a joker card refers to. The payload may be the
// canonical "<name>: <description>" text, the description alone or the name.
func (r *JokerRegistry) Resolve(c Card) (Joker, error) {
	if !c.IsJoker() {
		return nil, fmt.Errorf("%w: %q is not a joker card", appErr.ErrUnknownJoker, string(c))
	}
	payload := strings.TrimSpace(c.JokerPayload())
	if name, ok := r.byCanonical[payload]; ok {
		return r.byName[name](), nil
	}
	if name, ok := r.byDesc[payload]; ok {
		return r.byName[name](), nil
	}
	if ctor, ok := r.byName[payload]; ok {
		return ctor(), nil
	}
	if i := strings.Index(payload, ":"); i > 0 {
		if ctor, ok := r.byName[strings.TrimSpace(payload[:i])]; ok {
			return ctor(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", appErr.ErrUnknownJoker, payload)
}

// ResolvePool builds the jokers of a pool in pool order.
func (r *JokerRegistry) ResolvePool(available []Card) ([]Joker, error) {
	var jokers []Joker
	for _, c := range available {
		if !c.IsJoker() {
			continue
		}
		j, err := r.Resolve(c)
		if err != nil {
			return nil, err
		}
		jokers = append(jokers, j)
	}
	return jokers, nil
}

type planet struct {
	name   string
	target HandKind
	hand   string
}

var planets = []planet{
	{"Pluto", HighCard, "High Card"},
	{"Mercury", Pair, "Pair"},
	{"Uranus", TwoPair, "Two Pair"},
	{"Venus", ThreeOfAKind, "Three of a Kind"},
	{"Saturn", Straight, "Straight"},
	{"Jupiter", Flush, "Flush"},
	{"Mars", FourOfAKind, "Four of a Kind"},
	{"Neptune", StraightFlush, "Straight Flush"},
	{"Earth", FullHouse, "Full House"},
}

var planetTiers = []struct {
	suffix string
	factor int
}{
	{"", 2},
	{"+", 5},
	{"++", 10},
}

var rankNames = map[string]string{
	"2": "Two", "3": "Three", "4": "Four", "5": "Five", "6": "Six", "7": "Seven",
	"8": "Eight", "9": "Nine", "10": "Ten", "J": "Jack", "Q": "Queen", "K": "King", "A": "Ace",
}

func newPlanet(p planet, suffix string, factor int) JokerConstructor {
	name := p.name + suffix
	desc := fmt.Sprintf("multiplies by %d the chips and multiplier of the %s hand", factor, p.hand)
	return func() Joker {
		return PlanetJoker{BaseJoker: BaseJoker{name: name, description: desc}, Target: p.target, Factor: factor}
	}
}

func newDeranked(rank string) JokerConstructor {
	name := "Deranked " + rankNames[rank]
	desc := fmt.Sprintf("Card with rank %s give 1 chip and 0 multiplier, ignoring modifiers", rank)
	return func() Joker {
		return DerankedJoker{BaseJoker: BaseJoker{name: name, description: desc}, TargetRank: rank}
	}
}

// catalog lists the known jokers: Blank, planets by tier, then deranked jokers
// by ascending rank.
func catalog() []JokerConstructor {
	ctors := []JokerConstructor{
		func() Joker { return BaseJoker{name: "Blank", description: "Does nothing at all."} },
	}
	for _, tier := range planetTiers {
		for _, p := range planets {
			ctors = append(ctors, newPlanet(p, tier.suffix, tier.factor))
		}
	}
	for _, rank := range Ranks {
		ctors = append(ctors, newDeranked(rank))
	}
	return ctors
}
