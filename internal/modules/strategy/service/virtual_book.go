package service

import "time"

type VirtualSide int

const (
	VirtualLong VirtualSide = iota
	VirtualShort
)

func (s VirtualSide) String() string {
	if s == VirtualShort {
		return "short"
	}
	return "long"
}

type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeLoss
)

func (o Outcome) String() string {
	if o == OutcomeLoss {
		return "loss"
	}
	return "win"
}

// VirtualOrder - учебная сделка, на реальную позицию не влияет.
// Уровни фиксируются при создании и больше не меняются.
type VirtualOrder struct {
	Key      PatternKey
	Side     VirtualSide
	Entry    float64
	Stop     float64
	Target   float64
	OpenedAt time.Time

	hasStop   bool
	hasTarget bool
}

func (o VirtualOrder) HasStop() bool   { return o.hasStop }
func (o VirtualOrder) HasTarget() bool { return o.hasTarget }

// match: сначала тейк, потом стоп - если бар задел оба уровня, это победа.
func (o VirtualOrder) match(high, low float64) (Outcome, bool) {
	switch o.Side {
	case VirtualLong:
		if o.hasTarget && high >= o.Target {
			return OutcomeWin, true
		}
		if o.hasStop && low <= o.Stop {
			return OutcomeLoss, true
		}
	case VirtualShort:
		if o.hasTarget && low <= o.Target {
			return OutcomeWin, true
		}
		if o.hasStop && high >= o.Stop {
			return OutcomeLoss, true
		}
	}
	return 0, false
}

type Settlement struct {
	Order   VirtualOrder
	Outcome Outcome
}

// VirtualBook - открытые виртуальные ордера одного инструмента.
type VirtualBook struct {
	orders []VirtualOrder
}

func NewVirtualBook() *VirtualBook {
	return &VirtualBook{}
}

// Open ставит пару long/short от entry. Нулевая дистанция выключает соответствующую ногу.
func (b *VirtualBook) Open(key PatternKey, entry, stopDist, targetDist float64, at time.Time) (long, short VirtualOrder) {
	long = VirtualOrder{
		Key:       key,
		Side:      VirtualLong,
		Entry:     entry,
		OpenedAt:  at,
		hasStop:   stopDist > 0,
		hasTarget: targetDist > 0,
	}
	short = long
	short.Side = VirtualShort

	if long.hasStop {
		long.Stop = entry - stopDist
		short.Stop = entry + stopDist
	}
	if long.hasTarget {
		long.Target = entry + targetDist
		short.Target = entry - targetDist
	}

	b.orders = append(b.orders, long, short)
	return long, short
}

// Settle закрывает всё, что задел бар, и возвращает исходы в порядке открытия.
// Удаление - компактизацией на месте, без пропусков соседних элементов.
func (b *VirtualBook) Settle(high, low float64) []Settlement {
	var out []Settlement
	kept := b.orders[:0]
	for _, o := range b.orders {
		if outcome, ok := o.match(high, low); ok {
			out = append(out, Settlement{Order: o, Outcome: outcome})
			continue
		}
		kept = append(kept, o)
	}
	// не держим ссылки на закрытые ордера в хвосте
	for i := len(kept); i < len(b.orders); i++ {
		b.orders[i] = VirtualOrder{}
	}
	b.orders = kept
	return out
}

func (b *VirtualBook) Len() int { return len(b.orders) }

// Orders - копия открытых ордеров.
func (b *VirtualBook) Orders() []VirtualOrder {
	out := make([]VirtualOrder, len(b.orders))
	copy(out, b.orders)
	return out
}
