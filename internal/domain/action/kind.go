package action

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindMove      Kind = "move"
	KindPickup    Kind = "pickup"
	KindOpen      Kind = "open"
	KindClose     Kind = "close"
	KindBreak     Kind = "break"
	KindCook      Kind = "cook"
	KindSlice     Kind = "slice"
	KindToggleOn  Kind = "toggleon"
	KindToggleOff Kind = "toggleoff"
	KindDirty     Kind = "dirty"
	KindClean     Kind = "clean"
	KindFill      Kind = "fill"
	KindEmpty     Kind = "empty"
	KindUseUp     Kind = "useup"
	KindDrop      Kind = "drop"
	KindPut       Kind = "put"
)

// Kinds returns every action kind in menu order. The last two need a held
// object.
func Kinds() []Kind {
	return []Kind{
		KindMove,
		KindPickup,
		KindOpen,
		KindClose,
		KindBreak,
		KindCook,
		KindSlice,
		KindToggleOn,
		KindToggleOff,
		KindDirty,
		KindClean,
		KindFill,
		KindEmpty,
		KindUseUp,
		KindDrop,
		KindPut,
	}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[k]; !ok {
		return "", fmt.Errorf("%w: unknown action kind %q", ErrInvalidRequest, s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	_, ok := catalog[k]
	return ok
}

type Liquid string

const (
	LiquidCoffee Liquid = "coffee"
	LiquidWine   Liquid = "wine"
	LiquidWater  Liquid = "water"
)

func Liquids() []Liquid {
	return []Liquid{LiquidCoffee, LiquidWine, LiquidWater}
}

func ParseLiquid(s string) (Liquid, error) {
	l := Liquid(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Liquids() {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown liquid %q", ErrInvalidRequest, s)
}
