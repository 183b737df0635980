package inventory

import "github.com/vyrodovalexey/gildedrose/internal/model"

// Quality bounds for every category except legendary items.
const (
	MinQuality = 0
	MaxQuality = 50
)

// rule describes how one category ages over a single day.
type rule struct {
	// timeless items keep both sell-in and quality forever.
	timeless bool
	// step is the quality delta applied once per day, and once more for
	// each entry of bonusBelow that the pre-decrement sell-in is under.
	step       int
	bonusBelow []int
	// expired is the extra delta once sell-in has gone negative.
	expired int
	// worthless items drop to zero quality once sell-in is negative.
	worthless bool
}

var rules = [...]rule{
	model.CategoryUnknown:       {step: -1, expired: -1},
	model.CategoryNormal:        {step: -1, expired: -1},
	model.CategoryAgedBrie:      {step: 1, expired: 1},
	model.CategoryLegendary:     {timeless: true},
	model.CategoryBackstagePass: {step: 1, bonusBelow: []int{11, 6}, worthless: true},
}

func ruleFor(c model.Category) rule {
	if c < 0 || int(c) >= len(rules) {
		return rules[model.CategoryNormal]
	}
	return rules[c]
}

// Next returns the sell-in and quality of an item of category c one day
// after the given state. It never fails.
func Next(c model.Category, sellIn, quality int) (int, int) {
	r := ruleFor(c)
	if r.timeless {
		return sellIn, quality
	}

	quality = addQuality(quality, r.step)
	for _, threshold := range r.bonusBelow {
		if sellIn < threshold {
			quality = addQuality(quality, r.step)
		}
	}

	sellIn--

	if sellIn < 0 {
		if r.worthless {
			quality = 0
		} else {
			quality = addQuality(quality, r.expired)
		}
	}

	return sellIn, quality
}

// addQuality applies delta without crossing MinQuality or MaxQuality.
// A value already outside the bounds is left alone rather than pulled back.
func addQuality(quality, delta int) int {
	switch {
	case delta > 0 && quality < MaxQuality:
		return min(quality+delta, MaxQuality)
	case delta < 0 && quality > MinQuality:
		return max(quality+delta, MinQuality)
	}
	return quality
}
