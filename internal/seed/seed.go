// Package seed loads the opening inventory handed to the store.
package seed

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// ErrNoItems is returned when a seed document lists no items.
var ErrNoItems = errors.New("seed contains no items")

// Entry is one item as written in a seed file.
type Entry struct {
	Name    string `yaml:"name"`
	SellIn  int    `yaml:"sell_in"`
	Quality int    `yaml:"quality"`
}

// File is the layout of a YAML seed file:
//
//	items:
//	  - name: Aged Brie
//	    sell_in: 2
//	    quality: 0
type File struct {
	Items []Entry `yaml:"items"`
}

// Load reads and parses the seed file at path.
func Load(path string) ([]*model.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	return items, nil
}

// Parse decodes a YAML seed document. Names are checked; sell-in and
// quality are taken as written.
func Parse(data []byte) ([]*model.Item, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	if len(f.Items) == 0 {
		return nil, ErrNoItems
	}

	items := make([]*model.Item, 0, len(f.Items))
	for i, e := range f.Items {
		item := model.NewItem(e.Name, e.SellIn, e.Quality)
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// Default returns the stock the shop opens with when no seed file is given.
func Default() []*model.Item {
	return []*model.Item{
		model.NewItem("+5 Dexterity Vest", 10, 20),
		model.NewItem(model.NameAgedBrie, 2, 0),
		model.NewItem("Elixir of the Mongoose", 5, 7),
		model.NewItem(model.NameSulfuras, 0, 80),
		model.NewItem(model.NameSulfuras, -1, 80),
		model.NewItem(model.NameBackstagePass, 15, 20),
		model.NewItem(model.NameBackstagePass, 10, 49),
		model.NewItem(model.NameBackstagePass, 5, 49),
		// Not a reserved name, so it ages like any normal item.
		model.NewItem("Conjured Mana Cake", 3, 6),
	}
}
