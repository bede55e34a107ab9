package equipment

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

var ErrUnknownItem = errors.New("unknown item")

//go:embed default.yaml
var defaultCatalog []byte

// ItemDefinition is the authored form of an item. It is shared with the
// schema generator.
type ItemDefinition struct {
	ID   string             `yaml:"id" json:"id" jsonschema:"title=Item id,pattern=^[a-z0-9_]+$,description=Stable identifier referenced by loadouts"`
	Name string             `yaml:"name" json:"name" jsonschema:"description=Display name"`
	Tier string             `yaml:"tier" json:"tier" jsonschema:"enum=leather,enum=wood,enum=stone,enum=iron,enum=diamond,enum=netherite"`
	Slot string             `yaml:"slot" json:"slot" jsonschema:"enum=helmet,enum=chestplate,enum=leggings,enum=boots,enum=main_hand"`
	Tags map[string]float64 `yaml:"tags,omitempty" json:"tags,omitempty" jsonschema:"description=Numeric tags read by combat (damage / defense / projectile_damage)"`
}

// FileDefinitions represents the contents of an equipment catalog file.
type FileDefinitions struct {
	Items []ItemDefinition `yaml:"items" json:"items"`
}

// Catalog indexes items by id. It is immutable after loading.
type Catalog struct {
	items map[string]*Item
	order []string
}

// DefaultCatalog parses the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalog parses a YAML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file FileDefinitions
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	catalog := &Catalog{items: make(map[string]*Item, len(file.Items))}
	for i, def := range file.Items {
		item, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if _, dup := catalog.items[item.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, item.ID)
		}
		catalog.items[item.ID] = item
		catalog.order = append(catalog.order, item.ID)
	}
	return catalog, nil
}

func (d ItemDefinition) build() (*Item, error) {
	if d.ID == "" {
		return nil, errors.New("missing id")
	}
	tier, err := ParseTier(d.Tier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.ID, err)
	}
	slot, err := ParseSlot(d.Slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.ID, err)
	}
	tags := make(map[Tag]float64, len(d.Tags))
	for key, value := range d.Tags {
		tag, err := ParseTag(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.ID, err)
		}
		tags[tag] = value
	}
	name := d.Name
	if name == "" {
		name = d.ID
	}
	return &Item{ID: d.ID, Name: name, Tier: tier, Slot: slot, Tags: tags}, nil
}

// Item looks up an item by id.
func (c *Catalog) Item(id string) (*Item, error) {
	item, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return item, nil
}

// Items returns every item in authored order.
func (c *Catalog) Items() []*Item {
	out := make([]*Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// IDs returns the sorted item ids.
func (c *Catalog) IDs() []string {
	ids := slices.Clone(c.order)
	slices.Sort(ids)
	return ids
}

// Loadout equips each listed item in the slot it declares. Later items
// replace earlier ones in the same slot.
func (c *Catalog) Loadout(ids ...string) (Loadout, error) {
	var loadout Loadout
	for _, id := range ids {
		item, err := c.Item(id)
		if err != nil {
			return Loadout{}, err
		}
		loadout.Equip(item)
	}
	return loadout, nil
}
