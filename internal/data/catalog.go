// Package data implements the content catalog: the read-only, boot-time
// loaded tables of monster, item, skill, loot, class, and terrain data.
// Unlike a design that compiles tables in as Go literals, this catalog
// reads JSON files from a directory at startup — the content is treated as
// external static data, not code.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aethermoor/worldserver/internal/model"
)

// Catalog holds every immutable table the world runtime reads from. All
// fields are populated once at Load and never mutated afterward, so no
// locking is required for reads.
type Catalog struct {
	Items      map[int64]*model.ItemTemplate
	Monsters   map[int64]*model.MonsterTemplate
	Skills     map[int64]*model.SkillTemplate
	LootTables map[int64]*model.LootTable
	Classes    map[string]*model.ClassTable
	XPScaling  []model.XPScalingRow
	Terrain    *model.Terrain
}

// Load reads every catalog file from dir. A missing or malformed file is a
// fatal boot error: the catalog cannot be half-loaded, since
// every engine assumes every referenced template ID resolves.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{
		Items:      make(map[int64]*model.ItemTemplate),
		Monsters:   make(map[int64]*model.MonsterTemplate),
		Skills:     make(map[int64]*model.SkillTemplate),
		LootTables: make(map[int64]*model.LootTable),
		Classes:    make(map[string]*model.ClassTable),
	}

	var items []model.ItemTemplate
	if err := readJSON(filepath.Join(dir, "items.json"), &items); err != nil {
		return nil, fmt.Errorf("loading item templates: %w", err)
	}
	for i := range items {
		c.Items[items[i].ID] = &items[i]
	}

	var monsters []model.MonsterTemplate
	if err := readJSON(filepath.Join(dir, "monsters.json"), &monsters); err != nil {
		return nil, fmt.Errorf("loading monster templates: %w", err)
	}
	for i := range monsters {
		c.Monsters[monsters[i].ID] = &monsters[i]
	}

	var skills []model.SkillTemplate
	if err := readJSON(filepath.Join(dir, "skills.json"), &skills); err != nil {
		return nil, fmt.Errorf("loading skill templates: %w", err)
	}
	for i := range skills {
		c.Skills[skills[i].ID] = &skills[i]
	}

	var loot []model.LootTable
	if err := readJSON(filepath.Join(dir, "loot_tables.json"), &loot); err != nil {
		return nil, fmt.Errorf("loading loot tables: %w", err)
	}
	for i := range loot {
		c.LootTables[loot[i].ID] = &loot[i]
	}

	var classes []model.ClassTable
	if err := readJSON(filepath.Join(dir, "classes.json"), &classes); err != nil {
		return nil, fmt.Errorf("loading class tables: %w", err)
	}
	for i := range classes {
		c.Classes[classes[i].Class] = &classes[i]
	}

	if err := readJSON(filepath.Join(dir, "xp_scaling.json"), &c.XPScaling); err != nil {
		return nil, fmt.Errorf("loading xp scaling table: %w", err)
	}

	var terrain model.Terrain
	if err := readJSON(filepath.Join(dir, "terrain.json"), &terrain); err != nil {
		return nil, fmt.Errorf("loading terrain: %w", err)
	}
	c.Terrain = &terrain

	return c, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Item returns the item template for id, or nil.
func (c *Catalog) Item(id int64) *model.ItemTemplate { return c.Items[id] }

// Monster returns the monster template for id, or nil.
func (c *Catalog) Monster(id int64) *model.MonsterTemplate { return c.Monsters[id] }

// Skill returns the skill template for id, or nil.
func (c *Catalog) Skill(id int64) *model.SkillTemplate { return c.Skills[id] }

// Loot returns the loot table for id, or nil.
func (c *Catalog) Loot(id int64) *model.LootTable { return c.LootTables[id] }

// Class returns the class table for name, or nil.
func (c *Catalog) Class(name string) *model.ClassTable { return c.Classes[name] }

// XPReward scales baseReward by the catalog's level-difference table. playerLevel-monsterLevel is matched against the
// table's rows in descending MinLevelDiff order; the first row whose
// MinLevelDiff <= diff wins. An empty table yields the base reward
// unscaled.
func (c *Catalog) XPReward(playerLevel, monsterLevel int32, baseReward int64) int64 {
	if len(c.XPScaling) == 0 {
		return baseReward
	}
	diff := playerLevel - monsterLevel
	best := c.XPScaling[0]
	bestSet := false
	for _, row := range c.XPScaling {
		if diff >= row.MinLevelDiff {
			if !bestSet || row.MinLevelDiff > best.MinLevelDiff {
				best = row
				bestSet = true
			}
		}
	}
	if !bestSet {
		return baseReward
	}
	return int64(float64(baseReward) * best.Multiplier)
}
