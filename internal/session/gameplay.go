package session

import (
	"context"
	"time"

	"github.com/aethermoor/worldserver/internal/model"
	"github.com/aethermoor/worldserver/internal/protocol"
	"github.com/aethermoor/worldserver/internal/skill"
)

func (g *Gateway) handleMove(sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.MoveRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed move request"})
		return
	}

	nowMillis := nowMillisFunc()
	accepted, ok := g.runtime.Movement().Validate(sess.ID, req.TargetPosition, nowMillis)
	if !ok {
		g.log.Warn("SPEED_HACK", "session", sess.ID, "player", p.Character.ID, "proposed", req.TargetPosition, "reverted", accepted)
		g.runtime.WithLock(func() {
			p.TargetPosition = nil
			p.IsMoving = false
		})
		return
	}

	g.runtime.WithLock(func() {
		p.TargetPosition = &accepted
		p.IsMoving = true
	})
	sess.Send(&protocol.MoveAccepted{Type: "moveAccepted", Position: accepted})
}

func (g *Gateway) handleAttackMonster(sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.AttackMonsterRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed attackMonster request"})
		return
	}

	var ok bool
	g.runtime.WithLock(func() {
		monster := g.runtime.Monsters().Get(req.MonsterID)
		if monster == nil || !monster.IsAlive || p.Character.IsDead() {
			return
		}
		p.TargetMonsterID = req.MonsterID
		ok = true
	})
	if !ok {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "invalid attack target"})
		return
	}
	sess.Send(&protocol.AttackStarted{Type: "attackStarted", PlayerID: sess.ID, MonsterID: req.MonsterID})
}

func (g *Gateway) handleUseSkill(sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.UseSkillRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed useSkill request"})
		return
	}

	nowMillis := nowMillisFunc()
	var result skill.UseResult
	var fail skill.FailureCode
	g.runtime.WithLock(func() {
		var targetMonster *model.MonsterInstance
		if req.TargetID != 0 {
			targetMonster = g.runtime.Monsters().Get(req.TargetID)
		}
		result, fail = g.runtime.Skill().UseSkill(p.Character, skill.Request{
			SkillID:        req.SkillID,
			TargetMonster:  targetMonster,
			TargetPosition: req.TargetPosition,
		}, g.runtime.Monsters().Map(), nowMillis)
		if fail == "" {
			g.runtime.Inventory().RecalculateStats(p.Character, p.Inventory)
			if len(result.Effects) > 0 {
				p.ActiveEffects = append(p.ActiveEffects, result.Effects...)
			}
			for _, t := range result.Targets {
				if !t.Died {
					continue
				}
				if monster := g.runtime.Monsters().Get(t.MonsterID); monster != nil {
					g.runtime.ResolveLoot(p, monster)
				}
			}
		}
	})

	if fail != "" {
		sess.Send(&protocol.SkillUseFailed{Type: "skillUseFailed", SkillID: req.SkillID, Reason: string(fail)})
		return
	}
	sess.Send(&protocol.SkillUsed{Type: "skillUsed", Result: result})
}

// handleLearnSkill learns a new skill in memory, then persists it
// transactionally with the insert. A persistence failure rolls the
// in-memory learn back so the two never drift.
func (g *Gateway) handleLearnSkill(ctx context.Context, sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.LearnSkillRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed learnSkill request"})
		return
	}

	var learned *model.LearnedSkill
	var fail skill.LearnFailureCode
	g.runtime.WithLock(func() {
		learned, fail = g.runtime.Skill().LearnSkill(p.Character, req.SkillID, req.SlotNumber)
	})
	if fail != "" {
		sess.Send(&protocol.SkillLearned{Type: "skillLearned", Success: false, Message: string(fail)})
		return
	}

	if err := g.runtime.Skills().SaveSkills(ctx, p.Character.ID, p.Character.LearnedSkills); err != nil {
		g.log.Error("persisting learned skill", "character", p.Character.ID, "skill", req.SkillID, "error", err)
		g.runtime.WithLock(func() {
			delete(p.Character.LearnedSkills, req.SkillID)
		})
		sess.Send(&protocol.SkillLearned{Type: "skillLearned", Success: false, Message: "internal error"})
		return
	}
	sess.Send(&protocol.SkillLearned{Type: "skillLearned", Success: true, SkillID: learned.SkillID, SlotNumber: learned.SlotNumber})
}

// handleLevelUpSkill raises a learned skill's level in memory, then
// persists it. On persistence failure it rolls the level and the spent
// status point back.
func (g *Gateway) handleLevelUpSkill(ctx context.Context, sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.LevelUpSkillRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed levelUpSkill request"})
		return
	}

	var learned *model.LearnedSkill
	var fail skill.LearnFailureCode
	g.runtime.WithLock(func() {
		learned, fail = g.runtime.Skill().LevelUpSkill(p.Character, req.SkillID)
	})
	if fail != "" {
		sess.Send(&protocol.SkillLeveledUp{Type: "skillLeveledUp", Success: false, Message: string(fail)})
		return
	}

	if err := g.runtime.Skills().SaveSkills(ctx, p.Character.ID, p.Character.LearnedSkills); err != nil {
		g.log.Error("persisting skill level-up", "character", p.Character.ID, "skill", req.SkillID, "error", err)
		g.runtime.WithLock(func() {
			nextRow := g.runtime.Catalog().Skill(req.SkillID)
			if nextRow != nil {
				if row := nextRow.LevelRow(learned.CurrentLevel); row != nil {
					p.Character.StatusPoints += row.StatusPointCost
				}
			}
			learned.CurrentLevel--
		})
		sess.Send(&protocol.SkillLeveledUp{Type: "skillLeveledUp", Success: false, Message: "internal error"})
		return
	}
	sess.Send(&protocol.SkillLeveledUp{
		Type:         "skillLeveledUp",
		Success:      true,
		SkillID:      learned.SkillID,
		NewLevel:     learned.CurrentLevel,
		StatusPoints: p.Character.StatusPoints,
	})
}

func (g *Gateway) handleUseItem(sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.UseItemRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed useItem request"})
		return
	}

	nowMillis := nowMillisFunc()
	var result struct {
		RemainingQuantity int32
	}
	var fail string
	g.runtime.WithLock(func() {
		res, code := g.runtime.Inventory().UseItem(sess.ID, p.Character, p.Inventory, req.InstanceID, nowMillis)
		result.RemainingQuantity = res.RemainingQuantity
		fail = string(code)
	})
	if fail != "" {
		sess.Send(&protocol.ItemUseFailed{Type: "itemUseFailed", Reason: fail})
		return
	}
	sess.Send(&protocol.ItemUsed{
		Type:              "itemUsed",
		PlayerID:          sess.ID,
		InstanceID:        req.InstanceID,
		Health:            p.Character.Health,
		MaxHealth:         p.Character.MaxHealth,
		Mana:              p.Character.Mana,
		MaxMana:           p.Character.MaxMana,
		RemainingQuantity: result.RemainingQuantity,
	})
}

func (g *Gateway) handleEquipItem(sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.EquipItemRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed equipItem request"})
		return
	}

	var fail string
	g.runtime.WithLock(func() {
		code := g.runtime.Inventory().Equip(p.Character, p.Inventory, req.InstanceID)
		fail = string(code)
	})
	if fail != "" {
		sess.Send(&protocol.ItemUseFailed{Type: "itemUseFailed", Reason: fail})
		return
	}
	sess.Send(&protocol.ItemEquipped{
		Type:       "itemEquipped",
		PlayerID:   sess.ID,
		InstanceID: req.InstanceID,
		NewStats:   p.Character.Derived,
		Equipment:  equipmentSnapshot(p.Inventory),
	})
}

func (g *Gateway) handleUnequipItem(sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.UnequipItemRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed unequipItem request"})
		return
	}

	var fail string
	g.runtime.WithLock(func() {
		code := g.runtime.Inventory().Unequip(p.Character, p.Inventory, req.Slot)
		fail = string(code)
	})
	if fail != "" {
		sess.Send(&protocol.ItemUseFailed{Type: "itemUseFailed", Reason: fail})
		return
	}
	sess.Send(&protocol.ItemUnequipped{
		Type:      "itemUnequipped",
		PlayerID:  sess.ID,
		NewStats:  p.Character.Derived,
		Equipment: equipmentSnapshot(p.Inventory),
		Slot:      req.Slot,
	})
}

func (g *Gateway) handleDropItem(sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.DropItemRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed dropItem request"})
		return
	}

	var fail string
	g.runtime.WithLock(func() {
		code := g.runtime.Inventory().Drop(p.Inventory, req.InstanceID, req.Quantity)
		fail = string(code)
	})
	if fail != "" {
		sess.Send(&protocol.ItemUseFailed{Type: "itemUseFailed", Reason: fail})
		return
	}
	sess.Send(&protocol.ItemDropped{Type: "itemDropped", PlayerID: sess.ID, InstanceID: req.InstanceID, Quantity: req.Quantity})
}

func (g *Gateway) handleRespawn(sess *Session) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}

	g.runtime.WithLock(func() {
		if !p.Character.IsDead() {
			return
		}
		p.Character.Respawn(model.Position{})
		p.ClearTarget()
	})
	sess.Send(&protocol.RespawnResponse{Type: "respawnResponse", Position: p.Character.Position})
	g.Broadcast(&protocol.PlayerRespawn{Type: "playerRespawn", PlayerID: sess.ID, Position: p.Character.Position})
}

func (g *Gateway) handleAddStatusPoint(sess *Session, raw []byte) {
	p := g.requirePlayer(sess)
	if p == nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in world"})
		return
	}
	req, err := decode[protocol.AddStatusPointRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed addStatusPoint request"})
		return
	}

	var ok bool
	g.runtime.WithLock(func() {
		if p.Character.StatusPoints <= 0 {
			return
		}
		switch req.Stat {
		case "str":
			p.Character.AllocatedStats.Str++
		case "int":
			p.Character.AllocatedStats.Int++
		case "dex":
			p.Character.AllocatedStats.Dex++
		case "vit":
			p.Character.AllocatedStats.Vit++
		default:
			return
		}
		p.Character.StatusPoints--
		g.runtime.Inventory().RecalculateStats(p.Character, p.Inventory)
		ok = true
	})
	if !ok {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "no status points or invalid stat"})
		return
	}
	sess.Send(&protocol.StatusPointAdded{
		Type:         "statusPointAdded",
		PlayerID:     sess.ID,
		Stat:         req.Stat,
		StatusPoints: p.Character.StatusPoints,
		NewStats:     p.Character.Derived,
	})
}

func equipmentSnapshot(inv *model.Inventory) map[model.EquipSlot]int64 {
	out := make(map[model.EquipSlot]int64, 7)
	slots := []model.EquipSlot{
		model.SlotWeapon, model.SlotArmor, model.SlotHelmet, model.SlotBoots,
		model.SlotGloves, model.SlotRing, model.SlotNecklace,
	}
	for _, slot := range slots {
		if item := inv.EquippedInSlot(slot); item != nil {
			out[slot] = item.InstanceID
		}
	}
	return out
}

func nowMillisFunc() int64 {
	return time.Now().UnixMilli()
}
