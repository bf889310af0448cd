// Package protocol defines the line-delimited JSON wire messages exchanged
// between client and server. Every message is a JSON object with
// a required "type" field; inbound/outbound shapes are modeled as distinct
// Go types keyed by that tag.
package protocol

import "github.com/aethermoor/worldserver/internal/model"

// Envelope is the minimal shape every inbound message satisfies, used to
// sniff the "type" tag before decoding into a concrete request type.
type Envelope struct {
	Type string `json:"type"`
}

// Inbound message payloads.

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateCharacterRequest struct {
	Name  string `json:"name"`
	Race  string `json:"race"`
	Class string `json:"class"`
}

type SelectCharacterRequest struct {
	CharacterID int64 `json:"characterId"`
}

type MoveRequest struct {
	TargetPosition model.Position `json:"targetPosition"`
}

type AttackMonsterRequest struct {
	MonsterID int64 `json:"monsterId"`
}

type UseSkillRequest struct {
	SkillID        int64           `json:"skillId"`
	SlotNumber     int             `json:"slotNumber"`
	TargetID       int64           `json:"targetId,omitempty"`
	TargetType     string          `json:"targetType,omitempty"`
	TargetPosition *model.Position `json:"targetPosition,omitempty"`
}

type LearnSkillRequest struct {
	SkillID    int64 `json:"skillId"`
	SlotNumber int   `json:"slotNumber"`
}

type LevelUpSkillRequest struct {
	SkillID int64 `json:"skillId"`
}

type UseItemRequest struct {
	InstanceID int64 `json:"instanceId"`
}

type EquipItemRequest struct {
	InstanceID int64 `json:"instanceId"`
}

type UnequipItemRequest struct {
	Slot model.EquipSlot `json:"slot"`
}

type DropItemRequest struct {
	InstanceID int64 `json:"instanceId"`
	Quantity   int32 `json:"quantity"`
}

type AddStatusPointRequest struct {
	Stat string `json:"stat"`
}

// Outbound message payloads. Every outbound type embeds its own
// "type" tag so it can be marshaled directly.

type LoginResponse struct {
	Type    string             `json:"type"`
	Success bool               `json:"success"`
	Data    *LoginResponseData `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
}

type LoginResponseData struct {
	AccountID  int64              `json:"accountId"`
	Characters []*model.Character `json:"characters"`
}

type RegisterResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type CreateCharacterResponse struct {
	Type      string           `json:"type"`
	Success   bool             `json:"success"`
	Character *model.Character `json:"character,omitempty"`
	Message   string           `json:"message,omitempty"`
}

type SelectCharacterResponse struct {
	Type        string              `json:"type"`
	Success     bool                `json:"success"`
	Character   *model.Character    `json:"character,omitempty"`
	PlayerID    string              `json:"playerId,omitempty"`
	AllPlayers  []*model.Player     `json:"allPlayers,omitempty"`
	AllMonsters []*model.MonsterInstance `json:"allMonsters,omitempty"`
	Inventory   *model.Inventory    `json:"inventory,omitempty"`
	Message     string              `json:"message,omitempty"`
}

type MoveAccepted struct {
	Type     string         `json:"type"`
	Position model.Position `json:"position"`
}

type AttackStarted struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId"`
	MonsterID int64  `json:"monsterId"`
}

type SkillUsed struct {
	Type   string `json:"type"`
	Result any    `json:"result"`
}

type SkillUseFailed struct {
	Type    string `json:"type"`
	SkillID int64  `json:"skillId"`
	Reason  string `json:"reason"`
}

type SkillLearned struct {
	Type       string `json:"type"`
	Success    bool   `json:"success"`
	SkillID    int64  `json:"skillId,omitempty"`
	SkillName  string `json:"skillName,omitempty"`
	SlotNumber int    `json:"slotNumber,omitempty"`
	Message    string `json:"message,omitempty"`
}

type SkillLeveledUp struct {
	Type         string `json:"type"`
	Success      bool   `json:"success"`
	SkillID      int64  `json:"skillId,omitempty"`
	NewLevel     int32  `json:"newLevel,omitempty"`
	StatusPoints int32  `json:"statusPoints,omitempty"`
	Message      string `json:"message,omitempty"`
}

type SkillsResponse struct {
	Type   string                    `json:"type"`
	Skills []*model.LearnedSkill     `json:"skills"`
}

type SkillListResponse struct {
	Type   string                  `json:"type"`
	Skills []*model.SkillTemplate  `json:"skills"`
}

type InventoryResponse struct {
	Type      string           `json:"type"`
	Success   bool             `json:"success"`
	Inventory *model.Inventory `json:"inventory,omitempty"`
}

type ItemUsed struct {
	Type              string `json:"type"`
	PlayerID          string `json:"playerId"`
	InstanceID        int64  `json:"instanceId"`
	Health            int32  `json:"health"`
	MaxHealth         int32  `json:"maxHealth"`
	Mana              int32  `json:"mana"`
	MaxMana           int32  `json:"maxMana"`
	RemainingQuantity int32  `json:"remainingQuantity"`
}

type ItemUseFailed struct {
	Type    string `json:"type"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

type ItemEquipped struct {
	Type      string                 `json:"type"`
	PlayerID  string                 `json:"playerId"`
	InstanceID int64                 `json:"instanceId"`
	NewStats  model.DerivedStats     `json:"newStats"`
	Equipment map[model.EquipSlot]int64 `json:"equipment"`
}

type ItemUnequipped struct {
	Type      string                    `json:"type"`
	PlayerID  string                    `json:"playerId"`
	NewStats  model.DerivedStats        `json:"newStats"`
	Equipment map[model.EquipSlot]int64 `json:"equipment"`
	Slot      model.EquipSlot           `json:"slot"`
}

type ItemDropped struct {
	Type       string `json:"type"`
	PlayerID   string `json:"playerId"`
	InstanceID int64  `json:"instanceId"`
	Quantity   int32  `json:"quantity"`
}

type RespawnResponse struct {
	Type     string         `json:"type"`
	Position model.Position `json:"position"`
}

type PlayerRespawn struct {
	Type     string         `json:"type"`
	PlayerID string         `json:"playerId"`
	Position model.Position `json:"position"`
}

type StatusPointAdded struct {
	Type         string             `json:"type"`
	PlayerID     string             `json:"playerId"`
	Stat         string             `json:"stat"`
	StatusPoints int32              `json:"statusPoints"`
	NewStats     model.DerivedStats `json:"newStats"`
}

type PlayerJoined struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type PlayerDisconnected struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type WorldState struct {
	Type     string                    `json:"type"`
	Players  []*model.Player           `json:"players"`
	Monsters []*model.MonsterInstance  `json:"monsters"`
}

type CombatResult struct {
	Type      string `json:"type"`
	AttackerID string `json:"attackerId"`
	TargetID  string `json:"targetId"`
	Damage    int32  `json:"damage"`
	Critical  bool   `json:"critical"`
}

type LevelUp struct {
	Type     string             `json:"type"`
	PlayerID string             `json:"playerId"`
	NewLevel int32              `json:"newLevel"`
	NewStats model.DerivedStats `json:"newStats"`
}

type PlayerDeath struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type PlayerStatsUpdate struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Health   int32  `json:"health"`
	Mana     int32  `json:"mana"`
}

type LootReceived struct {
	Type  string                `json:"type"`
	Gold  int64                 `json:"gold"`
	Items []model.ItemInstance  `json:"items"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Pong struct {
	Type string `json:"type"`
}
