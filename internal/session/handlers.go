package session

import (
	"context"

	"github.com/aethermoor/worldserver/internal/model"
	"github.com/aethermoor/worldserver/internal/protocol"
)

func (g *Gateway) handleLogin(ctx context.Context, sess *Session, raw []byte) {
	req, err := decode[protocol.LoginRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed login request"})
		return
	}

	accountID, err := g.runtime.Accounts().ValidateLogin(ctx, req.Username, req.Password)
	if err != nil || accountID == 0 {
		sess.Send(&protocol.LoginResponse{Type: "loginResponse", Success: false, Message: "invalid credentials"})
		return
	}

	chars, err := g.runtime.Characters().ListCharacters(ctx, accountID)
	if err != nil {
		g.log.Error("listing characters after login", "account", accountID, "error", err)
		sess.Send(&protocol.LoginResponse{Type: "loginResponse", Success: false, Message: "internal error"})
		return
	}

	sess.BindAccount(accountID)
	sess.SetState(CharacterSelect)
	sess.Send(&protocol.LoginResponse{
		Type:    "loginResponse",
		Success: true,
		Data:    &protocol.LoginResponseData{AccountID: accountID, Characters: chars},
	})
}

func (g *Gateway) handleRegister(ctx context.Context, sess *Session, raw []byte) {
	req, err := decode[protocol.RegisterRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed register request"})
		return
	}

	ok, err := g.runtime.Accounts().CreateAccount(ctx, req.Username, req.Password)
	if err != nil {
		g.log.Error("creating account", "username", req.Username, "error", err)
		sess.Send(&protocol.RegisterResponse{Type: "registerResponse", Success: false, Message: "internal error"})
		return
	}
	if !ok {
		sess.Send(&protocol.RegisterResponse{Type: "registerResponse", Success: false, Message: "username unavailable or password too weak"})
		return
	}
	sess.Send(&protocol.RegisterResponse{Type: "registerResponse", Success: true})
}

func (g *Gateway) handleCreateCharacter(ctx context.Context, sess *Session, raw []byte) {
	if sess.State() != CharacterSelect {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in character select"})
		return
	}
	req, err := decode[protocol.CreateCharacterRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed createCharacter request"})
		return
	}

	catalogClass := g.runtime.ClassTable(req.Class)
	if catalogClass == nil {
		sess.Send(&protocol.CreateCharacterResponse{Type: "createCharacterResponse", Success: false, Message: "unknown class"})
		return
	}

	ch := &model.Character{
		AccountID:    sess.AccountID(),
		Name:         req.Name,
		Race:         req.Race,
		Class:        req.Class,
		Level:        1,
		StatusPoints: 0,
		MaxHealth:    catalogClass.BaseMaxHealth,
		MaxMana:      catalogClass.BaseMaxMana,
		Position:     model.Position{},
	}
	ch.Health = ch.MaxHealth
	ch.Mana = ch.MaxMana
	g.runtime.Inventory().RecalculateStats(ch, &model.Inventory{})

	id, err := g.runtime.Characters().CreateCharacter(ctx, ch, nil, g.runtime.Allocator())
	if err != nil {
		g.log.Error("creating character", "name", req.Name, "error", err)
		sess.Send(&protocol.CreateCharacterResponse{Type: "createCharacterResponse", Success: false, Message: "internal error"})
		return
	}
	if id == 0 {
		sess.Send(&protocol.CreateCharacterResponse{Type: "createCharacterResponse", Success: false, Message: "name taken or character limit reached"})
		return
	}

	sess.Send(&protocol.CreateCharacterResponse{Type: "createCharacterResponse", Success: true, Character: ch})
}

func (g *Gateway) handleSelectCharacter(ctx context.Context, sess *Session, raw []byte) {
	if sess.State() != CharacterSelect {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "not in character select"})
		return
	}
	req, err := decode[protocol.SelectCharacterRequest](raw)
	if err != nil {
		sess.Send(&protocol.ErrorMessage{Type: "error", Message: "malformed selectCharacter request"})
		return
	}

	ch, err := g.runtime.Characters().LoadCharacter(ctx, req.CharacterID)
	if err != nil || ch == nil || ch.AccountID != sess.AccountID() {
		sess.Send(&protocol.SelectCharacterResponse{Type: "selectCharacterResponse", Success: false, Message: "character not found"})
		return
	}

	learned, err := g.runtime.Skills().LoadSkills(ctx, ch.ID)
	if err != nil {
		g.log.Error("loading skills", "character", ch.ID, "error", err)
		sess.Send(&protocol.SelectCharacterResponse{Type: "selectCharacterResponse", Success: false, Message: "internal error"})
		return
	}
	ch.LearnedSkills = learned

	inv, err := g.runtime.Inventories().LoadInventory(ctx, ch.ID)
	if err != nil {
		g.log.Error("loading inventory", "character", ch.ID, "error", err)
		sess.Send(&protocol.SelectCharacterResponse{Type: "selectCharacterResponse", Success: false, Message: "internal error"})
		return
	}

	g.runtime.Inventory().RecalculateStats(ch, inv)

	player := &model.Player{SessionID: sess.ID, Character: ch, Inventory: inv}

	var allPlayers []*model.Player
	var allMonsters []*model.MonsterInstance
	g.runtime.WithLock(func() {
		g.runtime.Players().Put(player)
		allPlayers = g.runtime.Players().AllSorted()
		allMonsters = g.runtime.Monsters().AllSorted()
	})

	sess.BindPlayer(sess.ID)
	sess.SetState(InWorld)

	sess.Send(&protocol.SelectCharacterResponse{
		Type:        "selectCharacterResponse",
		Success:     true,
		Character:   ch,
		PlayerID:    sess.ID,
		AllPlayers:  allPlayers,
		AllMonsters: allMonsters,
		Inventory:   inv,
	})
	g.Broadcast(&protocol.PlayerJoined{Type: "playerJoined", PlayerID: sess.ID})
}

func (g *Gateway) requirePlayer(sess *Session) *model.Player {
	if sess.State() != InWorld {
		return nil
	}
	var p *model.Player
	g.runtime.WithLock(func() {
		p = g.runtime.Players().Get(sess.ID)
	})
	return p
}
