package sim

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/opmon"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/xiaonanln/typeconv"
)

var float64Type = reflect.TypeOf(float64(0))

type adminArgs map[string]interface{}

func (a adminArgs) has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a adminArgs) str(key string) string {
	if v, ok := a[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func (a adminArgs) int(key string, def int) (n int) {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	defer func() {
		if recover() != nil {
			n = def
		}
	}()
	return int(typeconv.Int(v))
}

func (a adminArgs) float(key string, def float64) (f float64) {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	defer func() {
		if recover() != nil {
			f = def
		}
	}()
	return typeconv.Convert(v, float64Type).Float()
}

type adminCommand func(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error)

var adminCommands map[string]adminCommand

func init() {
	adminCommands = map[string]adminCommand{
		"teleport":   adminTeleport,
		"heal":       adminHeal,
		"give":       adminGive,
		"xp":         adminXP,
		"ban":        adminBan,
		"unban":      adminUnban,
		"kick":       adminKick,
		"spawn":      adminSpawn,
		"regen-zone": adminRegenZone,
		"announce":   adminAnnounce,
		"save":       adminSave,
		"opmon":      adminOpmon,
	}
}

func (e *Engine) handleAdmin(s *session, msg *proto.Admin) {
	if !s.player.Admin {
		e.reply(s, proto.MT_ADMIN, msg.Command, proto.Reject("command", "You are not an administrator."))
		return
	}
	cmd := adminCommands[msg.Command]
	if cmd == nil {
		e.reply(s, proto.MT_ADMIN, msg.Command, proto.Reject("command", "Unknown admin command."))
		return
	}
	args := adminArgs(msg.Args)
	if args == nil {
		args = adminArgs{}
	}
	gwlog.Infof("Admin %s (%s) runs %s target=%q args=%v", s.player.Name, s.player.Profile.ID, msg.Command, msg.Target, msg.Args)
	message, data, err := cmd(e, s, msg.Target, args)
	if err != nil {
		e.reply(s, proto.MT_ADMIN, msg.Command, proto.Reject("command", err.Error()))
		return
	}
	e.send(s, proto.Success(proto.MT_ADMIN, msg.Command, message, data))
}

// findPlayer resolves an alias, a profile id or a hero name; an empty target is the caller
func (e *Engine) findPlayer(s *session, target string) (*entity.Player, error) {
	if target == "" {
		return s.player, nil
	}
	if p := e.player(common.ClientID(target)); p != nil {
		return p, nil
	}
	if p := e.playerByProfile(common.ProfileID(target)); p != nil {
		return p, nil
	}
	var found *entity.Player
	e.eachPlayer(func(_ *session, p *entity.Player) {
		if strings.EqualFold(p.Name, target) {
			found = p
		}
	})
	if found == nil {
		return nil, fmt.Errorf("no online hero %q", target)
	}
	return found, nil
}

func adminTeleport(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	p, err := e.findPlayer(s, target)
	if err != nil {
		return "", nil, err
	}
	loc := p.Loc
	if zoneID := args.str("zone"); zoneID != "" {
		if e.world.Zone(zoneID) == nil {
			return "", nil, fmt.Errorf("unknown zone %q", zoneID)
		}
		loc = entity.Overworld{ZoneID: zoneID}
	} else if levelID := args.str("level"); levelID != "" {
		if e.world.Level(levelID) == nil {
			return "", nil, fmt.Errorf("unknown level %q", levelID)
		}
		loc = entity.Dungeon{LevelID: levelID}
	}
	if p.IsGhost() {
		if _, dungeon := loc.(entity.Dungeon); dungeon {
			return "", nil, fmt.Errorf("ghosts cannot enter dungeons")
		}
	}

	var x, y float64
	if args.has("x") && args.has("y") {
		x, y = args.float("x", p.X), args.float("y", p.Y)
		if !e.bounds(loc).Contains(x, y) || !e.world.Grid.IsWalkable(x, y) {
			return "", nil, fmt.Errorf("(%.1f, %.1f) is not walkable there", x, y)
		}
	} else if levelID, ok := entity.LevelOf(loc); ok {
		entry := e.world.Level(levelID).Entry
		x, y = entry.X, entry.Y
	} else {
		spawn := e.world.SafeSpawn(e.zoneOf(loc), e.rng)
		x, y = spawn.X, spawn.Y
	}
	p.Action = entity.Idle{}
	e.relocate(p, loc, x, y)
	p.SyncProfile(e.clock.Now())
	e.Changed(p.Profile.ID)
	ts := e.sessions[p.Alias]
	e.send(ts, proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlTeleportSafe, Message: "You have been moved by an administrator."})
	e.send(ts, portalEvent{Type: proto.MT_PORTAL_EVENT, Action: "teleported", locView: viewLoc(loc), X: x, Y: y})
	return fmt.Sprintf("Teleported %s to %s (%.1f, %.1f).", p.Name, loc.Key(), x, y), nil, nil
}

func adminHeal(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	p, err := e.findPlayer(s, target)
	if err != nil {
		return "", nil, err
	}
	if p.IsGhost() {
		return "", nil, fmt.Errorf("%s is a ghost", p.Name)
	}
	p.Heal(p.MaxHealth)
	e.Changed(p.Profile.ID)
	return fmt.Sprintf("Healed %s.", p.Name), nil, nil
}

func adminGive(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	p, err := e.findPlayer(s, target)
	if err != nil {
		return "", nil, err
	}
	item := args.str("item")
	n := args.int("count", 1)
	if item == "" || n == 0 {
		return "", nil, fmt.Errorf("give needs an item and a non-zero count")
	}
	if _, gear := entity.Gear(item); gear {
		p.OwnedGear.Add(item)
	} else if item == entity.Coins || entity.IsOre(item) {
		if n < 0 && !p.Inventory.Remove(item, -n) {
			return "", nil, fmt.Errorf("%s has fewer than %d %s", p.Name, -n, item)
		}
		if n > 0 {
			p.Inventory.Add(item, n)
		}
	} else {
		return "", nil, fmt.Errorf("unknown item %q", item)
	}
	e.Changed(p.Profile.ID)
	e.sendInventory(e.sessions[p.Alias], p)
	return fmt.Sprintf("Gave %d %s to %s.", n, item, p.Name), nil, nil
}

func adminXP(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	p, err := e.findPlayer(s, target)
	if err != nil {
		return "", nil, err
	}
	kind := entity.ActionKind(args.str("kind"))
	if !kind.Valid() {
		return "", nil, fmt.Errorf("kind must be melee, ranged or spell")
	}
	amount := args.float("amount", 0)
	if amount <= 0 {
		return "", nil, fmt.Errorf("amount must be positive")
	}
	p.XP.Add(kind, amount)
	p.RecomputeBonuses(e.clock.Now())
	e.Changed(p.Profile.ID)
	return fmt.Sprintf("Granted %.0f %s xp to %s.", amount, kind, p.Name), p.Stats, nil
}

// profileTarget resolves a profile id or an online hero, for commands that work offline too
func (e *Engine) profileTarget(s *session, target string) (*entity.Profile, error) {
	if pr := e.profiles[common.ProfileID(target)]; pr != nil {
		return pr, nil
	}
	p, err := e.findPlayer(s, target)
	if err != nil {
		return nil, err
	}
	return p.Profile, nil
}

func adminBan(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	if target == "" {
		return "", nil, fmt.Errorf("ban needs a target")
	}
	pr, err := e.profileTarget(s, target)
	if err != nil {
		return "", nil, err
	}
	if pr == s.player.Profile {
		return "", nil, fmt.Errorf("you cannot ban yourself")
	}
	pr.Banned = true
	e.Changed(pr.ID)
	if p := e.playerByProfile(pr.ID); p != nil {
		e.closeSession(e.sessions[p.Alias], proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlConnectionRejected, Message: "You have been banned."})
	}
	gwlog.Warnf("Profile %s banned by %s", pr.ID, s.player.Profile.ID)
	return fmt.Sprintf("Banned %s.", pr.Name), nil, nil
}

func adminUnban(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	pr := e.profiles[common.ProfileID(target)]
	if pr == nil {
		return "", nil, fmt.Errorf("unknown profile %q", target)
	}
	pr.Banned = false
	e.Changed(pr.ID)
	return fmt.Sprintf("Unbanned %s.", pr.Name), nil, nil
}

func adminKick(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	if target == "" {
		return "", nil, fmt.Errorf("kick needs a target")
	}
	p, err := e.findPlayer(s, target)
	if err != nil {
		return "", nil, err
	}
	name := p.Name
	e.closeSession(e.sessions[p.Alias], proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlForcedLogout, Message: "You were disconnected by an administrator."})
	return fmt.Sprintf("Kicked %s.", name), nil, nil
}

func adminSpawn(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	typeID := args.str("type")
	if typeID != "" && entity.EnemyTypes[typeID] == nil {
		return "", nil, fmt.Errorf("unknown enemy type %q", typeID)
	}
	sp := e.spawnerFor(s.player.Loc)
	if sp == nil {
		return "", nil, fmt.Errorf("nothing spawns here")
	}
	count := args.int("count", 1)
	if count < 1 || count > 20 {
		return "", nil, fmt.Errorf("count must be between 1 and 20")
	}
	now := e.clock.Now()
	var ids []string
	for i := 0; i < count; i++ {
		if en := e.spawnEnemy(sp, typeID, now); en != nil {
			ids = append(ids, en.ID)
		}
	}
	return fmt.Sprintf("Spawned %d enemies.", len(ids)), ids, nil
}

func adminRegenZone(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	zoneID := args.str("zone")
	if zoneID == "" {
		zoneID = target
	}
	if err := e.RegenerateZone(zoneID); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Zone %s regenerated.", zoneID), nil, nil
}

func adminAnnounce(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	text := strings.TrimSpace(args.str("message"))
	if text == "" {
		return "", nil, fmt.Errorf("announce needs a message")
	}
	now := e.clock.Now()
	e.broadcast(chatMsg{Type: proto.MT_CHAT, ID: e.genID("chat-"), Alias: "", Name: "Server", Message: text, At: entity.Millis(now)}, "")
	return "Announced.", nil, nil
}

func adminSave(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	n := e.SaveAll()
	return fmt.Sprintf("Queued %d profiles for saving.", n), nil, nil
}

func adminOpmon(e *Engine, s *session, target string, args adminArgs) (string, interface{}, error) {
	reset := args.str("reset") == "true"
	return "", opmon.Snapshot(reset), nil
}
