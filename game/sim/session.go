package sim

import (
	"time"

	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/opmon"
	"github.com/emberwild/emberwild/game/account"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
)

// ConnectParams are the query parameters a connection was opened with
type ConnectParams struct {
	ProfileID string
	Session   string
}

// session is one live connection; player is nil until a hero is attached
type session struct {
	alias       common.ClientID
	conn        Conn
	params      ConnectParams
	player      *entity.Player
	authPending bool
	closed      bool
	connectedAt time.Time
}

// Connect registers a new connection and runs the resume flow its parameters select
func (e *Engine) Connect(alias common.ClientID, conn Conn, params ConnectParams) {
	s := &session{alias: alias, conn: conn, params: params, connectedAt: e.clock.Now()}
	e.sessions[alias] = s
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("client %s connected from %s: %+v", alias, conn.RemoteAddr(), params)
	}

	switch {
	case params.Session != "":
		id, ok := e.registry.ProfileBySession(params.Session)
		pr := e.profiles[id]
		if !ok || pr == nil {
			e.control(s, proto.ControlAuthRequired, "Your session has expired. Please log in.")
			return
		}
		e.attach(s, pr)
	case params.ProfileID != "":
		e.resumeHero(s, common.ProfileID(params.ProfileID))
	default:
		e.attach(s, e.newProfile(common.GenProfileID()))
	}
}

// Disconnect removes a closed connection and its hero
func (e *Engine) Disconnect(alias common.ClientID) {
	s := e.sessions[alias]
	if s == nil {
		return
	}
	s.closed = true
	e.detach(s)
	delete(e.sessions, alias)
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("client %s disconnected", alias)
	}
}

// closeSession delivers one final message, then drops the connection
func (e *Engine) closeSession(s *session, final interface{}) {
	if s.closed {
		return
	}
	var data []byte
	if final != nil {
		data = pack(s.conn.Packer(), final)
	}
	s.closed = true
	e.detach(s)
	delete(e.sessions, s.alias)
	s.conn.Close(data)
}

func (e *Engine) newProfile(id common.ProfileID) *entity.Profile {
	now := e.clock.Now()
	pr := entity.NewProfile(id, now)
	z := e.world.DefaultZone()
	spawn := e.world.SafeSpawn(z, e.rng)
	pr.ZoneID = z.ID
	pr.X, pr.Y = spawn.X, spawn.Y
	e.profiles[id] = pr
	e.Changed(id)
	gwlog.Infof("Created profile %s", id)
	return pr
}

// resumeHero attaches a hero by id unless an account protects it
func (e *Engine) resumeHero(s *session, id common.ProfileID) {
	if s.player != nil && s.player.Profile.ID == id {
		return
	}
	pr := e.profiles[id]
	if pr == nil {
		if !id.IsValid() {
			id = common.GenProfileID()
		}
		pr = e.newProfile(id)
	}
	if pr.Account != nil {
		e.send(s, proto.Control{
			Type:    proto.MT_CONTROL,
			Action:  proto.ControlAuthRequired,
			Message: "This hero is protected by an account. Log in to continue.",
			HeroID:  string(pr.ID),
		})
		return
	}
	e.attach(s, pr)
}

// attach binds a profile to a connection, evicting any other connection holding it
func (e *Engine) attach(s *session, pr *entity.Profile) {
	if pr.Banned {
		e.closeSession(s, proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlConnectionRejected, Message: "This hero has been banned."})
		return
	}
	if s.player != nil {
		if s.player.Profile == pr {
			return
		}
		e.detach(s)
	}
	if alias, ok := e.byProfile[pr.ID]; ok && alias != s.alias {
		if old := e.sessions[alias]; old != nil {
			gwlog.Infof("Profile %s moved from client %s to %s", pr.ID, alias, s.alias)
			e.closeSession(old, proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlForcedLogout, Message: "You logged in from another connection."})
		}
	}

	now := e.clock.Now()
	p := entity.NewPlayer(s.alias, pr, now)
	if e.opts.AdminProfiles.Contains(string(pr.ID)) || (pr.Account != nil && e.opts.AdminAccounts.Contains(pr.Account.NameKey)) {
		p.Admin = true
	}
	e.restorePosition(p)
	if !p.IsGhost() && p.Health < 1 {
		p.Health = 1
	}

	s.player = p
	e.byProfile[pr.ID] = s.alias
	e.space(p.Loc).Enter(&p.Node, p.X, p.Y)
	p.SyncProfile(now)
	e.Changed(pr.ID)

	e.send(s, e.initMessage(p))
	e.broadcast(joinMsg{Type: proto.MT_JOIN, Player: e.playerView(p)}, s.alias)
	gwlog.Infof("Client %s attached profile %s (%s) at %s (%.1f, %.1f)", s.alias, pr.ID, p.Name, p.Loc.Key(), p.X, p.Y)
}

// restorePosition keeps the stored position only if it is still walkable inside its zone or level
func (e *Engine) restorePosition(p *entity.Player) {
	valid := false
	switch loc := p.Loc.(type) {
	case entity.Overworld:
		if z := e.world.Zone(loc.ZoneID); z != nil {
			valid = z.Rect.Contains(p.X, p.Y) && e.world.Grid.IsWalkable(p.X, p.Y)
		}
	case entity.Dungeon:
		if lv := e.world.Level(loc.LevelID); lv != nil && !p.IsGhost() {
			valid = lv.Rect.Contains(p.X, p.Y) && e.world.Grid.IsWalkable(p.X, p.Y)
		}
	}
	if valid {
		return
	}
	z := e.world.DefaultZone()
	if g, ok := p.Life.(entity.Ghost); ok {
		if gz := e.world.Zone(g.Objective.ZoneID); gz != nil {
			z = gz
		}
	}
	spawn := e.world.SafeSpawn(z, e.rng)
	p.Loc = entity.Overworld{ZoneID: z.ID}
	p.X, p.Y = spawn.X, spawn.Y
}

// detach removes the hero of a connection from the world and persists it
func (e *Engine) detach(s *session) {
	p := s.player
	if p == nil {
		return
	}
	now := e.clock.Now()
	if c, ok := p.Action.(entity.Charging); ok {
		e.resolveCharge(p, c, now)
	}
	if p.Node.InSpace() {
		e.space(p.Loc).Leave(&p.Node)
	}
	p.SyncProfile(now)
	e.Changed(p.Profile.ID)
	if e.byProfile[p.Profile.ID] == s.alias {
		delete(e.byProfile, p.Profile.ID)
	}
	s.player = nil
	e.broadcast(disconnectMsg{Type: proto.MT_DISCONNECT, ID: string(s.alias)}, s.alias)
}

func (e *Engine) authError(s *session, rej *proto.Rejection) {
	e.send(s, proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlAuthError, Message: rej.Message, Field: rej.Field})
}

// live reports whether s is still the current connection of its alias
func (e *Engine) live(s *session) bool {
	return !s.closed && e.sessions[s.alias] == s
}

// issueSession gives the connection a fresh session token for pr
func (e *Engine) issueSession(s *session, pr *entity.Profile) {
	token, hash, err := account.NewSessionToken()
	if err != nil {
		gwlog.Errorf("session token for %s: %s", pr.ID, err)
		e.authError(s, proto.Reject("session", "Could not start a session. Try again."))
		return
	}
	e.registry.SetSession(pr.Account, pr.ID, hash)
	e.Changed(pr.ID)
	e.send(s, proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlSession, Token: token, HeroID: string(pr.ID)})
}

func (e *Engine) handleAuth(s *session, msg *proto.Auth) {
	if s.authPending {
		e.authError(s, proto.Reject("auth", "Please wait for the previous request."))
		return
	}
	switch msg.Action {
	case "register":
		e.authRegister(s, msg)
	case "login":
		e.authLogin(s, msg)
	case "hero-id":
		e.resumeHero(s, common.ProfileID(msg.HeroID))
	case "set-password":
		e.authSetPassword(s, msg)
	case "logout":
		e.authLogout(s)
	default:
		e.authError(s, proto.Reject("action", "Unknown auth action."))
	}
}

// deriveAsync runs routine on the auth workers; done only runs if s is still live, lost otherwise
func (e *Engine) deriveAsync(s *session, routine func() (interface{}, error), done func(res interface{}, err error), lost func()) {
	s.authPending = true
	e.async.AppendAsyncJob(e.post, authGroup, func() (interface{}, error) {
		op := opmon.StartOperation("auth.derive")
		defer op.Finish(time.Second)
		return routine()
	}, func(res interface{}, err error) {
		s.authPending = false
		if !e.live(s) {
			if lost != nil {
				lost()
			}
			return
		}
		done(res, err)
	})
}

// authRegister reserves the name before deriving the key, so a second request for it fails early
func (e *Engine) authRegister(s *session, msg *proto.Auth) {
	name, key, rej := account.NormalizeName(msg.Name)
	if rej != nil {
		e.authError(s, rej)
		return
	}
	if rej := account.ValidatePassword(msg.Password); rej != nil {
		e.authError(s, rej)
		return
	}
	if s.player != nil && s.player.Profile.Account != nil {
		e.authError(s, proto.Reject("name", "This hero already has an account."))
		return
	}
	id := common.GenProfileID()
	if s.player != nil {
		id = s.player.Profile.ID
	}
	if !e.registry.Claim(key, id) {
		e.authError(s, proto.Reject("name", "That account name is taken."))
		return
	}

	password, iterations := msg.Password, e.opts.Iterations
	e.deriveAsync(s, func() (interface{}, error) {
		return account.NewCredentials(name, key, password, iterations)
	}, func(res interface{}, err error) {
		if err != nil {
			e.registry.Release(key, id)
			gwlog.Errorf("register %s: %s", key, err)
			e.authError(s, proto.Reject("auth", "Could not create the account. Try again."))
			return
		}
		pr := e.profiles[id]
		if pr == nil {
			pr = e.newProfile(id)
		}
		pr.Account = res.(*entity.Account)
		gwlog.Infof("Account %s registered for profile %s", key, pr.ID)
		e.issueSession(s, pr)
		e.attach(s, pr)
	}, func() {
		e.registry.Release(key, id)
	})
}

func (e *Engine) authLogin(s *session, msg *proto.Auth) {
	_, key, rej := account.NormalizeName(msg.Name)
	if rej != nil {
		e.authError(s, rej)
		return
	}
	id, ok := e.registry.ProfileByName(key)
	pr := e.profiles[id]
	if !ok || pr == nil || pr.Account == nil {
		e.authError(s, proto.Reject("name", "Invalid account name or password."))
		return
	}
	acc := *pr.Account
	password := msg.Password
	e.deriveAsync(s, func() (interface{}, error) {
		return account.Verify(&acc, password), nil
	}, func(res interface{}, err error) {
		if ok, _ := res.(bool); !ok || err != nil {
			e.authError(s, proto.Reject("password", "Invalid account name or password."))
			return
		}
		if pr.Banned {
			e.closeSession(s, proto.Control{Type: proto.MT_CONTROL, Action: proto.ControlConnectionRejected, Message: "This hero has been banned."})
			return
		}
		e.issueSession(s, pr)
		e.attach(s, pr)
	}, nil)
}

func (e *Engine) authSetPassword(s *session, msg *proto.Auth) {
	p := s.player
	if p == nil || p.Profile.Account == nil {
		e.authError(s, proto.Reject("password", "Register an account first."))
		return
	}
	if rej := account.ValidatePassword(msg.Password); rej != nil {
		e.authError(s, rej)
		return
	}
	pr := p.Profile
	name, key, password, iterations := pr.Account.Name, pr.Account.NameKey, msg.Password, e.opts.Iterations
	e.deriveAsync(s, func() (interface{}, error) {
		return account.NewCredentials(name, key, password, iterations)
	}, func(res interface{}, err error) {
		if err != nil || pr.Account == nil {
			e.authError(s, proto.Reject("password", "Could not update the password."))
			return
		}
		fresh := res.(*entity.Account)
		pr.Account.PasswordHash = fresh.PasswordHash
		pr.Account.Salt = fresh.Salt
		pr.Account.Iterations = fresh.Iterations
		e.Changed(pr.ID)
		e.send(s, proto.Success(proto.MT_AUTH, "set-password", "Password updated.", nil))
	}, nil)
}

func (e *Engine) authLogout(s *session) {
	p := s.player
	if p == nil {
		return
	}
	if acc := p.Profile.Account; acc != nil {
		e.registry.SetSession(acc, p.Profile.ID, "")
	}
	e.detach(s)
	e.control(s, proto.ControlAuthRequired, "You have logged out.")
}
