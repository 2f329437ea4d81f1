// Package proto defines the JSON messages exchanged with game clients
package proto

import "encoding/json"

// MsgType is the "type" field of a message
type MsgType string

// Client to server message types
const (
	MT_INPUT   MsgType = "input"
	MT_ACTION  MsgType = "action"
	MT_CHAT    MsgType = "chat"
	MT_GATHER  MsgType = "gather"
	MT_LOOT    MsgType = "loot"
	MT_BANK    MsgType = "bank"
	MT_SHOP    MsgType = "shop"
	MT_TRADING MsgType = "trading"
	MT_PORTAL  MsgType = "portal"
	MT_EQUIP   MsgType = "equip"
	MT_AUTH    MsgType = "auth"
	MT_PROFILE MsgType = "profile"
	MT_ADMIN   MsgType = "admin"
)

// ClientMsgTypes lists every type a client may send
var ClientMsgTypes = []MsgType{
	MT_INPUT, MT_ACTION, MT_CHAT, MT_GATHER, MT_LOOT, MT_BANK, MT_SHOP,
	MT_TRADING, MT_PORTAL, MT_EQUIP, MT_AUTH, MT_PROFILE, MT_ADMIN,
}

// Server to client message types
const (
	MT_INIT           MsgType = "init"
	MT_STATE          MsgType = "state"
	MT_INVENTORY      MsgType = "inventory"
	MT_ORE_UPDATE     MsgType = "ore-update"
	MT_LOOT_SPAWN     MsgType = "loot-spawn"
	MT_LOOT_UPDATE    MsgType = "loot-update"
	MT_GATHERED       MsgType = "gathered"
	MT_LOOT_COLLECTED MsgType = "loot-collected"
	MT_BANK_RESULT    MsgType = "bank-result"
	MT_SHOP_RESULT    MsgType = "shop-result"
	MT_PORTAL_EVENT   MsgType = "portal-event"
	MT_ZONE_EVENT     MsgType = "zone-event"
	MT_GHOST_EVENT    MsgType = "ghost-event"
	MT_EQUIP_RESULT   MsgType = "equip-result"
	MT_CONTROL        MsgType = "control"
	MT_DISCONNECT     MsgType = "disconnect"
	MT_JOIN           MsgType = "join"
	MT_ACTION_RESULT  MsgType = "action-result"
)

// Control message actions
const (
	ControlForcedLogout       = "forced-logout"
	ControlTeleportSafe       = "teleport-safe"
	ControlAuthRequired       = "auth-required"
	ControlAuthError          = "auth-error"
	ControlConnectionRejected = "connection-rejected"
	ControlSession            = "session"
	ControlBlocked            = "blocked"
)

// Envelope is the first decoding pass of every client message
type Envelope struct {
	Type MsgType `json:"type"`
}

// Input carries movement and aim
type Input struct {
	MoveX float64 `json:"moveX"`
	MoveY float64 `json:"moveY"`
	AimX  float64 `json:"aimX"`
	AimY  float64 `json:"aimY"`
}

// Action phases
const (
	PhaseStart   = "start"
	PhaseRelease = "release"
	PhaseCancel  = "cancel"
)

// Action starts, releases or cancels a charge
type Action struct {
	Action string   `json:"action"`
	Phase  string   `json:"phase"`
	AimX   *float64 `json:"aimX"`
	AimY   *float64 `json:"aimY"`
}

// Chat is a chat line
type Chat struct {
	Message string `json:"message"`
}

// Gather and Loot optionally name a target; the nearest is used otherwise
type Gather struct {
	ID string `json:"id"`
}

// Loot picks up a drop
type Loot struct {
	ID string `json:"id"`
}

// Bank is deposit, withdraw or sell
type Bank struct {
	Action string `json:"action"`
}

// Shop is catalog, buy or sell
type Shop struct {
	Action string `json:"action"`
	ItemID string `json:"itemId"`
}

// Trading is listings, create, cancel or buy
type Trading struct {
	Action    string `json:"action"`
	Item      string `json:"item"`
	Quantity  int    `json:"quantity"`
	Price     int    `json:"price"`
	ListingID string `json:"listingId"`
}

// Portal is enter or exit
type Portal struct {
	Action   string `json:"action"`
	PortalID string `json:"portalId"`
}

// Equip puts an owned item in a slot
type Equip struct {
	Slot   string `json:"slot"`
	ItemID string `json:"itemId"`
}

// Auth drives login, registration and session handling
type Auth struct {
	Action   string `json:"action"`
	Name     string `json:"name"`
	Password string `json:"password"`
	HeroID   string `json:"heroId"`
}

// Profile edits hero settings
type Profile struct {
	Action string `json:"action"`
	Name   string `json:"name"`
}

// Admin runs an operator command; Args are command specific
type Admin struct {
	Command string                 `json:"command"`
	Target  string                 `json:"target"`
	Args    map[string]interface{} `json:"args"`
}

// Control is a connection-level notice
type Control struct {
	Type    MsgType `json:"type"`
	Action  string  `json:"action"`
	Message string  `json:"message,omitempty"`
	Token   string  `json:"token,omitempty"`
	HeroID  string  `json:"heroId,omitempty"`
	Field   string  `json:"field,omitempty"`
}

// Result is a generic success or failure reply
type Result struct {
	Type    MsgType     `json:"type"`
	Action  string      `json:"action,omitempty"`
	OK      bool        `json:"ok"`
	Message string      `json:"message,omitempty"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Failure turns a rejection into a failed result
func Failure(t MsgType, action string, rej *Rejection) Result {
	return Result{Type: t, Action: action, OK: false, Message: rej.Message, Field: rej.Field}
}

// Success builds a successful result
func Success(t MsgType, action string, message string, data interface{}) Result {
	return Result{Type: t, Action: action, OK: true, Message: message, Data: data}
}

// DecodeEnvelope reads the type of a raw client message
func DecodeEnvelope(raw []byte) (MsgType, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", err
	}
	return env.Type, nil
}
