package common

import (
	"github.com/emberwild/emberwild/engine/uuid"
)

// PROFILEID_LENGTH is the length of Profile IDs
const PROFILEID_LENGTH = uuid.UUID_LENGTH

// ProfileID identifies a durable hero record
type ProfileID string

// IsNil returns if ProfileID is nil
func (id ProfileID) IsNil() bool {
	return id == ""
}

// IsValid checks that the id looks like a generated ProfileID
func (id ProfileID) IsValid() bool {
	return uuid.IsValid(string(id))
}

// GenProfileID generates a new ProfileID
func GenProfileID() ProfileID {
	return ProfileID(uuid.GenUUID())
}

// ClientID is the ephemeral alias of a live connection
type ClientID string

// GenClientID generates a new Client ID
func GenClientID() ClientID {
	return ClientID(uuid.GenUUID())
}

// IsNil returns if ClientID is nil
func (id ClientID) IsNil() bool {
	return id == ""
}

// CLIENTID_LENGTH is the length of Client IDs
const CLIENTID_LENGTH = uuid.UUID_LENGTH
