// Package message carries packets between the servers of the network.
package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

// ErrUnknownKind is returned when decoding a packet of a kind this server does
// not know.
var ErrUnknownKind = errors.New("unknown packet kind")

// Kind identifies the type of a packet on the wire.
type Kind string

const (
	KindKick              Kind = "kick"
	KindStaffNotification Kind = "staff_notification"
	KindRankUpdate        Kind = "rank_update"
)

// Packet is a message sent over a Bus.
type Packet interface {
	Kind() Kind
}

// KickPacket disconnects a player from whichever server it is on.
type KickPacket struct {
	Player uuid.UUID `json:"player,omitempty"`
	// Name is used when the issuer only knew the name of the player.
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
	Issuer string `json:"issuer"`
	// IssuerRank is the rank name of the issuer. Empty means guest.
	IssuerRank string `json:"issuerRank,omitempty"`
}

// StaffNotificationPacket is shown to every staff member on the network.
type StaffNotificationPacket struct {
	Sender  string `json:"sender"`
	Server  string `json:"server"`
	Message string `json:"message"`
}

// Format renders the notification as shown to staff.
func (p StaffNotificationPacket) Format() string {
	return text.Colourf("<aqua>[Staff]</aqua> <grey>[%s]</grey> <yellow>%s</yellow><grey>:</grey> %s", p.Server, p.Sender, p.Message)
}

// RankUpdatePacket announces a rank or tag change that was already stored.
type RankUpdatePacket struct {
	Player uuid.UUID `json:"player"`
	Rank   string    `json:"rank"`
	Tags   []int     `json:"tags"`
}

func (KickPacket) Kind() Kind              { return KindKick }
func (StaffNotificationPacket) Kind() Kind { return KindStaffNotification }
func (RankUpdatePacket) Kind() Kind        { return KindRankUpdate }

// Envelope is the wire format of a packet.
type Envelope struct {
	Kind   Kind            `json:"kind"`
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
}

// Encode wraps p in an envelope sent by source.
func Encode(source string, p Packet) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s packet: %w", p.Kind(), err)
	}
	return json.Marshal(Envelope{Kind: p.Kind(), Source: source, Data: data})
}

// Decode unwraps an envelope.
func Decode(b []byte) (Envelope, Packet, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, nil, fmt.Errorf("decode envelope: %w", err)
	}
	var (
		p   Packet
		err error
	)
	switch env.Kind {
	case KindKick:
		p, err = decodeAs[KickPacket](env.Data)
	case KindStaffNotification:
		p, err = decodeAs[StaffNotificationPacket](env.Data)
	case KindRankUpdate:
		p, err = decodeAs[RankUpdatePacket](env.Data)
	default:
		return env, nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if err != nil {
		return env, nil, fmt.Errorf("decode %s packet: %w", env.Kind, err)
	}
	return env, p, nil
}

func decodeAs[T Packet](data []byte) (Packet, error) {
	var p T
	err := json.Unmarshal(data, &p)
	return p, err
}
