package engine

import (
	"encoding/json"
	"sort"

	"holdem-room/models"
)

// VoiceRelay tracks who is in a room's voice channel. Signaling payloads
// pass through it untouched.
type VoiceRelay struct {
	peers map[string]models.VoicePeer
}

func NewVoiceRelay() *VoiceRelay {
	return &VoiceRelay{peers: make(map[string]models.VoicePeer)}
}

func (v *VoiceRelay) Join(peer models.VoicePeer) {
	v.peers[peer.ConnID] = peer
}

func (v *VoiceRelay) Leave(connID string) bool {
	if _, ok := v.peers[connID]; !ok {
		return false
	}
	delete(v.peers, connID)
	return true
}

func (v *VoiceRelay) Peer(connID string) (models.VoicePeer, bool) {
	p, ok := v.peers[connID]
	return p, ok
}

// Peers lists registered peers ordered by seat, spectators (-1) first.
func (v *VoiceRelay) Peers() []models.VoicePeer {
	out := make([]models.VoicePeer, 0, len(v.peers))
	for _, p := range v.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeatIdx != out[j].SeatIdx {
			return out[i].SeatIdx < out[j].SeatIdx
		}
		return out[i].ConnID < out[j].ConnID
	})
	return out
}

// VoiceJoin registers the caller with its current seat and display name.
func (r *Room) VoiceJoin(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrRoomReleased
	}
	name, ok := r.memberName(connID)
	if !ok {
		return ErrNotMember
	}
	r.voice.Join(models.VoicePeer{ConnID: connID, SeatIdx: r.seatOf(connID), Name: name})
	r.emitRoom(EventVoicePeers, r.voice.Peers())
	return nil
}

func (r *Room) VoiceLeave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voiceLeave(connID)
}

func (r *Room) voiceLeave(connID string) {
	if r.voice.Leave(connID) {
		r.emitRoom(EventVoicePeers, r.voice.Peers())
	}
}

// VoiceSignal forwards an opaque payload between two registered peers.
func (r *Room) VoiceSignal(from, to string, payload json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrRoomReleased
	}
	sender, ok := r.voice.Peer(from)
	if !ok {
		return ErrVoiceUnknownPeer
	}
	if _, ok := r.voice.Peer(to); !ok {
		return ErrVoiceUnknownPeer
	}
	r.emitTo(to, EventVoiceSignal, models.VoiceSignalEvent{
		From:        from,
		FromSeatIdx: sender.SeatIdx,
		Payload:     payload,
	})
	return nil
}
