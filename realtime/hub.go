package realtime

import (
	"encoding/json"
	"sync"

	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/utils"
)

// ConversationAuthorizer -> cek server-side apakah principal boleh join
// topic satu conversation. Diimplement oleh chat service.
type ConversationAuthorizer interface {
	Authorize(conversationID uint, p models.Principal) (*models.Conversation, error)
}

// Hub menampung semua koneksi live per principal plus room per conversation.
// Satu principal boleh punya banyak koneksi sekaligus (multi-tab/device),
// jadi value map adalah set, bukan satu slot.
type Hub struct {
	mu         sync.Mutex
	clients    map[string]map[*Client]bool // principal key -> set koneksi
	rooms      map[uint]map[*Client]bool   // conversation id -> subscriber
	authorizer ConversationAuthorizer
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		rooms:   make(map[uint]map[*Client]bool),
	}
}

// SetAuthorizer dipasang setelah konstruksi karena chat service sendiri
// butuh hub untuk publish
func (h *Hub) SetAuthorizer(a ConversationAuthorizer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.authorizer = a
}

// Register menambahkan satu koneksi untuk principal. Principal malformed
// cuma di-log, tidak fatal. Transisi 0 -> 1 handle memicu event online,
// registrasi berikutnya untuk principal yang sudah online tidak.
func (h *Hub) Register(c *Client) {
	if !c.principal.Valid() {
		utils.ErrorLogger.Printf("realtime: register ignored for malformed principal %+v", c.principal)
		return
	}

	key := c.principal.Key()

	h.mu.Lock()
	set, ok := h.clients[key]
	if !ok {
		set = make(map[*Client]bool)
		h.clients[key] = set
	}
	wentOnline := len(set) == 0
	set[c] = true
	h.mu.Unlock()

	utils.InfoLogger.Printf("realtime: client registered for %s", key)

	if wentOnline {
		h.broadcastPresence(c.principal, true)
	}
}

// Deregister melepas satu koneksi; aman dipanggil dua kali untuk koneksi
// yang sama. Saat set kosong, key dihapus dan event offline dikirim.
func (h *Hub) Deregister(c *Client) {
	key := c.principal.Key()

	h.mu.Lock()
	wentOffline := false
	if set, ok := h.clients[key]; ok {
		if set[c] {
			delete(set, c)
			c.closeSend()
		}
		if len(set) == 0 {
			delete(h.clients, key)
			wentOffline = true
		}
	}
	for convID := range c.rooms {
		if members, ok := h.rooms[convID]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, convID)
			}
		}
	}
	c.rooms = make(map[uint]bool)
	h.mu.Unlock()

	if wentOffline {
		h.broadcastPresence(c.principal, false)
	}
}

// IsActorOnline -> true kalau principal punya minimal satu koneksi live
func (h *Hub) IsActorOnline(t models.ActorType, id uint) bool {
	return h.IsOnline(models.Principal{Type: t, ID: id})
}

func (h *Hub) IsOnline(p models.Principal) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[p.Key()]) > 0
}

// HandlesFor mengembalikan snapshot koneksi milik satu principal
func (h *Hub) HandlesFor(p models.Principal) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[p.Key()]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// JoinRoom men-subscribe koneksi ke topic satu conversation. Otorisasi
// dicek server-side saat join, bukan dipercaya dari client; join yang
// tidak berhak ditolak diam-diam (di-log) tanpa memutus koneksi.
func (h *Hub) JoinRoom(c *Client, conversationID uint) {
	h.mu.Lock()
	authorizer := h.authorizer
	h.mu.Unlock()

	if authorizer == nil {
		utils.ErrorLogger.Printf("realtime: join refused, no authorizer configured")
		return
	}
	if _, err := authorizer.Authorize(conversationID, c.principal); err != nil {
		utils.InfoLogger.Printf("realtime: join refused for %s on conversation %d: %v",
			c.principal.Key(), conversationID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[conversationID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[conversationID] = members
	}
	members[c] = true
	c.rooms[conversationID] = true
}

// LeaveRoom melepas subscription; no-op kalau tidak pernah join
func (h *Hub) LeaveRoom(c *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[conversationID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	delete(c.rooms, conversationID)
}

// PublishToConversation mengirim event ke (a) semua koneksi kedua partisipan
// dan (b) semua subscriber room conversation itu. Client yang kena dua jalur
// menerima duplikat; client yang de-duplicate berdasarkan message id.
func (h *Hub) PublishToConversation(event string, conv models.Conversation, payload interface{}) {
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		utils.ErrorLogger.Printf("realtime: marshal %s failed: %v", event, err)
		return
	}

	candidate := models.Principal{Type: models.ActorCandidate, ID: conv.CandidateID}
	employer := models.Principal{Type: models.ActorEmployer, ID: conv.EmployerID}

	h.mu.Lock()
	targets := make(map[*Client]bool)
	for c := range h.clients[candidate.Key()] {
		targets[c] = true
	}
	for c := range h.clients[employer.Key()] {
		targets[c] = true
	}
	for c := range h.rooms[conv.ID] {
		targets[c] = true
	}
	h.mu.Unlock()

	for c := range targets {
		c.trySend(data)
	}
}

// SendToPrincipal mengirim event langsung ke semua koneksi satu principal.
// Best-effort: no-op kalau principal offline.
func (h *Hub) SendToPrincipal(p models.Principal, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		utils.ErrorLogger.Printf("realtime: marshal %s failed: %v", event, err)
		return
	}
	for _, c := range h.HandlesFor(p) {
		c.trySend(data)
	}
}

// TypingPayload -> isi event typing (best-effort, tidak dipersist)
type TypingPayload struct {
	ConversationID uint             `json:"conversation_id"`
	Type           models.ActorType `json:"type"`
	ID             uint             `json:"id"`
}

// sendTyping meneruskan indikator typing ke subscriber room yang sama,
// kecuali pengirimnya. Hanya boleh dari client yang sudah join room itu.
func (h *Hub) sendTyping(from *Client, conversationID uint) {
	h.mu.Lock()
	if !from.rooms[conversationID] {
		h.mu.Unlock()
		return
	}
	targets := make([]*Client, 0)
	for c := range h.rooms[conversationID] {
		if c != from {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	data, err := json.Marshal(Envelope{
		Event: EventTyping,
		Data: TypingPayload{
			ConversationID: conversationID,
			Type:           from.principal.Type,
			ID:             from.principal.ID,
		},
	})
	if err != nil {
		return
	}
	for _, c := range targets {
		c.trySend(data)
	}
}

// PresencePayload -> isi event presence.changed
type PresencePayload struct {
	Type   models.ActorType `json:"type"`
	ID     uint             `json:"id"`
	Online bool             `json:"online"`
}

// broadcastPresence fan-out global, karena principal mana pun bisa sedang
// melihat daftar lawan bicara dengan indikator online
func (h *Hub) broadcastPresence(p models.Principal, online bool) {
	data, err := json.Marshal(Envelope{
		Event: EventPresenceChanged,
		Data:  PresencePayload{Type: p.Type, ID: p.ID, Online: online},
	})
	if err != nil {
		utils.ErrorLogger.Printf("realtime: marshal presence failed: %v", err)
		return
	}

	h.mu.Lock()
	targets := make([]*Client, 0)
	for _, set := range h.clients {
		for c := range set {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.trySend(data)
	}
}
