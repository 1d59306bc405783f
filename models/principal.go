package models

import "fmt"

// ActorType membedakan dua jenis identitas di marketplace
type ActorType string

const (
	ActorCandidate ActorType = "candidate"
	ActorEmployer  ActorType = "employer"
)

func (t ActorType) Valid() bool {
	switch t {
	case ActorCandidate, ActorEmployer:
		return true
	}
	return false
}

// Principal -> resolved identity dari auth layer (type + id)
type Principal struct {
	Type ActorType `json:"type"`
	ID   uint      `json:"id"`
}

// Key merender principal sebagai satu string, misal "candidate:42",
// supaya dua identity space tidak collide di registry map
func (p Principal) Key() string {
	return fmt.Sprintf("%s:%d", p.Type, p.ID)
}

func (p Principal) Valid() bool {
	return p.Type.Valid() && p.ID != 0
}
