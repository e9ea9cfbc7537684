package service

import "github.com/google/uuid"

// Роль инициатора перехода. Сами роли выдаёт внешний auth-коллаборатор;
// ядро только гейтит переходы по роли.
type ActorRole string

const (
	ActorClient  ActorRole = "client"
	ActorStylist ActorRole = "stylist"
	ActorAdmin   ActorRole = "admin"
	ActorAuto    ActorRole = "auto"
)

// Actor — действующий принципал, как его видит ядро.
type Actor struct {
	ID   uuid.UUID
	Role ActorRole
}

// System — актор для автоматических переходов (джобы, авто-подтверждение).
func System() Actor {
	return Actor{Role: ActorAuto}
}
