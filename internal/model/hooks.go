package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BeforeCreate-хуки: генерируем uuid на стороне приложения, если он не
// задан. В Postgres сработал бы и default gen_random_uuid(), но хук
// делает поведение одинаковым для всех диалектов (включая sqlite в
// тестах) и сразу даёт ID созданной строки без перечитывания.

func (b *Branch) BeforeCreate(*gorm.DB) error              { ensureID(&b.ID); return nil }
func (s *Stylist) BeforeCreate(*gorm.DB) error             { ensureID(&s.ID); return nil }
func (c *Client) BeforeCreate(*gorm.DB) error              { ensureID(&c.ID); return nil }
func (s *Service) BeforeCreate(*gorm.DB) error             { ensureID(&s.ID); return nil }
func (e *WeeklyScheduleEntry) BeforeCreate(*gorm.DB) error { ensureID(&e.ID); return nil }
func (b *TimeBlock) BeforeCreate(*gorm.DB) error           { ensureID(&b.ID); return nil }
func (c *BranchClosure) BeforeCreate(*gorm.DB) error       { ensureID(&c.ID); return nil }
func (r *Reservation) BeforeCreate(*gorm.DB) error         { ensureID(&r.ID); return nil }
func (c *CommissionRecord) BeforeCreate(*gorm.DB) error    { ensureID(&c.ID); return nil }
func (w *WaitingListEntry) BeforeCreate(*gorm.DB) error    { ensureID(&w.ID); return nil }
func (e *Event) BeforeCreate(*gorm.DB) error               { ensureID(&e.ID); return nil }

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
