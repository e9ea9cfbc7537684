package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра бронирования.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Branch{},
		&Client{},
		&Stylist{},
		&Service{},
		&StylistService{},
		&WeeklyScheduleEntry{},
		&TimeBlock{},
		&BranchClosure{},
		&Reservation{},
		&CommissionRecord{},
		&WaitingListEntry{},
		&Event{},
	)
}
