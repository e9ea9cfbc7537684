package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Leganyst/salon-booking/internal/clock"
	"github.com/Leganyst/salon-booking/internal/config"
	"github.com/Leganyst/salon-booking/internal/db"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/service"
)

func main() {
	// .env необязателен: в контейнере всё приходит через окружение.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using environment as is")
	}

	// 1. Конфиги из env.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}
	engCfg := config.LoadEngineConfig()

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 4. Репозитории (реализации на GORM).
	reservationRepo := repository.NewGormReservationRepository(gormDB)
	commissionRepo := repository.NewGormCommissionRepository(gormDB)
	waitlistRepo := repository.NewGormWaitingListRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)
	stylistRepo := repository.NewGormStylistRepository(gormDB)
	branchRepo := repository.NewGormBranchRepository(gormDB)

	// 5. Сервисы ядра.
	clk := clock.NewSystem()
	policy := service.Policy{
		CancelWindowHours: engCfg.CancelWindowHours,
		LateCancelPct:     engCfg.LateCancelPct,
		LastMinuteHours:   engCfg.LastMinuteHours,
		LastMinutePct:     engCfg.LastMinutePct,
		SlotStepMinutes:   engCfg.SlotStepMinutes,
		WaitlistTTL:       time.Duration(engCfg.WaitlistTTLDays) * 24 * time.Hour,
	}

	// AvailabilityService и BookingService скоупятся на запрос и
	// собираются транспортным слоем в соседнем сервисе; этому бинарю
	// нужен только владелец фоновых проходов.
	reservationSvc := service.NewReservationService(
		gormDB,
		reservationRepo, commissionRepo, waitlistRepo, eventRepo,
		stylistRepo, branchRepo,
		service.LogNotifier{}, service.CapturedAlways{},
		clk, policy,
	)

	// 6. Фоновый проход: напоминания и чистка листа ожидания.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweepEvery := time.Duration(engCfg.ReminderSweepMin) * time.Minute
	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := reservationSvc.RunReminderSweep(ctx); err != nil {
					log.Printf("reminder sweep: %v", err)
				} else if n > 0 {
					log.Printf("reminder sweep: sent %d reminder(s)", n)
				}
			}
		}
	}()

	log.Printf("booking core started, reminder sweep every %s", sweepEvery)

	// 7. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down booking core...")
	cancel()
}
