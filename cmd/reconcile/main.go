package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/yourusername/thr-api/internal/config"
	pgRepo "github.com/yourusername/thr-api/internal/repository/postgres"
	"github.com/yourusername/thr-api/internal/service"
	"github.com/yourusername/thr-api/pkg/database"
)

// Разовая сверка из командной строки: скан (по умолчанию) или
// скан с починкой (-repair). Отчет печатается в stdout JSON-ом.
// Код выхода 1 — при расхождениях, оставшихся непочиненными.
func main() {
	repair := flag.Bool("repair", false, "починить найденные расхождения")
	configPath := flag.String("config", "config/config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	participantRepo := pgRepo.NewParticipantRepo(db)
	rewardRepo := pgRepo.NewRewardRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)
	redemptionRepo := pgRepo.NewRedemptionRepo(db)
	txManager := pgRepo.NewTxManager(db)

	svc := service.NewReconciliationService(
		participantRepo, rewardRepo, answerRepo, redemptionRepo, txManager, &service.NoopReportMailer{})

	ctx := context.Background()

	report, err := svc.Scan(ctx)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	output := map[string]interface{}{"report": report}

	var repaired *service.RepairReport
	if *repair && !report.IsClean() {
		repaired, err = svc.Repair(ctx, report)
		if err != nil {
			log.Fatalf("Repair failed: %v", err)
		}
		output["repaired"] = repaired
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}

	os.Exit(exitCode(report, repaired))
}

// exitCode возвращает код выхода процесса: 0 — леджер чист или все
// расхождения починены, 1 — расхождения найдены и остались (скан без
// -repair либо починка с ошибками по части целей).
func exitCode(report *service.DriftReport, repaired *service.RepairReport) int {
	if report.IsClean() {
		return 0
	}
	if repaired == nil || repaired.Failed > 0 {
		return 1
	}
	return 0
}
