package main

import (
	"fmt"
	"os"

	"github.com/nurpe/dispatch-contracts/internal/auth"
	"github.com/nurpe/dispatch-contracts/internal/config"
	"github.com/nurpe/dispatch-contracts/internal/db"
	"github.com/nurpe/dispatch-contracts/internal/excel"
	httphandler "github.com/nurpe/dispatch-contracts/internal/http"
	"github.com/nurpe/dispatch-contracts/internal/http/middleware"
	"github.com/nurpe/dispatch-contracts/internal/logger"
	"github.com/nurpe/dispatch-contracts/internal/pdf"
	"github.com/nurpe/dispatch-contracts/internal/repository"
	"github.com/nurpe/dispatch-contracts/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	contractRepo := repository.NewContractRepository(database)
	assignmentRepo := repository.NewAssignmentRepository(database)
	directoryRepo := repository.NewDirectoryRepository(database)

	numbers := service.NewNumberGenerator(cfg.Contracts.NumberPrefix)
	conflict := service.NewConflictValidator(cfg.Contracts)
	rates := service.NewRateResolver()
	resolver := service.NewAssignmentResolver(database, contractRepo, assignmentRepo, directoryRepo)
	contracts := service.NewContractService(database, contractRepo, assignmentRepo, directoryRepo,
		numbers, conflict, resolver, rates, cfg.Contracts, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contracts, resolver, pdf.NewGenerator(), excel.NewGenerator(), log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting contracts service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
