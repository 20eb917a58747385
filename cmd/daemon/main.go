package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"homeseeker/go-backend/internal/adapters/rpc"
	"homeseeker/go-backend/internal/api"
	"homeseeker/go-backend/internal/app"
	"homeseeker/go-backend/internal/config"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	rpcAddr := flag.String("rpc-addr", rpc.DefaultRPCAddr, "JSON-RPC listen address")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	dataDir := flag.String("data-dir", "", "Directory for daemon local data (optional)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-HS-RPC-Token (optional)")
	transport := flag.String("transport", "", "Chain transport override: rpc | sim")
	flag.Parse()
	if *showVersion {
		fmt.Printf("homeseeker-daemon version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *rpcToken != "" {
		_ = os.Setenv("HS_RPC_TOKEN", *rpcToken)
	}
	if *transport != "" {
		_ = os.Setenv("HS_CHAIN_TRANSPORT", *transport)
	}
	if *dataDir != "" {
		_ = os.Setenv("HS_DATA_DIR", *dataDir)
	}

	cfg := config.LoadFromPath(*configPath)
	logger := app.DefaultLogger()
	svc, err := api.NewServiceForDaemon(cfg, logger)
	if err != nil {
		log.Fatalf("homeseeker-daemon failed to initialize: %v", err)
	}
	defer svc.Close()

	srv := rpc.NewServerWithService(*rpcAddr, svc)

	log.Println("homeseeker-daemon starting")
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("homeseeker-daemon failed: %v", err)
	}
	log.Println("homeseeker-daemon stopped")
}
