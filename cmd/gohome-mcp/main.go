package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/joshp123/gohome-floureon/internal/core"
	gohomemcp "github.com/joshp123/gohome-floureon/internal/mcp"
	"github.com/joshp123/gohome-floureon/plugins/floureon"
)

func main() {
	// stdout carries the MCP transport, so logs go to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	defaultAddr := "gohome:9000"
	if value := os.Getenv("GOHOME_GRPC_ADDR"); value != "" {
		defaultAddr = value
	}
	addr := flag.String("addr", defaultAddr, "GoHome gRPC address")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("dial gohome")
	}
	defer conn.Close()

	server := gohomemcp.NewServer(floureon.NewServiceClient(conn), core.NewRegistryClient(conn))

	log.Info().Str("addr", *addr).Msg("starting MCP server on stdio")
	if err := server.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
