package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"datarag/app/server"
	"datarag/config"

	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	s := server.NewServer(cfg)

	go func() {
		if err := s.Run(); err != nil {
			log.Fatal("server failed: ", err)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("received shutdown signal, shutting down server...")
	s.Stop()
}
