package main

import (
	"github.com/joho/godotenv"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
