package main

import (
	"os"

	"searchhub/backend/internal/app"
)

func main() {
	os.Exit(app.Run())
}
