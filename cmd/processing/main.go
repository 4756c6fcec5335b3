package main

import (
	"os"

	"github.com/blogport/media-pipeline/internal/app"
)

func main() {
	os.Exit(app.Run("processing", run))
}
