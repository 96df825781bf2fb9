package main

import (
	"os"

	"github.com/fitsync/svc-exercise-refresh/internal/runtime"
)

func main() {
	os.Exit(runtime.New().Run())
}
