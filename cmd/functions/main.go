// Command functions runs the registered functions under the Functions
// Framework for local development. Set FUNCTION_TARGET to serve one.
package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/joho/godotenv"
	_ "github.com/open-mmpa/functions"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to read .env")
	}

	port := "8080"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	if err := funcframework.Start(port); err != nil {
		logrus.WithError(err).Fatal("Functions framework stopped")
	}
}
