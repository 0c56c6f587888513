// Package testutil provides helpers for integration tests that need real
// backing services.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MongoContainer wraps a testcontainers MongoDB instance.
type MongoContainer struct {
	Container *mongodb.MongoDBContainer
	URI       string
}

// NewMongoContainer starts a MongoDB container for testing.
// The caller should defer container.Cleanup(t).
func NewMongoContainer(ctx context.Context, t *testing.T) *MongoContainer {
	t.Helper()

	container, err := mongodb.Run(ctx,
		"mongo:7",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Waiting for connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start mongodb container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongodb connection string: %v", err)
	}

	return &MongoContainer{
		Container: container,
		URI:       uri,
	}
}

// Cleanup terminates the container.
func (mc *MongoContainer) Cleanup(t *testing.T) {
	t.Helper()

	if mc.Container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := mc.Container.Terminate(ctx); err != nil {
			t.Logf("warning: failed to terminate mongodb container: %v", err)
		}
	}
}
