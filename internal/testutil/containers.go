package testutil

import (
	"context"
	"errors"

	"github.com/testcontainers/testcontainers-go"
)

// abandon terminates a container whose setup failed part way and returns
// the setup error joined with any termination error.
func abandon(ctx context.Context, c testcontainers.Container, err error) error {
	return errors.Join(err, c.Terminate(ctx))
}

func terminate(ctx context.Context, c testcontainers.Container) {
	if c != nil {
		_ = c.Terminate(ctx)
	}
}
