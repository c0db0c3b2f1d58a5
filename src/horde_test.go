package bedtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHordeGeneratePosterHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHordeClient("").GeneratePoster(ctx, "a sleepy dragon under the stars")

	assert.ErrorIs(t, err, context.Canceled)
}
