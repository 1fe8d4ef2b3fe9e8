package similarity

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestCompute_GoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	rng := rand.New(rand.NewSource(3))
	s := identitySubspace(t, 5)
	e := newEngine(t, WithWorkers(3))

	for i := 0; i < 3; i++ {
		_, _, err := e.Compute(context.Background(), s, 4, randomSet(rng, 20, 5), randomSet(rng, 10, 5))
		assert.NoError(t, err)
	}

	bad := randomSet(rng, 20, 5)
	bad[7][0] = math.Inf(1)
	_, _, err := e.Compute(context.Background(), s, 4, bad, randomSet(rng, 10, 5))
	assert.Error(t, err)
}
