package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
)

// Seed creates count random players, spreading the work over the given
// sessions. Sessions should share a gateway; each runs one create at a time.
func Seed(ctx context.Context, sessions []*Service, count int, seed int64) (int, error) {
	if len(sessions) == 0 {
		return 0, errors.New("seed: no sessions")
	}

	rng := rand.New(rand.NewSource(seed))
	forms := make(chan Form, len(sessions)*2)
	go func() {
		defer close(forms)
		for i := 0; i < count; i++ {
			f := Form{
				PlayerName: fmt.Sprintf("user_%d", rng.Intn(1000000)),
				HP:         strconv.Itoa(rng.Intn(100) + 1),
				ATK:        strconv.Itoa(rng.Intn(50) + 1),
				DEF:        strconv.Itoa(rng.Intn(50) + 1),
			}
			select {
			case forms <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		created atomic.Int64
		mu      sync.Mutex
		errs    []error
		wg      sync.WaitGroup
	)
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Service) {
			defer wg.Done()
			for f := range forms {
				s.UpdateForm(f)
				if _, err := s.CreatePlayer(ctx); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", f.PlayerName, err))
					mu.Unlock()
					continue
				}
				created.Add(1)
			}
		}(s)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return int(created.Load()), errors.Join(errs...)
}
