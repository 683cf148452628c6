package authstate

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// Token rotation must be safe while requests are in flight; run reads and
// SetAccessToken together so the race detector can see any unguarded access.
func TestClientSetAccessTokenConcurrent(t *testing.T) {
	fs := newFakeServer(t)
	client := NewClient(fs.URL, "token-0")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := client.GetProfile(context.Background()); err != nil {
					t.Errorf("get profile: %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 25; j++ {
			client.SetAccessToken(fmt.Sprintf("token-%d", j))
		}
	}()
	wg.Wait()
}
