package service

import (
	"context"
	"testing"
	"time"

	"cat-endurance/internal/config"
	"cat-endurance/internal/constants"

	"github.com/rs/zerolog"
	"go.uber.org/fx/fxtest"
)

func TestMaintenance_SweepsOnInterval(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	if err := store.HSet(ctx, constants.PlayerScoresKey, "bad", "{"); err != nil {
		t.Fatalf("HSet() error: %v", err)
	}

	lc := fxtest.NewLifecycle(t)
	NewMaintenance(lc, svc, &config.Config{MaintenanceInterval: 10 * time.Millisecond}, zerolog.Nop())
	lc.RequireStart()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok, _ := store.HGet(ctx, constants.PlayerScoresKey, "bad"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("corrupt record was not swept")
		}
		time.Sleep(5 * time.Millisecond)
	}

	lc.RequireStop()
}

func TestMaintenance_Disabled(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	m := NewMaintenance(fxtest.NewLifecycle(t), svc, &config.Config{}, zerolog.Nop())
	m.Start()

	if m.cancel != nil {
		t.Error("Start() launched a sweeper with a zero interval")
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
}

func TestMaintenance_StopIsIdempotent(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	m := NewMaintenance(fxtest.NewLifecycle(t), svc, &config.Config{MaintenanceInterval: time.Hour}, zerolog.Nop())
	m.Start()
	m.Start()

	for i := 0; i < 2; i++ {
		if err := m.Stop(context.Background()); err != nil {
			t.Errorf("Stop() #%d error: %v", i+1, err)
		}
	}
}
