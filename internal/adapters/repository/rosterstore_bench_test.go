package repository_test

import (
	"context"
	"fmt"
	"testing"

	repository "github.com/okian/huddle/internal/adapters/repository"
	model "github.com/okian/huddle/internal/domain/model"
)

func benchStore(b *testing.B, actors int) (*repository.RosterStore, []string) {
	b.Helper()
	ctx := context.Background()
	store := repository.NewRosterStore(ctx)

	p, err := store.CreatePersona(ctx, model.Persona{
		Alias: "indy", Category: "student", Title: "The Explorer", Description: "curious",
	})
	if err != nil {
		b.Fatalf("create persona: %v", err)
	}

	ids := make([]string, actors)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%d", i)
		if err := store.UpsertActor(ctx, model.Actor{ID: ids[i], Name: ids[i]}); err != nil {
			b.Fatalf("upsert actor: %v", err)
		}
		if _, err := store.SelectPersona(ctx, ids[i], p.ID, 1); err != nil {
			b.Fatalf("select persona: %v", err)
		}
	}
	return store, ids
}

func BenchmarkRosterStore_BundleFor(b *testing.B) {
	store, ids := benchStore(b, 1000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.BundleFor(ctx, ids[i%len(ids)])
	}
}

func BenchmarkRosterStore_Resolve(b *testing.B) {
	store, ids := benchStore(b, 1000)
	ctx := context.Background()
	batch := ids[:32]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = store.Resolve(ctx, batch)
	}
}

func BenchmarkRosterStore_SelectPersona(b *testing.B) {
	ctx := context.Background()
	store := repository.NewRosterStore(ctx)
	indy, _ := store.CreatePersona(ctx, model.Persona{
		Alias: "indy", Category: "student", Title: "The Explorer", Description: "curious",
	})
	salem, _ := store.CreatePersona(ctx, model.Persona{
		Alias: "salem", Category: "student", Title: "The Analyst", Description: "careful",
	})
	_ = store.UpsertActor(ctx, model.Actor{ID: "u1", Name: "u1"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Alternate so every call takes the replacement path.
		if i%2 == 0 {
			_, _ = store.SelectPersona(ctx, "u1", indy.ID, 1)
		} else {
			_, _ = store.SelectPersona(ctx, "u1", salem.ID, 1)
		}
	}
}
