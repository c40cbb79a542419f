package bundlecache_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	bundlecache "github.com/okian/huddle/internal/domain/bundlecache"
	model "github.com/okian/huddle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// countingSource records how many times each actor was fetched.
type countingSource struct {
	mu      sync.Mutex
	calls   map[string]int
	bundles map[string]model.PersonaBundle
	err     error
}

func (s *countingSource) BundleFor(_ context.Context, actorID string) (model.PersonaBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[actorID]++
	if s.err != nil {
		return nil, s.err
	}
	return s.bundles[actorID], nil
}

func (s *countingSource) callCount(actorID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[actorID]
}

func TestCache_BundleFor(t *testing.T) {
	Convey("Given a read-through bundle cache", t, func() {
		ctx := context.Background()
		source := &countingSource{bundles: map[string]model.PersonaBundle{
			"u1": {{ActorID: "u1", Alias: "indy", Category: "student", Weight: 2}},
		}}
		cache := bundlecache.New(source)

		Convey("When the same actor is looked up repeatedly", func() {
			for i := 0; i < 5; i++ {
				b, err := cache.BundleFor(ctx, "u1")
				So(err, ShouldBeNil)
				So(len(b), ShouldEqual, 1)
			}

			Convey("Then the source should be hit exactly once", func() {
				So(source.callCount("u1"), ShouldEqual, 1)
				So(cache.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an actor has no assignments", func() {
			b, err := cache.BundleFor(ctx, "empty")
			So(err, ShouldBeNil)
			So(len(b), ShouldEqual, 0)

			_, err = cache.BundleFor(ctx, "empty")
			So(err, ShouldBeNil)

			Convey("Then the empty result should be cached too", func() {
				So(source.callCount("empty"), ShouldEqual, 1)
			})
		})

		Convey("When the source fails", func() {
			source.err = errors.New("store down")
			_, err := cache.BundleFor(ctx, "u2")
			So(err, ShouldNotBeNil)

			source.err = nil
			b, err := cache.BundleFor(ctx, "u2")

			Convey("Then the error should not be cached", func() {
				So(err, ShouldBeNil)
				So(len(b), ShouldEqual, 0)
				So(source.callCount("u2"), ShouldEqual, 2)
			})
		})

		Convey("When concurrent lookups race on a cold cache", func() {
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = cache.BundleFor(ctx, "u1")
				}()
			}
			wg.Wait()

			Convey("Then the cache should hold a single entry", func() {
				So(cache.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestCache_Eviction(t *testing.T) {
	Convey("Given a cache bounded to two actors", t, func() {
		ctx := context.Background()
		source := &countingSource{bundles: map[string]model.PersonaBundle{}}
		cache := bundlecache.New(source, bundlecache.WithMaxSize(2))

		Convey("When a third actor is inserted", func() {
			_, _ = cache.BundleFor(ctx, "a")
			_, _ = cache.BundleFor(ctx, "b")
			_, _ = cache.BundleFor(ctx, "c")

			Convey("Then the oldest entry should be evicted", func() {
				So(cache.Size(), ShouldEqual, 2)

				_, _ = cache.BundleFor(ctx, "a")
				So(source.callCount("a"), ShouldEqual, 2)
			})
		})
	})
}
