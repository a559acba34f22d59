package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/scorekeeper/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

// These run only against live servers:
//
//	SCOREKEEPER_TEST_POSTGRES_DSN=postgres://... SCOREKEEPER_TEST_REDIS_ADDR=localhost:6379 go test ./...
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("SCOREKEEPER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCOREKEEPER_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	Convey("Given a migrated Postgres store", t, func() {
		store, err := repository.NewPostgresStore(ctx, dsn)
		So(err, ShouldBeNil)
		defer store.Close()
		So(store.Migrate(ctx), ShouldBeNil)

		Convey("When a run is saved", func() {
			run := sampleRun()
			run.FinishedAt = time.Now().UTC()
			So(store.Save(ctx, run), ShouldBeNil)

			Convey("Then it is the latest run", func() {
				got, err := store.Latest(ctx)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, run.ID)
				So(got.Export, ShouldResemble, run.Export)
			})
		})
	})
}

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("SCOREKEEPER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SCOREKEEPER_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	Convey("Given a Redis store under a test prefix", t, func() {
		store, err := repository.NewRedisStore(ctx, repository.RedisConfig{Addr: addr},
			repository.WithKeyPrefix("scorekeeper-test:"), repository.WithTTL(time.Minute))
		So(err, ShouldBeNil)
		defer store.Close()

		Convey("When a run is saved", func() {
			run := sampleRun()
			So(store.Save(ctx, run), ShouldBeNil)

			Convey("Then the run and leaderboards are readable", func() {
				got, err := store.Latest(ctx)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, run.ID)

				top, err := store.TopEXP(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].Score, ShouldEqual, 2)

				rep, err := store.TopREP(ctx, 1)
				So(err, ShouldBeNil)
				So(rep[0].Member, ShouldEqual, "Alice")
			})
		})
	})
}
