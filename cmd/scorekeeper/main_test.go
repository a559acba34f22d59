package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/scorekeeper/internal/adapters/repository"
	service "github.com/okian/scorekeeper/internal/app"
	"github.com/okian/scorekeeper/internal/config"
	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const fixturePath = "../../internal/adapters/fixture/testdata/history.json"

func fixtureConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.FixturePath = fixturePath
	cfg.Channels = []string{"general"}
	cfg.OutputPath = filepath.Join(t.TempDir(), "scoreboard.json")
	cfg.Addr = "127.0.0.1:0"
	return cfg
}

func TestApp_Execute(t *testing.T) {
	convey.Convey("Given an app wired to the recorded fixture", t, func() {
		ctx := context.Background()
		cfg := fixtureConfig(t)
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		app, err := newApp(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer app.Close()

		convey.Convey("When the replay runs", func() {
			run, err := app.Execute(ctx)

			convey.Convey("Then the run is done and totals match the fixture", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(app.Replayer().State(), convey.ShouldEqual, service.StateDone)
				convey.So(run.Channels, convey.ShouldResemble, []string{"general"})

				alice, ok := run.Export.Player("Alice")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(alice, convey.ShouldResemble, model.PlayerView{Name: "Alice", EXP: 2, REP: 1})
				bob, ok := run.Export.Player("Bob")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(bob.EXP, convey.ShouldEqual, 2)
				convey.So(service.VerifyConservation(run.Export), convey.ShouldBeNil)
			})

			convey.Convey("Then both the memory and file stores hold it", func() {
				convey.So(err, convey.ShouldBeNil)
				latest, lerr := app.Store().Latest(ctx)
				convey.So(lerr, convey.ShouldBeNil)
				convey.So(latest.ID, convey.ShouldEqual, run.ID)

				fs, ferr := repository.NewFileStore(cfg.OutputPath)
				convey.So(ferr, convey.ShouldBeNil)
				onDisk, derr := fs.Latest(ctx)
				convey.So(derr, convey.ShouldBeNil)
				convey.So(onDisk.Export, convey.ShouldResemble, run.Export)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := app.Execute(cctx)

			convey.Convey("Then the run fails and nothing is stored", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(app.Replayer().State(), convey.ShouldEqual, service.StateFailed)
				_, lerr := app.Store().Latest(ctx)
				convey.So(errors.Is(lerr, repository.ErrNotFound), convey.ShouldBeTrue)
			})
		})
	})
}

func TestNewApp_Errors(t *testing.T) {
	convey.Convey("Given configs that cannot be wired", t, func() {
		ctx := context.Background()

		convey.Convey("When the fixture file is missing", func() {
			cfg := fixtureConfig(t)
			cfg.FixturePath = filepath.Join(t.TempDir(), "missing.json")
			_, err := newApp(ctx, cfg, logger.Nop())

			convey.Convey("Then startup fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the live platform has no token", func() {
			cfg := fixtureConfig(t)
			cfg.FixturePath = ""
			cfg.GuildID = "889112771234"
			_, err := newApp(ctx, cfg, logger.Nop())

			convey.Convey("Then startup fails with a validation error", func() {
				convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the Postgres DSN cannot be parsed", func() {
			cfg := fixtureConfig(t)
			cfg.PostgresDSN = "postgres://%zz"
			_, err := newApp(ctx, cfg, logger.Nop())

			convey.Convey("Then startup fails before any replay", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServe_StopsOnCancel(t *testing.T) {
	convey.Convey("Given a replayed app", t, func() {
		cfg := fixtureConfig(t)
		app, err := newApp(context.Background(), cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer app.Close()
		_, err = app.Execute(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When serve runs with a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			convey.Convey("Then it shuts down cleanly", func() {
				convey.So(serve(ctx, cfg, app, logger.Nop()), convey.ShouldBeNil)
			})
		})
	})
}

func TestExecute_PersistFailure(t *testing.T) {
	convey.Convey("Given an app whose output path cannot be created", t, func() {
		cfg := fixtureConfig(t)
		blocker := filepath.Join(t.TempDir(), "blocker")
		convey.So(os.WriteFile(blocker, []byte("x"), 0o600), convey.ShouldBeNil)
		cfg.OutputPath = filepath.Join(blocker, "scoreboard.json")

		app, err := newApp(context.Background(), cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer app.Close()

		convey.Convey("When the replay runs", func() {
			run, err := app.Execute(context.Background())

			convey.Convey("Then the save error is reported and memory still holds the run", func() {
				convey.So(errors.Is(err, ErrPersist), convey.ShouldBeTrue)
				latest, lerr := app.Store().Latest(context.Background())
				convey.So(lerr, convey.ShouldBeNil)
				convey.So(latest.ID, convey.ShouldEqual, run.ID)
			})
		})

		convey.Convey("When serving is requested", func() {
			cfg.Serve = true
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			done := make(chan int, 1)
			go func() { done <- execute(ctx, cfg, app, logger.Nop()) }()

			served := false
			for i := 0; i < 200 && !served; i++ {
				if _, err := app.Store().Latest(context.Background()); err == nil {
					served = true
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			cancel()

			convey.Convey("Then the run is served and the exit code still reports the failure", func() {
				convey.So(served, convey.ShouldBeTrue)
				convey.So(<-done, convey.ShouldEqual, 1)
			})
		})
	})

	convey.Convey("Given an app that saves everywhere", t, func() {
		cfg := fixtureConfig(t)
		app, err := newApp(context.Background(), cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer app.Close()

		convey.Convey("Then execute exits cleanly", func() {
			convey.So(execute(context.Background(), cfg, app, logger.Nop()), convey.ShouldEqual, 0)
		})
	})
}
