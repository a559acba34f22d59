package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/scorekeeper/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a default deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a message ID is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "889112771234")
			second := d.SeenAndRecord(ctx, "889112771234")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded ID is unrecorded", func() {
			d.SeenAndRecord(ctx, "m-1")
			d.Unrecord(ctx, "m-1")
			d.Unrecord(ctx, "never-recorded")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "m-1"), ShouldBeFalse)
			})
		})

		Convey("When the ID is empty", func() {
			Convey("Then it is tracked like any other", func() {
				So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, ""), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deduper bounded to three IDs", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"m-1", "m-2", "m-3", "m-4"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("Then the oldest ID was evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "m-4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m-3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m-1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
		})

		Convey("When a middle ID is unrecorded", func() {
			d.Unrecord(ctx, "m-3")

			Convey("Then eviction order skips it", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "m-5"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "m-6"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "m-2"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "m-6"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))

		Convey("When many IDs are recorded", func() {
			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("m-%d", i)), ShouldBeFalse)
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, int64(n))
				So(d.SeenAndRecord(ctx, "m-0"), ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by several goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers, perWorker = 10, 100

		Convey("When every goroutine records the same IDs", func() {
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						if !d.SeenAndRecord(context.Background(), fmt.Sprintf("m-%d", i)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each ID is reported fresh exactly once", func() {
				So(fresh, ShouldEqual, perWorker)
				So(d.Size(), ShouldEqual, int64(perWorker))
			})
		})
	})
}
