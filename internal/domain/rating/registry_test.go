package rating_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/okian/rankpoints/internal/config"
	"github.com/okian/rankpoints/internal/domain/rating"
	"github.com/smartystreets/goconvey/convey"
)

// stubSystem is a second System used to exercise the registry.
type stubSystem struct {
	rating.System
	id string
}

func (s stubSystem) ID() string   { return s.id }
func (s stubSystem) Name() string { return "stub " + s.id }

func TestRegistry(t *testing.T) {
	convey.Convey("Given a registry holding the Glicko system", t, func() {
		glicko := rating.NewGlicko(config.New())
		reg, err := rating.NewRegistry(glicko)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When looking up a registered id", func() {
			got, err := reg.Get(rating.GlickoID)

			convey.Convey("Then the same instance is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, glicko)
			})
		})

		convey.Convey("When looking up an unknown id", func() {
			_, err := reg.Get("elo")

			convey.Convey("Then the error names the available systems", func() {
				convey.So(errors.Is(err, rating.ErrSystemNotFound), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, `"elo"`)
				convey.So(err.Error(), convey.ShouldContainSubstring, "available: glicko")
			})
		})

		convey.Convey("When registering the same id twice", func() {
			err := reg.Register(rating.NewGlicko(config.New()))

			convey.Convey("Then it fails with ErrDuplicateSystem", func() {
				convey.So(errors.Is(err, rating.ErrDuplicateSystem), convey.ShouldBeTrue)
				convey.So(reg.Len(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When registering nil or an empty id", func() {
			convey.So(errors.Is(reg.Register(nil), rating.ErrInvalidSystem), convey.ShouldBeTrue)
			convey.So(errors.Is(reg.Register(stubSystem{}), rating.ErrInvalidSystem), convey.ShouldBeTrue)
		})

		convey.Convey("When adding another system", func() {
			convey.So(reg.Register(stubSystem{id: "alpha"}), convey.ShouldBeNil)

			convey.Convey("Then ids are listed in sorted order", func() {
				convey.So(reg.IDs(), convey.ShouldResemble, []string{"alpha", "glicko"})
			})

			convey.Convey("Then unregistering removes only that id", func() {
				convey.So(reg.Unregister("alpha"), convey.ShouldBeTrue)
				convey.So(reg.Unregister("alpha"), convey.ShouldBeFalse)
				convey.So(reg.IDs(), convey.ShouldResemble, []string{"glicko"})
			})
		})

		convey.Convey("When clearing the registry", func() {
			reg.Clear()
			_, err := reg.Get(rating.GlickoID)

			convey.Convey("Then nothing is available", func() {
				convey.So(reg.Len(), convey.ShouldEqual, 0)
				convey.So(err.Error(), convey.ShouldContainSubstring, "available: none")
			})
		})
	})

	convey.Convey("Given duplicate systems at construction", t, func() {
		_, err := rating.NewRegistry(stubSystem{id: "x"}, stubSystem{id: "x"})
		convey.So(errors.Is(err, rating.ErrDuplicateSystem), convey.ShouldBeTrue)
	})

	convey.Convey("Given a zero-value registry", t, func() {
		var reg rating.Registry
		convey.So(reg.Register(stubSystem{id: "x"}), convey.ShouldBeNil)
		convey.So(reg.Len(), convey.ShouldEqual, 1)
	})
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg, err := rating.NewRegistry(rating.NewGlicko(config.New()))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := reg.Get(rating.GlickoID); err != nil {
					t.Error(err)
					return
				}
				_ = reg.IDs()
			}
		}()
	}
	wg.Wait()
}
