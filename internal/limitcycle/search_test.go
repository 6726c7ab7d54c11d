package limitcycle

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/field"
	"github.com/san-kum/polysphere/internal/orbit"
)

func session(P, Q field.Poly, cfg dynamo.Config) *orbit.Session {
	sp := dynamo.PoincareSphere()
	ev, err := field.New(sp, P, Q, nil, dynamo.Reduced)
	Expect(err).NotTo(HaveOccurred())
	Expect(cfg.Validate()).To(Succeed())
	return orbit.NewSession(chart.New(sp), ev, cfg, nil, nil)
}

// hopf has the unit circle as an attracting limit cycle.
func hopf(cfg dynamo.Config) *orbit.Session {
	return session(
		field.P([3]float64{-1, 0, 1}, [3]float64{1, 1, 0}, [3]float64{-1, 3, 0}, [3]float64{-1, 1, 2}),
		field.P([3]float64{1, 1, 0}, [3]float64{1, 0, 1}, [3]float64{-1, 2, 1}, [3]float64{-1, 0, 3}),
		cfg,
	)
}

var _ = Describe("Search", func() {
	var sec Section

	BeforeEach(func() {
		var err error
		sec, err = NewSection(0.5, 0, 1.5, 0, 0.05, DefaultBounds())
		Expect(err).NotTo(HaveOccurred())
	})

	Context("on a field with a known cycle", func() {
		It("records the unit circle", func() {
			res, err := Search(hopf(dynamo.DefaultConfig()), sec, DefaultOptions(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Aborted).To(BeFalse())
			Expect(res.Cycles).NotTo(BeEmpty())
			for _, c := range res.Cycles {
				Expect(math.Hypot(c.X, c.Y)).To(BeNumerically("~", 1, 1e-3))
				Expect(c.Curve.Kind).To(Equal(orbit.KindLimitCycle))
				Expect(c.Curve.Len()).To(BeNumerically(">", 10))
				for _, pt := range c.Curve.Points {
					Expect(pt.Color).To(Equal(dynamo.ColorLimitCycle))
				}
			}
		})

		It("measures the return map on every grid point", func() {
			res, err := Search(hopf(dynamo.DefaultConfig()), sec, DefaultOptions(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Displacements).To(HaveLen(sec.Points()))
			first, last := res.Displacements[0], res.Displacements[len(res.Displacements)-1]
			Expect(first.Forward).To(BeNumerically(">", 0))
			Expect(last.Forward).To(BeNumerically("<", 0))
		})

		It("reports progress once per grid point", func() {
			count := 0
			progress := dynamo.ProgressFunc(func(n int) { count = n })
			_, err := Search(hopf(dynamo.DefaultConfig()), sec, DefaultOptions(), nil, progress)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(sec.Points()))
		})

		It("stops without a cycle when asked", func() {
			cfg := dynamo.DefaultConfig()
			cfg.PollEvery = 10
			stop := dynamo.CancelFunc(func() bool { return true })
			res, err := Search(hopf(cfg), sec, DefaultOptions(), stop, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Aborted).To(BeTrue())
			Expect(res.Cycles).To(BeEmpty())
			Expect(res.Displacements).To(BeEmpty())
		})
	})

	Context("on a spiral without cycles", func() {
		It("finds nothing and does not fail", func() {
			sess := session(
				field.P([3]float64{0.1, 1, 0}, [3]float64{-1, 0, 1}),
				field.P([3]float64{1, 1, 0}, [3]float64{0.1, 0, 1}),
				dynamo.DefaultConfig(),
			)
			coarse, err := NewSection(0.5, 0, 1.5, 0, 0.1, DefaultBounds())
			Expect(err).NotTo(HaveOccurred())
			res, err := Search(sess, coarse, DefaultOptions(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Aborted).To(BeFalse())
			Expect(res.Cycles).To(BeEmpty())
			Expect(res.Displacements[0].Forward).To(BeNumerically("~", 0.5*(math.Exp(0.2*math.Pi)-1), 1e-4))
		})
	})

	Context("when a return point lies at infinity", func() {
		It("records no cycle", func() {
			s := &searcher{sess: hopf(dynamo.DefaultConfig()), sec: sec, opts: DefaultOptions()}
			var res Result
			aborted, err := s.record(&res, dynamo.Point{1, 0, 0}, dynamo.Point{0.6, 0, 0.8}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(aborted).To(BeFalse())
			Expect(res.Cycles).To(BeEmpty())
		})
	})
})
