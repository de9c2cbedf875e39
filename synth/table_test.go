package synth_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rohdgo/synth"
)

var _ = Describe("DescriptorTable", func() {
	It("resolves a built-in class before any definition-name override", func() {
		table := synth.NewDescriptorTable()
		table.RegisterOverride("my_custom_and", &synth.Descriptor{Primitive: "custom_and"})
		d, ok := table.Lookup("AND2", "my_custom_and")
		Expect(ok).To(BeTrue())
		Expect(d.Primitive).To(Equal("and2_cell"))
	})

	It("falls back to a definition-name override when the type isn't built in", func() {
		table := synth.NewDescriptorTable()
		_, ok := table.Lookup("SOME_USER_MODULE", "adder_tree_leaf")
		Expect(ok).To(BeFalse())

		table.RegisterOverride("adder_tree_leaf", &synth.Descriptor{Primitive: "custom_adder"})
		d, ok := table.Lookup("SOME_USER_MODULE", "adder_tree_leaf")
		Expect(ok).To(BeTrue())
		Expect(d.Primitive).To(Equal("custom_adder"))
	})

	It("loads overrides from a YAML descriptor file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "descriptors.yaml")
		contents := `
descriptors:
  - definition_name: sticky_latch
    primitive: sticky_latch_cell
    port_map:
      d: D
      q: Q
    directions:
      d: in
      q: out
`
		Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())

		table := synth.NewDescriptorTable()
		Expect(table.LoadOverrides(path)).To(Succeed())

		d, ok := table.Lookup("ANYTHING", "sticky_latch")
		Expect(ok).To(BeTrue())
		Expect(d.Primitive).To(Equal("sticky_latch_cell"))
		Expect(d.Directions["d"]).To(Equal(synth.DirInput))
		Expect(d.Directions["q"]).To(Equal(synth.DirOutput))
	})

	It("reports an error for an unreadable descriptor file", func() {
		table := synth.NewDescriptorTable()
		err := table.LoadOverrides(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Sequential decomposition", func() {
	It("classifies a simple one-trigger/one-in/one-out shape as a bare dff", func() {
		shape := synth.ClassifyShape([]string{"_trigger_clk", "_in_d", "_out_q"})
		Expect(shape.IsSimpleFlop()).To(BeTrue())

		table := synth.NewDescriptorTable()
		cells, err := table.Decompose(shape)
		Expect(err).NotTo(HaveOccurred())
		Expect(cells).To(HaveLen(1))
		Expect(cells[0].Class).To(Equal("FLOP"))
	})

	It("decomposes a conditional register into mux(es) feeding a trailing dff", func() {
		shape := synth.ClassifyShape([]string{
			"_trigger_clk", "_in_d", "_out_q", "greaterThan", "_cond_enable",
		})
		Expect(shape.IsSimpleFlop()).To(BeFalse())
		Expect(shape.Conditions).To(ConsistOf("greaterThan", "_cond_enable"))

		table := synth.NewDescriptorTable()
		cells, err := table.Decompose(shape)
		Expect(err).NotTo(HaveOccurred())
		Expect(cells).To(HaveLen(3)) // 2 muxes + 1 dff
		Expect(cells[len(cells)-1].Class).To(Equal("FLOP"))
		for _, c := range cells[:len(cells)-1] {
			Expect(c.Class).To(Equal("MUX"))
		}
	})
})
