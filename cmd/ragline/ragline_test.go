package raglinecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	raglinecmder "github.com/papercomputeco/ragline/cmd/ragline"
)

var _ = Describe("NewRaglineCmd", func() {
	It("registers every subcommand", func() {
		cmd := raglinecmder.NewRaglineCmd()

		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}

		Expect(names).To(ContainElements(
			"serve", "index", "retrieve", "ask", "delete", "config", "init", "version",
		))
	})

	It("exposes the global flags", func() {
		cmd := raglinecmder.NewRaglineCmd()

		debug := cmd.PersistentFlags().Lookup("debug")
		Expect(debug).NotTo(BeNil())
		Expect(debug.Shorthand).To(Equal("d"))

		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("finds nested commands by path", func() {
		cmd := raglinecmder.NewRaglineCmd()

		found, _, err := cmd.Find([]string{"config", "set"})
		Expect(err).NotTo(HaveOccurred())
		Expect(found.Name()).To(Equal("set"))
	})
})
