package versioncmder_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/ragline/cmd/version"
)

var _ = Describe("NewVersionCmd", func() {
	var out bytes.Buffer

	execute := func(args ...string) error {
		out.Reset()
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("prints the build information", func() {
		Expect(execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: dev"))
		Expect(out.String()).To(ContainSubstring("Sha: HEAD"))
	})

	It("prints JSON with --json", func() {
		Expect(execute("--json")).To(Succeed())

		var info versioncmder.BuildInfo
		Expect(json.Unmarshal(out.Bytes(), &info)).To(Succeed())
		Expect(info).To(Equal(versioncmder.Current()))
	})
})
