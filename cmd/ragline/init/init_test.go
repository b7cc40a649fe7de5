package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/ragline/cmd/ragline/init"
	"github.com/papercomputeco/ragline/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     bytes.Buffer
	)

	execute := func(args ...string) error {
		out.Reset()
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "ragline-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates the .ragline directory", func() {
		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".ragline"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("Initialized"))
	})

	It("is idempotent", func() {
		Expect(execute()).To(Succeed())
		Expect(execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
	})

	It("writes the preset config", func() {
		Expect(execute("--preset", "postgres")).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".ragline", "config.toml"))
		Expect(err).NotTo(HaveOccurred())

		var cfg config.Config
		Expect(toml.Unmarshal(data, &cfg)).To(Succeed())
		Expect(cfg.VectorStore.Provider).To(Equal("pgvector"))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
	})

	It("refuses to overwrite a config without --force", func() {
		Expect(execute("--preset", "local")).To(Succeed())
		Expect(execute("--preset", "ollama")).To(MatchError(ContainSubstring("--force")))
		Expect(execute("--preset", "ollama", "--force")).To(Succeed())
	})

	It("rejects unknown presets before creating anything", func() {
		Expect(execute("--preset", "bogus")).To(MatchError(ContainSubstring("unknown preset")))

		_, err := os.Stat(filepath.Join(tmpDir, ".ragline"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
