package root_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/bbopt/cmd/root"
	"github.com/operator-framework/bbopt/pkg/bbopt/catalog"
)

func TestRoot(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Command Suite")
}

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := root.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

var _ = Describe("bbopt", func() {
	It("lists every built-in problem", func() {
		out, _, err := execute("list")
		Expect(err).NotTo(HaveOccurred())
		for _, name := range catalog.Names() {
			Expect(out).To(ContainSubstring(name))
		}
	})

	It("solves a problem and logs progress", func() {
		out, logs, err := execute("run", "peak", "--log-format", "json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("state:      optimal"))
		Expect(out).To(ContainSubstring("known best: 3"))
		Expect(logs).To(ContainSubstring(`"msg":"progress"`))
		Expect(logs).To(ContainSubstring(`"msg":"search finished"`))
		Expect(logs).To(ContainSubstring(`"problem":"peak"`))
	})

	It("applies flags over the problem defaults", func() {
		out, _, err := execute("run", "sincos", "--iteration-limit", "5", "--log-format", "json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("state:      iteration limit"))
		Expect(out).To(ContainSubstring("iterations: 5,"))
	})

	It("prints a line per iteration with --trace", func() {
		out, _, err := execute("run", "sincos", "--iteration-limit", "4", "--trace", "--log-format", "json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(MatchRegexp(`(?m)^\s+1  node 1 `))
		Expect(out).To(MatchRegexp(`(?m)^\s+4  node `))
		Expect(out).To(ContainSubstring("state:      iteration limit"))
	})

	It("reads settings from a config file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "search.toml")
		Expect(os.WriteFile(path, []byte("iteration_limit = 3\nverbosity = \"quiet\"\n"), 0o600)).To(Succeed())
		out, logs, err := execute("run", "sincos", "--config", path, "--log-format", "json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("iterations: 3,"))
		Expect(logs).To(BeEmpty())
	})

	It("rejects unknown problems", func() {
		_, _, err := execute("run", "nope")
		Expect(err).To(MatchError(catalog.ErrUnknownProblem))
	})

	It("rejects unknown log formats", func() {
		_, _, err := execute("run", "peak", "--log-format", "xml")
		Expect(err).To(HaveOccurred())
	})

	It("benchmarks problems against their known optima", func() {
		out, _, err := execute("bench", "peak", "fractional", "--parallel", "2", "--strict")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("peak"))
		Expect(out).To(ContainSubstring("fractional"))
		Expect(out).NotTo(ContainSubstring("false"))
	})
})
