package cli

import (
	"github.com/alecthomas/kingpin/v2"

	"github.com/sbak-archive/sbak/internal/version"
)

// commandInfo implements "info [--log-test]".
type commandInfo struct {
	logTest bool
	out     textOutput
}

func (c *commandInfo) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("info", "Show the build version")
	cmd.Flag("log-test", "Emit one line at each log level to verify --verbose routing").BoolVar(&c.logTest)

	c.out.setup(svc)
	cmd.Action(func(*kingpin.ParseContext) error {
		return c.run(svc)
	})
}

func (c *commandInfo) run(svc appServices) error {
	c.out.printStdout("sbak %s\n", version.Version)
	c.out.printStdout("repository flag value resolved at the application level; see --repo\n")

	if c.logTest {
		ctx := svc.rootContext()
		log(ctx).Debugf("log test: debug")
		log(ctx).Infof("log test: info")
		log(ctx).Warnf("log test: warn")
		log(ctx).Errorf("log test: error")
	}

	return nil
}
