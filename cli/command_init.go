package cli

import (
	"context"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/repo"
)

// commandInitRepo implements "init repo -p PATH".
type commandInitRepo struct {
	path string
	out  textOutput
}

func (c *commandInitRepo) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("repo", "Create a new repository")
	cmd.Flag("path", "Repository directory to create").Short('p').Required().StringVar(&c.path)

	c.out.setup(svc)
	cmd.Action(func(*kingpin.ParseContext) error {
		return c.run(svc.rootContext())
	})
}

func (c *commandInitRepo) run(ctx context.Context) error {
	if _, err := repo.Create(c.path); err != nil {
		return errors.Wrapf(err, "creating repository at %s", c.path)
	}

	log(ctx).Infof("created repository at %s", c.path)
	c.out.printStdout("created repository at %s\n", c.path)

	return nil
}

// commandInitBank implements "init bank -n NAME -p TARGET [--repo R]".
type commandInitBank struct {
	name   string
	target string
	out    textOutput
}

func (c *commandInitBank) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("bank", "Create a new bank inside a repository")
	cmd.Flag("name", "Bank name").Short('n').Required().StringVar(&c.name)
	cmd.Flag("path", "Source directory the bank will back up").Short('p').Required().StringVar(&c.target)

	c.out.setup(svc)
	cmd.Action(svc.repositoryAction(c.run))
}

func (c *commandInitBank) run(ctx context.Context, r *repo.Repository) error {
	if r.BankExists(c.name) {
		c.out.printStdout("bank %q already exists\n", c.name)
		return nil
	}

	if err := r.CreateBank(c.name, c.target); err != nil {
		return errors.Wrapf(err, "creating bank %q", c.name)
	}

	log(ctx).Infof("created bank %q targeting %s", c.name, c.target)
	c.out.printStdout("created bank %q targeting %s\n", c.name, c.target)

	return nil
}
