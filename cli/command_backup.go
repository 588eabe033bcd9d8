package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/core"
	"github.com/sbak-archive/sbak/repo"
	"github.com/sbak-archive/sbak/scan"
)

// commandBackup implements "backup [-b NAME] [--repo R]".
type commandBackup struct {
	bankName string
	out      textOutput
}

func (c *commandBackup) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("backup", "Scan a bank's target tree and record a new snapshot")
	cmd.Flag("bank", "Bank name").Short('b').Default("default").StringVar(&c.bankName)

	c.out.setup(svc)
	cmd.Action(svc.repositoryAction(c.run))
}

func (c *commandBackup) run(ctx context.Context, r *repo.Repository) error {
	b, err := r.OpenBank(c.bankName)
	if err != nil {
		return errors.Wrapf(err, "opening bank %q", c.bankName)
	}

	scanner := scan.NewScanner(b)

	root, err := scanner.Scan(ctx)
	if err != nil {
		return errors.Wrap(err, "scanning")
	}

	now, err := core.Now()
	if err != nil {
		return errors.Wrap(err, "timestamping snapshot")
	}

	if err := b.SaveHistory(ctx, root.ID, now); err != nil {
		return errors.Wrap(err, "saving history")
	}

	log(ctx).Infof("bank %q: recorded snapshot %s at %s", c.bankName, root.ID, now)
	c.out.printStdout("%s  %s\n", now, root.ID)

	return nil
}
