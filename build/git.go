package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/cfrepro/cfrepro/shell"
)

// Head returns the commit currently checked out in srcDir.
func (o *Orchestrator) Head(ctx context.Context, srcDir string) (string, error) {
	res, err := o.exec.Execute(ctx, "git rev-parse HEAD", srcDir, shell.Options{Quiet: true})
	if err != nil {
		return "", fmt.Errorf("failed to get git commit: %w", err)
	}
	return strings.TrimSpace(res.Output), nil
}

// Checkout moves srcDir to sha after confirmation. Nothing is asked or run
// when sha is already checked out.
func (o *Orchestrator) Checkout(ctx context.Context, srcDir, sha string) error {
	head, err := o.Head(ctx, srcDir)
	if err != nil {
		return err
	}
	if head == sha {
		o.logger.Debug().Str("sha", sha).Msg("Commit already checked out")
		return nil
	}

	cmd := "git fetch && git checkout " + shell.Join(sha)
	if err := o.confirm.CheckConfirm(fmt.Sprintf("Proceed with the following command:\n%s in %s?", cmd, srcDir)); err != nil {
		return err
	}

	o.logger.Info().
		Str("from", head).
		Str("to", sha).
		Msg("Checking out commit")
	if _, err := o.exec.Execute(ctx, cmd, srcDir, shell.Options{}); err != nil {
		return fmt.Errorf("failed to check out %s: %w", sha, err)
	}
	return nil
}
