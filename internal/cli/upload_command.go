package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"recruit-console/internal/config"
	"recruit-console/internal/localstore"
	"recruit-console/internal/upload"
)

func runUpload(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	noLive := fs.Bool("no-live", false, "print plain status lines instead of redrawing")
	jsonOut := fs.Bool("json", false, "print the batch result as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireJobID(*jobID)
	if err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("at least one resume file is required")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	if !a.client.LoggedIn() {
		return errors.New("not logged in, run 'recruit-console login'")
	}

	lock, err := localstore.AcquireBatchLock(a.cfg.LocksDir(), id)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	var out io.Writer = os.Stdout
	if *jsonOut {
		out = io.Discard
	}
	renderer := newUploadRenderer(out, !*jsonOut && !*noLive && stdoutIsTTY())
	orch := a.orchestrator(renderer.Observe)

	renderer.Start()
	res, runErr := orch.Run(ctx, id, localFiles(paths))
	renderer.Stop()

	a.recordBatch(context.WithoutCancel(ctx), res)

	if *jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printUploadSummary(res)
	}
	if runErr != nil {
		return runErr
	}
	switch {
	case len(res.Tasks) == 0:
		return errors.New("no acceptable files to upload")
	case res.Failed > 0:
		return fmt.Errorf("%d of %d uploads failed", res.Failed, len(res.Tasks))
	}
	return nil
}

// localFiles maps paths to orchestrator files. A path that cannot be
// stat'ed still becomes an entry so it is reported with the rest of the
// batch instead of aborting it.
func localFiles(paths []string) []upload.File {
	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		f, err := upload.LocalFile(p)
		if err != nil {
			statErr := err
			f = upload.File{
				Name: filepath.Base(p),
				Open: func() (io.ReadCloser, error) { return nil, statErr },
			}
		}
		files = append(files, f)
	}
	return files
}

func printUploadSummary(res upload.Result) {
	for _, r := range res.Rejected {
		fmt.Printf("rejected %s: %s\n", r.Name, r.Reason)
	}
	if len(res.Tasks) == 0 {
		return
	}
	fmt.Printf("batch %s: %d succeeded, %d failed\n", res.BatchID, res.Succeeded, res.Failed)
	for _, t := range res.Tasks {
		switch {
		case t.Error != "":
			fmt.Printf("  %-36s %s (%s)\n", truncateRunes(t.Name, 36), t.Phase, t.Error)
		case t.CandidateID != "":
			fmt.Printf("  %-36s %s candidate=%s\n", truncateRunes(t.Name, 36), t.Phase, t.CandidateID)
		default:
			fmt.Printf("  %-36s %s\n", truncateRunes(t.Name, 36), t.Phase)
		}
	}
}
