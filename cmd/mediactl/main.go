// Command mediactl runs maintenance tasks against the media store:
// schema migration, legacy tenant normalization, orphan reconciliation and
// lookups for debugging.
//
//	mediactl [-config config.yaml] <command> [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yi-nology/mediahub/biz/dal/db"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/biz/service"
	"github.com/yi-nology/mediahub/pkg/config"
	"github.com/yi-nology/mediahub/pkg/database"
	"github.com/yi-nology/mediahub/pkg/logging"
	"github.com/yi-nology/mediahub/pkg/metrics"
	"github.com/yi-nology/mediahub/pkg/redis"
	"github.com/yi-nology/mediahub/pkg/storage"
	"github.com/yi-nology/mediahub/pkg/validator"
)

const usage = `usage: mediactl [-config path] [-metrics-file path] <command> [flags]

commands:
  migrate                     create or update tables, normalize tenants, backfill keys
  normalize-tenants           rewrite legacy tenant_id = 0 rows to NULL
  sweep-orphans [-limit N]    retry failed physical deletes and copies
  resolve <token|seo-name>    print a media record and its URLs
  root -disk NAME [-tenant N] print (and create) the root folder
  folders -disk NAME [-tenant N]
                              print the folder tree
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		hlog.Errorf("mediactl: %v", err)
		os.Exit(1)
	}
}

type app struct {
	cfg *config.Config
	svc *service.Service
	out io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("mediactl", flag.ContinueOnError)
	global.SetOutput(out)
	global.Usage = func() { _, _ = fmt.Fprint(out, usage) }
	configPath := global.String("config", "config.yaml", "configuration file")
	metricsFile := global.String("metrics-file", "", "write counters in text format to this file on exit")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log)

	conn, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	cmd, cmdArgs := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "migrate":
		return db.Migrate(ctx, conn)
	case "normalize-tenants":
		counts, err := db.NormalizeLegacyTenants(ctx, conn)
		if err != nil {
			return err
		}
		printCounts(out, counts)
		return nil
	}

	disks, err := storage.NewRegistry(cfg.Storage)
	if err != nil {
		return err
	}
	locker, closeLocker, err := redis.NewLocker(cfg.Redis)
	if err != nil {
		return err
	}
	defer closeLocker()

	registry := prometheus.NewRegistry()
	a := &app{
		cfg: cfg,
		out: out,
		svc: service.NewService(conn, disks,
			service.WithLocker(locker),
			service.WithUploadPolicy(validator.NewUploadPolicy(cfg.Upload.MaxSize, cfg.Upload.AllowedTypes)),
			service.WithInvalidURL(cfg.Storage.InvalidURL),
			service.WithMetrics(metrics.NewStorageMetrics(registry)),
		),
	}

	switch cmd {
	case "sweep-orphans":
		err = a.sweepOrphans(ctx, cmdArgs)
	case "resolve":
		err = a.resolve(ctx, cmdArgs)
	case "root":
		err = a.root(ctx, cmdArgs)
	case "folders":
		err = a.folders(ctx, cmdArgs)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	if *metricsFile != "" {
		if werr := prometheus.WriteToTextfile(*metricsFile, registry); werr != nil {
			hlog.Warnf("write metrics to %s: %v", *metricsFile, werr)
		}
	}
	return err
}

func (a *app) sweepOrphans(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep-orphans", flag.ContinueOnError)
	limit := fs.Int("limit", 100, "maximum entries to process")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, err := a.svc.SweepOrphans(ctx, *limit)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "resolved=%d retained=%d\n", result.Resolved, result.Retained)
	return nil
}

func (a *app) resolve(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("resolve needs exactly one token or seo filename")
	}
	key := args[0]
	m, err := a.svc.FindByToken(ctx, key)
	if errors.Is(err, service.ErrMediaNotFound) {
		m, err = a.svc.FindBySEOFilename(ctx, key)
	}
	if err != nil {
		return fmt.Errorf("resolve %q: %w", key, err)
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "id\t%d\n", m.ID)
	_, _ = fmt.Fprintf(w, "tenant\t%s\n", model.TenantKey(m.TenantID))
	_, _ = fmt.Fprintf(w, "disk\t%s\n", m.Disk)
	_, _ = fmt.Fprintf(w, "path\t%s\n", m.Path)
	_, _ = fmt.Fprintf(w, "filename\t%s\n", m.Filename)
	_, _ = fmt.Fprintf(w, "mime\t%s\n", m.MimeType)
	_, _ = fmt.Fprintf(w, "url\t%s\n", a.svc.PublicURL(ctx, m, false))
	_, _ = fmt.Fprintf(w, "seo url\t%s\n", a.svc.PublicURL(ctx, m, true))
	_, _ = fmt.Fprintf(w, "thumbnail\t%s\n", a.svc.ThumbnailURL(ctx, m))
	return w.Flush()
}

func (a *app) root(ctx context.Context, args []string) error {
	tenantID, disk, err := parseScope("root", args, a.cfg.Storage.Default)
	if err != nil {
		return err
	}
	root, err := a.svc.GetRootFolder(ctx, tenantID, disk)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "%d\t%s\t%s\n", root.ID, root.Disk, root.Path)
	return nil
}

func (a *app) folders(ctx context.Context, args []string) error {
	tenantID, disk, err := parseScope("folders", args, a.cfg.Storage.Default)
	if err != nil {
		return err
	}
	tree, err := a.svc.ListFolderTree(ctx, tenantID, disk)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPATH\tNAME\tMEDIA")
	for i := range tree {
		f := &tree[i]
		n, err := a.svc.CountMediaRecursive(ctx, f.ID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", f.ID, f.Path, f.Name, n)
	}
	return w.Flush()
}

// parseScope reads -tenant and -disk. An empty or zero tenant is global.
func parseScope(name string, args []string, defaultDisk string) (*uint, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	tenant := fs.String("tenant", "", "tenant id (empty for global)")
	disk := fs.String("disk", defaultDisk, "disk name")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(*tenant) == "" {
		return nil, *disk, nil
	}
	id, err := strconv.ParseUint(*tenant, 10, 64)
	if err != nil {
		return nil, "", fmt.Errorf("invalid tenant %q: %w", *tenant, err)
	}
	return model.Tenant(uint(id)), *disk, nil
}

func printCounts(out io.Writer, counts map[string]int64) {
	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(out, "%s\t%d\n", table, counts[table])
	}
}
